package client

import (
	"github.com/tidwall/gjson"
)

// The backend has shipped several payload shapes over time: orders carry
// either orderItems or items, either totalAmount or total, users either
// active or isActive. Everything here is pure reshaping into the canonical
// types; raw payloads never cross this boundary.

// unknownStoreName is the sentinel used when an order arrives without a store
// name, so the field is always non-empty.
const unknownStoreName = "Unknown store"

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func firstNumber(r gjson.Result, paths ...string) (float64, bool) {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v.Float(), true
		}
	}
	return 0, false
}

func firstBool(r gjson.Result, paths ...string) *bool {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			b := v.Bool()
			return &b
		}
	}
	return nil
}

func optFloat(r gjson.Result, path string) *float64 {
	if v := r.Get(path); v.Exists() {
		f := v.Float()
		return &f
	}
	return nil
}

func optInt(r gjson.Result, path string) *int64 {
	if v := r.Get(path); v.Exists() {
		n := v.Int()
		return &n
	}
	return nil
}

func normalizeUser(r gjson.Result) User {
	return User{
		ID:               r.Get("id").Int(),
		Username:         r.Get("username").String(),
		Email:            r.Get("email").String(),
		FirstName:        r.Get("firstName").String(),
		LastName:         r.Get("lastName").String(),
		TelegramUserID:   r.Get("telegramUserId").String(),
		TelegramUsername: r.Get("telegramUsername").String(),
		Role:             r.Get("role").String(),
		Phone:            firstString(r, "phone", "phoneNumber"),
		Active:           firstBool(r, "active", "isActive"),
		CreatedAt:        r.Get("createdAt").String(),
		UpdatedAt:        r.Get("updatedAt").String(),
	}
}

func normalizeStore(r gjson.Result) Store {
	return Store{
		ID:           r.Get("id").Int(),
		Name:         r.Get("name").String(),
		Description:  r.Get("description").String(),
		Logo:         firstString(r, "logo", "logoUrl"),
		Address:      r.Get("address").String(),
		Latitude:     optFloat(r, "latitude"),
		Longitude:    optFloat(r, "longitude"),
		Phone:        firstString(r, "phone", "phoneNumber"),
		Email:        r.Get("email").String(),
		OpeningHours: r.Get("openingHours").String(),
		ClosingHours: r.Get("closingHours").String(),
		Status:       r.Get("status").String(),
		Category:     r.Get("category").String(),
		Rating:       optFloat(r, "rating"),
		ProductCount: int(r.Get("productCount").Int()),
		CreatedAt:    r.Get("createdAt").String(),
		UpdatedAt:    r.Get("updatedAt").String(),
	}
}

func normalizeProduct(r gjson.Result) Product {
	status := r.Get("status").String()
	if status == "" {
		status = "AVAILABLE"
	}
	return Product{
		ID:                 r.Get("id").Int(),
		Name:               r.Get("name").String(),
		Description:        r.Get("description").String(),
		ImageURL:           r.Get("imageUrl").String(),
		OriginalPrice:      r.Get("originalPrice").Float(),
		DiscountedPrice:    optFloat(r, "discountedPrice"),
		DiscountPercentage: optFloat(r, "discountPercentage"),
		StockQuantity:      int(r.Get("stockQuantity").Int()),
		ExpirationDate:     r.Get("expirationDate").String(),
		StoreID:            r.Get("storeId").Int(),
		StoreName:          r.Get("storeName").String(),
		CategoryID:         optInt(r, "categoryId"),
		CategoryName:       r.Get("categoryName").String(),
		Status:             status,
		Featured:           r.Get("featured").Bool(),
		CreatedAt:          r.Get("createdAt").String(),
		UpdatedAt:          r.Get("updatedAt").String(),
	}
}

func normalizeOrderItem(r gjson.Result) OrderItem {
	return OrderItem{
		ID:          r.Get("id").Int(),
		ProductID:   r.Get("productId").Int(),
		ProductName: r.Get("productName").String(),
		Quantity:    int(r.Get("quantity").Int()),
		Price:       r.Get("price").Float(),
		TotalPrice:  r.Get("totalPrice").Float(),
	}
}

func normalizeOrder(r gjson.Result) Order {
	items := r.Get("orderItems")
	if !items.IsArray() {
		items = r.Get("items")
	}
	orderItems := make([]OrderItem, 0)
	if items.IsArray() {
		for _, it := range items.Array() {
			orderItems = append(orderItems, normalizeOrderItem(it))
		}
	}

	total, _ := firstNumber(r, "totalAmount", "total", "totalPrice")

	storeName := r.Get("storeName").String()
	if storeName == "" {
		storeName = unknownStoreName
	}

	return Order{
		ID:                  r.Get("id").Int(),
		UserID:              r.Get("userId").Int(),
		StoreID:             r.Get("storeId").Int(),
		StoreName:           storeName,
		Status:              r.Get("status").String(),
		TotalAmount:         total,
		OrderItems:          orderItems,
		ReservationDateTime: r.Get("reservationDateTime").String(),
		Notes:               firstString(r, "notes", "note"),
		CreatedAt:           r.Get("createdAt").String(),
		UpdatedAt:           r.Get("updatedAt").String(),
	}
}

// normalizeList maps a plain JSON array to a canonical slice. A missing or
// malformed array yields an empty slice, never an error: listing consumers
// must always be able to render "no items".
func normalizeList[T any](raw []byte, norm func(gjson.Result) T) []T {
	out := make([]T, 0)
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsArray() {
		return out
	}
	for _, item := range parsed.Array() {
		out = append(out, norm(item))
	}
	return out
}

// normalizePage maps a paginated backend envelope to the canonical Page. If
// the envelope is absent or content is not an array, it synthesizes a valid
// empty page for the requested page and size instead of propagating a shape
// error.
func normalizePage[T any](raw []byte, page, size int, norm func(gjson.Result) T) Page[T] {
	parsed := gjson.ParseBytes(raw)
	content := parsed.Get("content")
	if !content.IsArray() {
		return emptyPage[T](page, size)
	}

	items := make([]T, 0, len(content.Array()))
	for _, item := range content.Array() {
		items = append(items, norm(item))
	}

	p := Page[T]{
		Content:       items,
		TotalElements: parsed.Get("totalElements").Int(),
		TotalPages:    int(parsed.Get("totalPages").Int()),
		Size:          size,
		Number:        page,
		First:         parsed.Get("first").Bool(),
		Last:          parsed.Get("last").Bool(),
	}
	if v := parsed.Get("size"); v.Exists() {
		p.Size = int(v.Int())
	}
	if v := parsed.Get("number"); v.Exists() {
		p.Number = int(v.Int())
	}
	return p
}

func emptyPage[T any](page, size int) Page[T] {
	return Page[T]{
		Content:       make([]T, 0),
		TotalElements: 0,
		TotalPages:    0,
		Size:          size,
		Number:        page,
		First:         true,
		Last:          true,
	}
}
