// Package client is the public surface of the storefront data-access layer.
// It mediates between consumers and the remote storefront REST service:
// single-flight authentication, request deduplication, TTL caching, endpoint
// fallback, and normalization of evolving backend payloads into the canonical
// types below.
package client

import "time"

// User is the canonical identity record. Optional backend fields that reflect
// historical shapes are tri-state: a nil pointer means unknown, not false.
type User struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	FirstName        string `json:"firstName,omitempty"`
	LastName         string `json:"lastName,omitempty"`
	TelegramUserID   string `json:"telegramUserId,omitempty"`
	TelegramUsername string `json:"telegramUsername,omitempty"`
	Role             string `json:"role"`
	Phone            string `json:"phone,omitempty"`
	Active           *bool  `json:"active,omitempty"`
	CreatedAt        string `json:"createdAt,omitempty"`
	UpdatedAt        string `json:"updatedAt,omitempty"`
}

// Store is a canonical store record.
type Store struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Logo         string   `json:"logo,omitempty"`
	Address      string   `json:"address"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Email        string   `json:"email,omitempty"`
	OpeningHours string   `json:"openingHours,omitempty"`
	ClosingHours string   `json:"closingHours,omitempty"`
	Status       string   `json:"status"`
	Category     string   `json:"category,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	ProductCount int      `json:"productCount,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty"`
	UpdatedAt    string   `json:"updatedAt,omitempty"`
}

// Product is a canonical product record.
type Product struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	ImageURL           string   `json:"imageUrl,omitempty"`
	OriginalPrice      float64  `json:"originalPrice"`
	DiscountedPrice    *float64 `json:"discountedPrice,omitempty"`
	DiscountPercentage *float64 `json:"discountPercentage,omitempty"`
	StockQuantity      int      `json:"stockQuantity"`
	ExpirationDate     string   `json:"expirationDate,omitempty"`
	StoreID            int64    `json:"storeId"`
	StoreName          string   `json:"storeName,omitempty"`
	CategoryID         *int64   `json:"categoryId,omitempty"`
	CategoryName       string   `json:"categoryName,omitempty"`
	Status             string   `json:"status"`
	Featured           bool     `json:"featured"`
	CreatedAt          string   `json:"createdAt,omitempty"`
	UpdatedAt          string   `json:"updatedAt,omitempty"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	TotalPrice  float64 `json:"totalPrice"`
}

// Order is a canonical order record. OrderItems is never nil and TotalAmount
// is always resolved, whichever legacy field the backend sent.
type Order struct {
	ID                  int64       `json:"id"`
	UserID              int64       `json:"userId"`
	StoreID             int64       `json:"storeId"`
	StoreName           string      `json:"storeName"`
	Status              string      `json:"status"`
	TotalAmount         float64     `json:"totalAmount"`
	OrderItems          []OrderItem `json:"orderItems"`
	ReservationDateTime string      `json:"reservationDateTime,omitempty"`
	Notes               string      `json:"notes,omitempty"`
	CreatedAt           string      `json:"createdAt,omitempty"`
	UpdatedAt           string      `json:"updatedAt,omitempty"`
}

// Page is the canonical paginated envelope. Content is never nil; callers can
// always treat a listing result as total and iterable.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// Session is the authenticated session. Exactly one exists per Client; it is
// owned by the auth coordinator and destroyed on logout or on any 401.
type Session struct {
	Token         string    `json:"-"`
	User          User      `json:"user"`
	EstablishedAt time.Time `json:"establishedAt"`
}

// ReservationRequest is the input for CreateReservation.
type ReservationRequest struct {
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note,omitempty"`
}

// OrderItemRequest is one line of the legacy CreateOrder input.
type OrderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// OrderRequest is the legacy CreateOrder input, kept for callers that have
// not migrated to CreateReservation. Multi-item submission is unsupported.
type OrderRequest struct {
	StoreID    int64              `json:"storeId"`
	OrderItems []OrderItemRequest `json:"orderItems"`
	Notes      string             `json:"notes,omitempty"`
}
