package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/foodsave/storefront-client/internal/apierr"
	"github.com/foodsave/storefront-client/internal/cache"
	"github.com/foodsave/storefront-client/internal/dedup"
	"github.com/foodsave/storefront-client/internal/logging"
	"github.com/foodsave/storefront-client/internal/retry"
	"github.com/foodsave/storefront-client/internal/token"
)

// ordersCachePrefix covers every cached order read; writes invalidate it.
const ordersCachePrefix = "GET:/orders"

// Client is the data-access facade. One operation per use case; every read
// composes auth check, deduplication, TTL cache, transport, failure policy,
// and normalization. Writes bypass the cache and invalidate related listings.
type Client struct {
	cfg     Config
	tr      *transport
	cache   *cache.Cache
	flights *dedup.Group
	tokens  *token.Store
	metrics *clientMetrics
	auth    *authCoordinator
}

// New creates a storefront client. State is process-scoped and injected, not
// ambient: the credential store and cache belong to this Client.
func New(cfg Config) (*Client, error) {
	cfg = cfg.normalized()

	log := logging.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	var tokens *token.Store
	switch {
	case cfg.DisableTokenPersistence:
		tokens = token.NewStoreAt("")
	case cfg.TokenPath != "":
		tokens = token.NewStoreAt(cfg.TokenPath)
	default:
		tokens = token.NewStore()
	}

	metrics := newClientMetrics(cfg.Registerer)

	c := &Client{
		cfg:     cfg,
		cache:   cache.New(),
		flights: dedup.New(),
		tokens:  tokens,
		metrics: metrics,
	}
	c.tr = &transport{
		baseURL: cfg.BaseURL,
		client:  httpClient,
		tokens:  tokens,
		log:     log,
		metrics: metrics,
		// 401 from any operation destroys the session, not just auth ones.
		onUnauthorized: tokens.Clear,
	}
	c.auth = newAuthCoordinator(c, log)
	return c, nil
}

// =============================================================================
// Read options
// =============================================================================

type readOptions struct {
	force bool
	retry bool
}

// ReadOption adjusts a single read operation.
type ReadOption func(*readOptions)

// ForceRefresh bypasses the cache freshness check; the refreshed result is
// still stored.
func ForceRefresh() ReadOption {
	return func(o *readOptions) { o.force = true }
}

// WithRetry opts the operation into the bounded linear-backoff retry for
// retriable failures (transport errors, 429, 5xx).
func WithRetry() ReadOption {
	return func(o *readOptions) { o.retry = true }
}

func applyOptions(opts []ReadOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// =============================================================================
// Read pipeline
// =============================================================================

type readOp struct {
	path         string
	fallbackPath string
	ttl          time.Duration
	authRequired bool
	opts         readOptions
}

// readThrough is the composed read path: dedup wraps the cache read-through
// and the fetch, so concurrent identical calls share one outcome and at most
// one transport call refreshes a cold key. The cache holds the normalized
// result as JSON.
func readThrough[T any](ctx context.Context, c *Client, op readOp, norm func([]byte) (T, error)) (T, error) {
	var zero T
	if op.authRequired {
		if _, ok := c.tokens.Current(); !ok {
			return zero, apierr.ErrNotAuthenticated
		}
	}

	key := dedup.Key(http.MethodGet, op.path, nil)
	v, shared, err := c.flights.Do(ctx, key, func(ctx context.Context) (any, error) {
		fetch := func(ctx context.Context) (any, error) {
			raw, ferr := c.fetchWithFallback(ctx, op)
			if ferr != nil {
				return nil, ferr
			}
			return norm(raw)
		}

		var data []byte
		var cerr error
		if op.opts.force {
			c.metrics.cacheMisses.Inc()
			data, cerr = c.cache.Refresh(ctx, key, op.ttl, fetch)
		} else {
			var hit bool
			data, hit, cerr = c.cache.GetOrFetch(ctx, key, op.ttl, fetch)
			if cerr == nil {
				if hit {
					c.metrics.cacheHits.Inc()
				} else {
					c.metrics.cacheMisses.Inc()
				}
			}
		}
		if cerr != nil {
			return nil, cerr
		}

		var out T
		if uerr := json.Unmarshal(data, &out); uerr != nil {
			return nil, fmt.Errorf("decode cached %s: %w", op.path, uerr)
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	if shared {
		c.metrics.dedupShared.Inc()
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected shared result type %T", v)
	}
	return out, nil
}

func (c *Client) fetchWithFallback(ctx context.Context, op readOp) ([]byte, error) {
	fetch := func(ctx context.Context) ([]byte, error) {
		raw, err := c.tr.do(ctx, http.MethodGet, op.path, nil)
		if err == nil || op.fallbackPath == "" {
			return raw, err
		}
		c.metrics.fallbacks.Inc()
		return c.tr.do(ctx, http.MethodGet, op.fallbackPath, nil)
	}

	if !op.opts.retry {
		return fetch(ctx)
	}
	var raw []byte
	err := retry.Do(ctx, retry.Config{
		MaxAttempts: c.cfg.Retry.MaxAttempts,
		BaseDelay:   c.cfg.Retry.BaseDelay,
	}, func(ctx context.Context) error {
		var ferr error
		raw, ferr = fetch(ctx)
		return ferr
	})
	return raw, err
}

// =============================================================================
// Normalization adapters
// =============================================================================

func listNorm[T any](norm func(gjson.Result) T) func([]byte) ([]T, error) {
	return func(raw []byte) ([]T, error) {
		return normalizeList(raw, norm), nil
	}
}

func pageNorm[T any](page, size int, norm func(gjson.Result) T) func([]byte) (Page[T], error) {
	return func(raw []byte) (Page[T], error) {
		return normalizePage(raw, page, size, norm), nil
	}
}

func entityNorm[T any](what string, norm func(gjson.Result) T) func([]byte) (T, error) {
	return func(raw []byte) (T, error) {
		var zero T
		if !gjson.ValidBytes(raw) {
			return zero, apierr.NewPayload(what)
		}
		parsed := gjson.ParseBytes(raw)
		if !parsed.IsObject() {
			return zero, apierr.NewPayload(what)
		}
		return norm(parsed), nil
	}
}

// =============================================================================
// Store operations
// =============================================================================

// ActiveStores lists stores currently accepting reservations.
func (c *Client) ActiveStores(ctx context.Context, opts ...ReadOption) ([]Store, error) {
	return readThrough(ctx, c, readOp{
		path: "/stores/active",
		ttl:  c.cfg.TTL.Stores,
		opts: applyOptions(opts),
	}, listNorm(normalizeStore))
}

// StoreByID fetches a single store.
func (c *Client) StoreByID(ctx context.Context, id int64, opts ...ReadOption) (Store, error) {
	if id <= 0 {
		return Store{}, apierr.NewValidation("storeId", "must be positive")
	}
	return readThrough(ctx, c, readOp{
		path: fmt.Sprintf("/stores/%d", id),
		ttl:  c.cfg.TTL.Stores,
		opts: applyOptions(opts),
	}, entityNorm("store", normalizeStore))
}

// =============================================================================
// Product operations
// =============================================================================

func (c *Client) clampPage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = c.cfg.PageSize
	}
	if size > c.cfg.MaxPageSize {
		size = c.cfg.MaxPageSize
	}
	return page, size
}

// Products lists all products, paginated.
func (c *Client) Products(ctx context.Context, page, size int, opts ...ReadOption) (Page[Product], error) {
	page, size = c.clampPage(page, size)
	return readThrough(ctx, c, readOp{
		path: fmt.Sprintf("/products?page=%d&size=%d", page, size),
		ttl:  c.cfg.TTL.Products,
		opts: applyOptions(opts),
	}, pageNorm(page, size, normalizeProduct))
}

// ProductsByStore lists one store's products, paginated.
func (c *Client) ProductsByStore(ctx context.Context, storeID int64, page, size int, opts ...ReadOption) (Page[Product], error) {
	if storeID <= 0 {
		return Page[Product]{}, apierr.NewValidation("storeId", "must be positive")
	}
	page, size = c.clampPage(page, size)
	return readThrough(ctx, c, readOp{
		path: fmt.Sprintf("/products/store/%d?page=%d&size=%d", storeID, page, size),
		ttl:  c.cfg.TTL.Products,
		opts: applyOptions(opts),
	}, pageNorm(page, size, normalizeProduct))
}

// ProductByID fetches a single product.
func (c *Client) ProductByID(ctx context.Context, id int64, opts ...ReadOption) (Product, error) {
	if id <= 0 {
		return Product{}, apierr.NewValidation("productId", "must be positive")
	}
	return readThrough(ctx, c, readOp{
		path: fmt.Sprintf("/products/%d", id),
		ttl:  c.cfg.TTL.Products,
		opts: applyOptions(opts),
	}, entityNorm("product", normalizeProduct))
}

// FeaturedProducts lists featured products. On any failure of the featured
// endpoint the result is served by the all-products listing with the same
// pagination; the caller cannot tell which endpoint answered except by
// content.
func (c *Client) FeaturedProducts(ctx context.Context, page, size int, opts ...ReadOption) (Page[Product], error) {
	page, size = c.clampPage(page, size)
	return readThrough(ctx, c, readOp{
		path:         fmt.Sprintf("/products/featured?page=%d&size=%d", page, size),
		fallbackPath: fmt.Sprintf("/products?page=%d&size=%d", page, size),
		ttl:          c.cfg.TTL.Featured,
		opts:         applyOptions(opts),
	}, pageNorm(page, size, normalizeProduct))
}

// =============================================================================
// Order operations
// =============================================================================

// MyOrders lists the authenticated user's orders.
func (c *Client) MyOrders(ctx context.Context, opts ...ReadOption) ([]Order, error) {
	return readThrough(ctx, c, readOp{
		path:         "/orders/my-orders",
		ttl:          c.cfg.TTL.Orders,
		authRequired: true,
		opts:         applyOptions(opts),
	}, listNorm(normalizeOrder))
}

// OrderByID fetches a single order of the authenticated user.
func (c *Client) OrderByID(ctx context.Context, id int64, opts ...ReadOption) (Order, error) {
	if id <= 0 {
		return Order{}, apierr.NewValidation("orderId", "must be positive")
	}
	return readThrough(ctx, c, readOp{
		path:         fmt.Sprintf("/orders/%d", id),
		ttl:          c.cfg.TTL.Orders,
		authRequired: true,
		opts:         applyOptions(opts),
	}, entityNorm("order", normalizeOrder))
}

// defaultReservationNote fills the note when the caller leaves it empty, so
// the backend always receives a non-blank origin marker.
const defaultReservationNote = "Reserved via mini app"

// CreateReservation reserves a product. The request body is part of the
// deduplication key, so two sequential identical submissions are two real
// network calls; only genuinely concurrent duplicates collapse.
func (c *Client) CreateReservation(ctx context.Context, req ReservationRequest) (Order, error) {
	if _, ok := c.tokens.Current(); !ok {
		return Order{}, apierr.ErrNotAuthenticated
	}
	if req.ProductID <= 0 {
		return Order{}, apierr.NewValidation("productId", "must be positive")
	}
	if req.Quantity <= 0 {
		return Order{}, apierr.NewValidation("quantity", "must be positive")
	}
	if req.Note == "" {
		req.Note = defaultReservationNote
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Order{}, fmt.Errorf("marshal reservation: %w", err)
	}

	const path = "/miniapp/reservations"
	key := dedup.Key(http.MethodPost, path, body)
	v, _, err := c.flights.Do(ctx, key, func(ctx context.Context) (any, error) {
		raw, terr := c.tr.do(ctx, http.MethodPost, path, body)
		if terr != nil {
			return nil, terr
		}
		order, nerr := entityNorm("reservation", normalizeOrder)(raw)
		if nerr != nil {
			return nil, nerr
		}
		c.cache.Invalidate(ordersCachePrefix)
		return order, nil
	})
	if err != nil {
		return Order{}, err
	}
	return v.(Order), nil
}

// CreateOrder is the legacy order-submission adapter. The reservation
// endpoint accepts a single product, so multi-item submissions are rejected
// rather than silently truncated to their first item.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	switch len(req.OrderItems) {
	case 0:
		return Order{}, apierr.NewValidation("orderItems", "must not be empty")
	case 1:
	default:
		return Order{}, apierr.NewValidation("orderItems", "multi-item orders are not supported; submit one reservation per product")
	}
	item := req.OrderItems[0]
	return c.CreateReservation(ctx, ReservationRequest{
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Note:      req.Notes,
	})
}

// =============================================================================
// Session operations
// =============================================================================

// Authenticate establishes (or verifies) the session from Telegram init data.
func (c *Client) Authenticate(ctx context.Context, initData string) (Session, error) {
	return c.auth.authenticate(ctx, initData)
}

// CurrentUser returns the authenticated identity.
func (c *Client) CurrentUser(ctx context.Context, opts ...ReadOption) (User, error) {
	return c.auth.currentUser(ctx, applyOptions(opts))
}

// Logout destroys the session. It always succeeds.
func (c *Client) Logout() {
	c.auth.logout()
}

// Authenticated reports whether a credential is currently held.
func (c *Client) Authenticated() bool {
	_, ok := c.tokens.Current()
	return ok
}
