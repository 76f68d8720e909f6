package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/foodsave/storefront-client/internal/apierr"
	"github.com/foodsave/storefront-client/internal/dedup"
	"github.com/foodsave/storefront-client/internal/logging"
)

const (
	authPath     = "/auth/telegram"
	identityPath = "/auth/me"

	// authFlightKey collapses every concurrent authentication attempt into
	// one, whatever init data each caller holds.
	authFlightKey = "auth:session"
)

// identityCacheKey matches the read-through key of the identity operation so
// a fresh authentication warms the same cache slot CurrentUser reads.
var identityCacheKey = dedup.Key(http.MethodGet, identityPath, nil)

// authCoordinator owns the session lifecycle: Anonymous -> Authenticating ->
// Authenticated, back to Anonymous on logout or any credential rejection.
// Establishment is expensive on the backend, so it is single-flight and
// throttled.
type authCoordinator struct {
	c       *Client
	log     zerolog.Logger
	limiter *rate.Limiter
}

func newAuthCoordinator(c *Client, log zerolog.Logger) *authCoordinator {
	limit := rate.Inf
	if c.cfg.AuthThrottle > 0 {
		limit = rate.Every(c.cfg.AuthThrottle)
	}
	return &authCoordinator{
		c:       c,
		log:     log,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// authenticate validates input, then joins or starts the single
// authentication flight. Every waiter observes the same outcome.
func (a *authCoordinator) authenticate(ctx context.Context, initData string) (Session, error) {
	if strings.TrimSpace(initData) == "" {
		return Session{}, apierr.NewValidation("initData", "must not be blank")
	}

	v, _, err := a.c.flights.Do(ctx, authFlightKey, func(ctx context.Context) (any, error) {
		return a.establish(ctx, initData)
	})
	if err != nil {
		return Session{}, err
	}
	return v.(Session), nil
}

// establish runs inside the auth flight. A held credential is verified via
// the identity endpoint before any re-authentication; only when that fails is
// the credential cleared and a fresh authentication issued.
func (a *authCoordinator) establish(ctx context.Context, initData string) (Session, error) {
	if tok, ok := a.c.tokens.Current(); ok {
		user, err := a.fetchIdentity(ctx)
		if err == nil {
			return Session{Token: tok, User: user, EstablishedAt: a.establishedAt()}, nil
		}
		a.log.Warn().Err(err).Msg("session verification failed, re-authenticating")
		a.c.tokens.Clear()
	}

	if !a.limiter.Allow() {
		return Session{}, apierr.ErrAuthThrottled
	}

	body, err := json.Marshal(map[string]string{"initData": initData})
	if err != nil {
		return Session{}, fmt.Errorf("marshal auth request: %w", err)
	}

	authCtx := ctx
	if a.c.cfg.AuthTimeout > 0 {
		var cancel context.CancelFunc
		authCtx, cancel = context.WithTimeout(ctx, a.c.cfg.AuthTimeout)
		defer cancel()
	}

	raw, err := a.c.tr.do(authCtx, http.MethodPost, authPath, body)
	if err != nil {
		a.c.tokens.Clear()
		return Session{}, err
	}

	parsed := gjson.ParseBytes(raw)
	// The server has returned the credential as accessToken and, earlier,
	// as token. Accept both.
	tok := firstString(parsed, "accessToken", "token")
	if tok == "" {
		a.c.tokens.Clear()
		return Session{}, fmt.Errorf("authenticate: response carried no access token")
	}
	a.c.tokens.Set(tok)

	user := normalizeUser(parsed.Get("user"))
	if data, merr := json.Marshal(user); merr == nil {
		a.c.cache.Set(identityCacheKey, data, a.c.cfg.TTL.Identity)
	}

	a.log.Info().
		Str("token", logging.Redact("token", tok)).
		Int64("user_id", user.ID).
		Msg("session established")
	return Session{Token: tok, User: user, EstablishedAt: time.Now()}, nil
}

// currentUser serves the identity through the ordinary read pipeline.
func (a *authCoordinator) currentUser(ctx context.Context, opts readOptions) (User, error) {
	return readThrough(ctx, a.c, readOp{
		path:         identityPath,
		ttl:          a.c.cfg.TTL.Identity,
		authRequired: true,
		opts:         opts,
	}, entityNorm("identity", normalizeUser))
}

// logout clears the session unconditionally and drops cached data that
// belonged to it.
func (a *authCoordinator) logout() {
	a.c.tokens.Clear()
	a.c.cache.Invalidate(identityCacheKey)
	a.c.cache.Invalidate(ordersCachePrefix)
	a.log.Info().Msg("session cleared")
}

// fetchIdentity bypasses the cache: verification needs a real round trip.
func (a *authCoordinator) fetchIdentity(ctx context.Context) (User, error) {
	raw, err := a.c.tr.do(ctx, http.MethodGet, identityPath, nil)
	if err != nil {
		return User{}, err
	}
	user, err := entityNorm("identity", normalizeUser)(raw)
	if err != nil {
		return User{}, err
	}
	if data, merr := json.Marshal(user); merr == nil {
		a.c.cache.Set(identityCacheKey, data, a.c.cfg.TTL.Identity)
	}
	return user, nil
}

// establishedAt prefers the credential's issued-at claim when the token is a
// parseable JWT; otherwise the session is dated now.
func (a *authCoordinator) establishedAt() time.Time {
	if claims, ok := a.c.tokens.Claims(); ok {
		if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
			return iat.Time
		}
	}
	return time.Now()
}
