package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/foodsave/storefront-client/internal/apierr"
	"github.com/foodsave/storefront-client/internal/logging"
	"github.com/foodsave/storefront-client/internal/token"
)

// maxErrorBody caps how much of an error response is carried into an error
// message.
const maxErrorBody = 4 << 10

// maxResponseBody caps how much of a success response is read.
const maxResponseBody = 8 << 20

// transport executes single-shot JSON requests against the storefront
// backend. It attaches the bearer credential when one is present and
// implements the global 401 policy: any unauthorized response clears the
// session, regardless of which operation triggered it.
type transport struct {
	baseURL string
	client  *http.Client
	tokens  *token.Store
	log     zerolog.Logger
	metrics *clientMetrics

	// onUnauthorized runs before an AuthError is surfaced.
	onUnauthorized func()
}

func (t *transport) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	url := t.baseURL + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &apierr.NetworkError{Op: method + " " + path, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if tok, ok := t.tokens.Current(); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	t.metrics.requests.WithLabelValues(method).Inc()
	t.log.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Msg("request")

	resp, err := t.client.Do(req)
	if err != nil {
		t.log.Warn().Err(err).Str("path", path).Msg("transport failure")
		return nil, &apierr.NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp.Body)
		t.metrics.unauthorized.Inc()
		t.log.Warn().
			Str("path", path).
			Str("token", logging.Redact("token", bearer(req))).
			Msg("credential rejected, clearing session")
		if t.onUnauthorized != nil {
			t.onUnauthorized()
		}
		return nil, &apierr.AuthError{Err: &apierr.HTTPError{StatusCode: resp.StatusCode}}
	}

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &apierr.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &apierr.NetworkError{Op: method + " " + path, Err: err}
	}
	return data, nil
}

func bearer(req *http.Request) string {
	return strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, maxErrorBody))
}
