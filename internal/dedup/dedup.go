// Package dedup collapses concurrent identical requests into a single
// execution. Callers that join while a call for the same key is in flight
// observe the shared outcome; the key is released on both success and failure
// so the next call always re-issues.
package dedup

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Group deduplicates in-flight calls by request key.
type Group struct {
	sf singleflight.Group
}

// New creates an empty group.
func New() *Group {
	return &Group{}
}

// Do executes fn for key, or joins an identical in-flight call. The boolean
// result reports whether the outcome was shared with at least one other
// caller.
func (g *Group) Do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, bool, error) {
	v, err, shared := g.sf.Do(key, func() (any, error) {
		return fn(ctx)
	})
	return v, shared, err
}

// Key derives the deduplication key for a logical network operation. Two
// calls with the same method, path, and serialized body during overlapping
// execution are the same operation.
func Key(method, path string, body []byte) string {
	return fmt.Sprintf("%s:%s:%s", method, path, body)
}
