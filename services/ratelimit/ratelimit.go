// Package ratelimit provides fixed-window request limiting for the API.
package ratelimit

import "context"

// Limiter reports whether the keyed caller may proceed within the current
// window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
