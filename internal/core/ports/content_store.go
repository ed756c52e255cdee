package ports

import (
	"context"
	"time"
)

// ContentStore is durable blob storage keyed by path. Put must not return
// before the object is durably stored; SaveRender relies on that ordering.
type ContentStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
