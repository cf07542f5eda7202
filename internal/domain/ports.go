package domain

import (
	"context"
	"time"
)

// FetchProvider returns one raw page payload. Errors must be FetchErrors or
// plain errors; plain errors are treated as transport failures.
type FetchProvider interface {
	GetReviews(ctx context.Context, offset, limit int) ([]byte, error)
}

// ImageResolver resolves a resource reference to image bytes.
// A nil result means "use the placeholder" and is never an error.
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) []byte
}

type ReviewRepository interface {
	// Write paths
	UpsertReviews(ctx context.Context, rs []Review) error

	// Read paths
	ListReviews(ctx context.Context, offset, limit int) ([]Review, error)
	CountReviews(ctx context.Context) (int, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// BlobCache stores raw bytes, used as the second image cache tier.
type BlobCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, b []byte, ttl time.Duration) error
}
