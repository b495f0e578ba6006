package objstore

import (
	"context"
	"time"
)

// Object describes one listed key. Prefix entries are returned for
// non-recursive listings and have IsPrefix set with a trailing slash key.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
	IsPrefix     bool
}

// Bucket is the object store contract.
type Bucket interface {
	Name() string
	Ping(ctx context.Context) error
	// List returns objects under prefix. Non-recursive listings collapse
	// deeper keys into prefix entries.
	List(ctx context.Context, prefix string, recursive bool) ([]Object, error)
	Stat(ctx context.Context, key string) (Object, error)
	Exists(ctx context.Context, key string) (bool, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
	Remove(ctx context.Context, key string) error
	Upload(ctx context.Context, key, localPath string) error
	Download(ctx context.Context, key, localPath string) error
}
