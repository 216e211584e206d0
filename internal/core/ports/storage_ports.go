package ports

import "context"

// Store is the durable client-side key-value state shared by the lockout
// guard and the ballot session. Implementations must survive process
// restarts; the in-memory adapter exists for tests and degraded operation.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
