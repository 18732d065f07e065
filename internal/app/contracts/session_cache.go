package contracts

import "context"

// SessionCache is the session-scoped key/value store. Get returns the empty
// string when the key is absent. ClearByPrefix removes every entry whose key
// starts with prefix so one resource type never serves two generations.
type SessionCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
	ClearByPrefix(ctx context.Context, prefix string) error
	PushToList(ctx context.Context, key string, values ...interface{}) error
	GetList(ctx context.Context, key string) ([]string, error)
}
