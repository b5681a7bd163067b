package ports

import "context"

// CartStore holds one serialized cart per key. Load returns a nil payload
// when nothing was stored.
type CartStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
}
