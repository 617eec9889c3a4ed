package port

import "context"

// Publisher emits trade events to an external stream.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}
