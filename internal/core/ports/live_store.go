package ports

import "context"

// LiveStore serializes the mutating operations that touch the same asset.
// Acquire blocks until the key's exclusive section is free or the context
// is done, then returns the release function.
type LiveStore interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
	Close()
}
