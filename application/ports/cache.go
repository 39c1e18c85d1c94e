package ports

import "context"

// ListCache is the ordered-list half of the cache backend. Values are UTF-8
// JSON records carrying an _id field.
type ListCache interface {
	// Push appends (atEnd) or prepends a value. No uniqueness check is made.
	Push(ctx context.Context, key string, value []byte, atEnd bool) error

	// Range returns the elements in [start, stop], inclusive on both ends
	Range(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	// Len returns the list length, 0 when the list does not exist
	Len(ctx context.Context, key string) (int64, error)

	// All returns the entire list in stored order
	All(ctx context.Context, key string) ([][]byte, error)

	// ReplaceByID overwrites the slot whose _id equals id, keeping its index.
	// No match is a CACHE_CONSISTENCY error.
	ReplaceByID(ctx context.Context, key, id string, value []byte) error

	// RemoveByID removes exactly one element whose _id equals id.
	// No match is a CACHE_CONSISTENCY error.
	RemoveByID(ctx context.Context, key, id string) error

	// Hydrate atomically replaces the list with values and sets its
	// hydration marker
	Hydrate(ctx context.Context, key string, values [][]byte) error

	// Hydrated reports whether the list has been populated from the store
	Hydrated(ctx context.Context, key string) (bool, error)

	// Drop deletes the list and its marker
	Drop(ctx context.Context, key string) error
}

// PointCache is the key/value half of the cache backend
type PointCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error

	// Delete is a no-op when the key is absent
	Delete(ctx context.Context, key string) error
}

// ReleaseFunc gives up a lock obtained from a HydrationLocker
type ReleaseFunc func(ctx context.Context) error

// HydrationLocker provides a mutual-exclusion token keyed by name. Acquire
// blocks until the lock is held or ctx is done.
type HydrationLocker interface {
	Acquire(ctx context.Context, name string) (ReleaseFunc, error)
}

// Pinger is implemented by backends that can report readiness
type Pinger interface {
	Ping(ctx context.Context) error
}
