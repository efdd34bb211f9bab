package repositories

import "context"

// KeyValueStore is the durable key/value + ordered-set store the plugin persists into.
// Every method is a single atomic operation against one key.
type KeyValueStore interface {
	// GetObject returns all fields of an object, or an empty map when it does not exist
	GetObject(ctx context.Context, key string) (map[string]string, error)

	// SetObject replaces the whole object stored under key
	SetObject(ctx context.Context, key string, fields map[string]string) error

	// DeleteObject removes an object; deleting a missing key is not an error
	DeleteObject(ctx context.Context, key string) error

	// GetObjectField returns one field, or ErrNotFound
	GetObjectField(ctx context.Context, key, field string) (string, error)

	// SetObjectField sets one field, creating the object if needed
	SetObjectField(ctx context.Context, key, field, value string) error

	// DeleteObjectField removes one field; removing a missing field is not an error
	DeleteObjectField(ctx context.Context, key, field string) error

	// SortedSetAdd adds or re-scores a member
	SortedSetAdd(ctx context.Context, key string, score float64, member string) error

	// SortedSetRemove removes a member; removing a missing member is not an error
	SortedSetRemove(ctx context.Context, key, member string) error

	// SortedSetMembers returns all members in ascending score order
	SortedSetMembers(ctx context.Context, key string) ([]string, error)

	// SortedSetRange returns members by rank, inclusive; stop -1 means the last member
	SortedSetRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error

	// Close releases the backend connection
	Close() error
}
