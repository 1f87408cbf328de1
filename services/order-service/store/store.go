// Package store is the durable key-value area shared by every instance of
// the service. Values are opaque byte blobs; writers overwrite whole values
// and watchers are told about the latest value of a key.
package store

import (
	"context"
	"errors"
	"strings"
)

// Well-known keys. The names are shared with existing persisted data.
const (
	KeyOrders       = "restaurantOrders"
	KeyLastUpdate   = "lastOrderUpdate"
	KeyRestaurants  = "restaurant_system_data"
	KeyTablesPrefix = "restaurantTables:"
)

// TablesKey is the key holding one tenant's table layout.
func TablesKey(restaurantID string) string {
	return KeyTablesPrefix + restaurantID
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Store is a shared, unlocked key-value store with a change feed.
type Store interface {
	// Get returns nil, nil when the key has never been written.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites the value and notifies watchers of key.
	Set(ctx context.Context, key string, value []byte) error
	// Watch streams new values of key until ctx is done, then closes the
	// channel. The channel holds a single pending value: a slow reader only
	// ever sees the most recent write.
	Watch(ctx context.Context, key string) (<-chan []byte, error)
	Close() error
}

// KeyLister is implemented by stores that can enumerate keys by prefix.
type KeyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// offer puts v into a one-slot channel, replacing any unread value.
func offer(ch chan []byte, v []byte) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func hasPrefix(key, prefix string) bool {
	return prefix == "" || strings.HasPrefix(key, prefix)
}
