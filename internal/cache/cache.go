// Package cache is the device-local key-value tier of the round store. It is
// durable across restarts and reachable without any network dependency; the
// remote document store is reconciled separately by the store package.
package cache

import "context"

// Adapter is a simple asynchronous get/set by string key. No transactional
// guarantees; the store package is its only writer.
type Adapter interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set upserts the value under key.
	Set(ctx context.Context, key string, value []byte) error
}
