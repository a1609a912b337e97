// ABOUTME: Read-through cache for Toggl taxonomy reads
// ABOUTME: BadgerDB with a TTL so stale client/project lists age out on their own
package toggl

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v3"
)

const cacheTTL = time.Hour

// Cache stores JSON-encoded API responses with a TTL. Expired entries
// fall out on read; create calls invalidate their collection eagerly.
type Cache struct {
	db *badger.DB
}

// OpenCache opens (or creates) the cache at dir.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get loads key into out. The bool reports whether the key was present
// and unexpired.
func (c *Cache) Get(key string, out any) (bool, error) {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode cached value for %s: %w", key, err)
	}
	return true, nil
}

// Set stores val under key with the cache TTL.
func (c *Cache) Set(key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), raw).WithTTL(cacheTTL)
		return txn.SetEntry(entry)
	})
}

// Invalidate drops the given keys.
func (c *Cache) Invalidate(keys ...string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Cache) Close() error {
	return c.db.Close()
}
