package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwell/inkwell-server/internal/errors"
)

const (
	cachePrefix = "rec:v2:"

	// DefaultTTL is how long a computed bundle stays valid.
	DefaultTTL = 24 * time.Hour
)

// CacheOptions configures a Cache.
type CacheOptions struct {
	// Path is the Badger directory. Empty opens an in-memory cache.
	Path   string
	TTL    time.Duration
	Now    func() time.Time
	Logger *slog.Logger
}

// Cache stores computed bundles per user.
//
// Freshness is judged against computed_at with the injected clock; Badger's
// own TTL only reclaims space for entries nobody reads again.
type Cache struct {
	db     *badger.DB
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

type cacheEntry struct {
	ComputedAt time.Time `json:"computed_at"`
	Bundle     *Bundle   `json:"bundle"`
}

// OpenCache opens the Badger-backed cache.
func OpenCache(opts CacheOptions) (*Cache, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" {
		bopts = bopts.WithInMemory(true)
	}
	bopts.Logger = nil
	bopts.CompactL0OnClose = true

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open recommendation cache: %w", err)
	}

	c := &Cache{db: db, ttl: opts.TTL, now: opts.Now, logger: opts.Logger}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// TTL returns the validity window of an entry.
func (c *Cache) TTL() time.Duration { return c.ttl }

func cacheKey(userID string) []byte {
	return []byte(cachePrefix + userID)
}

// Get returns the user's bundle and the time it was computed. An entry at or
// past its TTL is reported as absent.
func (c *Cache) Get(_ context.Context, userID string) (*Bundle, time.Time, bool, error) {
	var entry cacheEntry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("read cached recommendations: %w", err)
	}

	if c.now().Sub(entry.ComputedAt) >= c.ttl || entry.Bundle == nil {
		return nil, time.Time{}, false, nil
	}
	return entry.Bundle, entry.ComputedAt, true, nil
}

// Set stores b as computed now. Concurrent writers for one user race; the
// last write wins.
func (c *Cache) Set(_ context.Context, userID string, b *Bundle) error {
	data, err := json.Marshal(cacheEntry{ComputedAt: c.now(), Bundle: b})
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(cacheKey(userID), data).WithTTL(c.ttl))
	})
}

// Invalidate drops the user's entry. Dropping a missing entry is not an error.
func (c *Cache) Invalidate(_ context.Context, userID string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(cacheKey(userID))
	})
	if err != nil {
		return fmt.Errorf("invalidate recommendations: %w", err)
	}
	c.logger.Debug("recommendation cache invalidated", "user_id", userID)
	return nil
}
