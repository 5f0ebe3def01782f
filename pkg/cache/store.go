package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/townsquared/community-client/pkg/storage"
)

// ErrCacheMiss indicates no valid entry exists for the requested key.
var ErrCacheMiss = errors.New("cache miss")

// Store is the TTL response cache. It is best-effort by contract: a
// failing storage backend degrades to misses and dropped writes, never
// to an error surfaced to the originating request.
//
// A Store is intended to live for the process lifetime and be shared by
// all in-flight requests; construct isolated instances in tests.
type Store struct {
	storage storage.Storage
	logger  zerolog.Logger

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewStore creates a cache store on top of the given storage backend.
func NewStore(st storage.Storage, logger zerolog.Logger) *Store {
	if st == nil {
		panic("storage cannot be nil")
	}
	return &Store{
		storage: st,
		logger:  logger.With().Str("component", "cache").Logger(),
		now:     time.Now,
	}
}

// Get returns the cached payload for key, or ErrCacheMiss.
// Reading an expired entry deletes it as a side effect (lazy eviction);
// corrupt entries are treated the same way. Storage failures are logged
// and reported as misses.
func (s *Store) Get(ctx context.Context, key Key) (json.RawMessage, error) {
	storageKey := key.StorageKey()

	raw, err := s.storage.Get(ctx, storageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			cacheErrors.WithLabelValues("get").Inc()
			s.logger.Warn().Err(err).Str("key", storageKey).Msg("Cache read failed")
		}
		cacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		s.logger.Warn().Err(err).Str("key", storageKey).Msg("Corrupt cache entry, evicting")
		s.evict(ctx, storageKey)
		cacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	if entry.IsExpired(s.now()) {
		s.logger.Debug().
			Str("key", storageKey).
			Time("stored_at", entry.StoredAt).
			Dur("ttl", entry.TTL).
			Msg("Cache entry expired, evicting")
		s.evict(ctx, storageKey)
		cacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	cacheHits.Inc()
	return entry.Data, nil
}

// Set stores data under key with the given validity window, overwriting
// any existing entry. Writes are best-effort: failures are logged and
// swallowed so a cache problem never fails the originating request.
func (s *Store) Set(ctx context.Context, key Key, data json.RawMessage, ttl time.Duration) {
	storageKey := key.StorageKey()

	entry := Entry{
		Data:     data,
		StoredAt: s.now(),
		TTL:      ttl,
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		s.logger.Warn().Err(err).Str("key", storageKey).Msg("Cache entry marshal failed")
		return
	}

	if err := s.storage.Set(ctx, storageKey, string(raw)); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		s.logger.Warn().Err(err).Str("key", storageKey).Msg("Cache write failed")
		return
	}

	s.logger.Debug().Str("key", storageKey).Dur("ttl", ttl).Msg("Cached response")
}

// Remove deletes the entry for key. Best-effort.
func (s *Store) Remove(ctx context.Context, key Key) {
	storageKey := key.StorageKey()
	if err := s.storage.Delete(ctx, storageKey); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		s.logger.Warn().Err(err).Str("key", storageKey).Msg("Cache delete failed")
	}
}

// Clear deletes every cache record under the namespace. Best-effort.
func (s *Store) Clear(ctx context.Context) {
	keys, err := s.storage.Keys(ctx, Namespace)
	if err != nil {
		cacheErrors.WithLabelValues("clear").Inc()
		s.logger.Warn().Err(err).Msg("Cache clear failed to list keys")
		return
	}

	for _, storageKey := range keys {
		if err := s.storage.Delete(ctx, storageKey); err != nil {
			cacheErrors.WithLabelValues("clear").Inc()
			s.logger.Warn().Err(err).Str("key", storageKey).Msg("Cache clear failed to delete key")
		}
	}

	s.logger.Info().Int("entries", len(keys)).Msg("Cache cleared")
}

// Size returns the number of physical cache records, expired or not.
// Diagnostic only; there is no capacity bound to enforce.
func (s *Store) Size(ctx context.Context) int {
	keys, err := s.storage.Keys(ctx, Namespace)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Cache size query failed")
		return 0
	}
	return len(keys)
}

// Has reports whether a physical record exists for key, ignoring
// expiry. Diagnostic only; freshness decisions must go through Get.
func (s *Store) Has(ctx context.Context, key Key) bool {
	_, err := s.storage.Get(ctx, key.StorageKey())
	return err == nil
}

// evict physically deletes a record during a side-effecting read.
func (s *Store) evict(ctx context.Context, storageKey string) {
	if err := s.storage.Delete(ctx, storageKey); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		s.logger.Warn().Err(err).Str("key", storageKey).Msg("Cache eviction failed")
		return
	}
	cacheEvictions.Inc()
}
