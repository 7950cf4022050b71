package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/internhub/internal/config"
)

// StatsCache memoises per-commit line counts. A commit's stats never change,
// so entries can outlive the metrics freshness window.
type StatsCache interface {
	Get(key string) (CommitStats, bool)
	Set(key string, stats CommitStats) error
	Close() error
}

// StatsKey builds the cache key for a commit
func StatsKey(repository, sha string) string {
	return repository + "@" + sha
}

// NewStatsCache builds the backend named by cfg.StatsBackend
func NewStatsCache(cfg config.CacheConfig) (StatsCache, error) {
	switch cfg.StatsBackend {
	case "memory", "":
		return NewMemoryStatsCache(cfg.StatsTTL), nil
	case "bolt":
		return NewBoltStatsCache(filepath.Join(cfg.Directory, "commit_stats.db"))
	case "none":
		return noopStatsCache{}, nil
	default:
		return nil, fmt.Errorf("unknown stats cache backend %q", cfg.StatsBackend)
	}
}

// memoryStatsCache keeps stats in process with expiry
type memoryStatsCache struct {
	cache *gocache.Cache
}

// NewMemoryStatsCache creates an in-process cache; ttl <= 0 means no expiry
func NewMemoryStatsCache(ttl time.Duration) StatsCache {
	if ttl <= 0 {
		return &memoryStatsCache{cache: gocache.New(gocache.NoExpiration, 0)}
	}
	return &memoryStatsCache{cache: gocache.New(ttl, 2*ttl)}
}

func (m *memoryStatsCache) Get(key string) (CommitStats, bool) {
	v, ok := m.cache.Get(key)
	if !ok {
		return CommitStats{}, false
	}
	stats, ok := v.(CommitStats)
	return stats, ok
}

func (m *memoryStatsCache) Set(key string, stats CommitStats) error {
	m.cache.SetDefault(key, stats)
	return nil
}

func (m *memoryStatsCache) Close() error {
	m.cache.Flush()
	return nil
}

const statsBucket = "commit_stats"

var errStatsMiss = errors.New("commit stats not cached")

// boltStatsCache persists stats across restarts in a bbolt file
type boltStatsCache struct {
	db *bolt.DB
}

// NewBoltStatsCache opens (or creates) the bbolt file at path
func NewBoltStatsCache(path string) (StatsCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open stats cache: %w", err)
	}
	return &boltStatsCache{db: db}, nil
}

func (b *boltStatsCache) Get(key string) (CommitStats, bool) {
	var stats CommitStats
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(statsBucket))
		if bucket == nil {
			return errStatsMiss
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return errStatsMiss
		}
		return json.Unmarshal(data, &stats)
	})
	return stats, err == nil
}

func (b *boltStatsCache) Set(key string, stats CommitStats) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(statsBucket))
		if err != nil {
			return err
		}
		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("store commit stats %s: %w", key, err)
	}
	return nil
}

func (b *boltStatsCache) Close() error {
	return b.db.Close()
}

type noopStatsCache struct{}

func (noopStatsCache) Get(string) (CommitStats, bool) { return CommitStats{}, false }
func (noopStatsCache) Set(string, CommitStats) error  { return nil }
func (noopStatsCache) Close() error                   { return nil }
