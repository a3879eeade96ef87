// Package cache stores raw provider payloads on disk, one JSON file per key.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/climate-comfort/internal/domain"
)

// DiskCache is a namespaced, TTL-expiring key/value store. Keys are hashed
// into file names, so any string is a valid key. There is no eviction beyond
// TTL and concurrent writers of the same key are last-writer-wins.
type DiskCache struct {
	dir    string
	ttl    time.Duration
	logger *slog.Logger
}

// entry is the on-disk format.
type entry struct {
	Timestamp *float64        `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New creates the base directory if needed. A ttl of 0 disables expiry.
func New(dir string, ttl time.Duration, logger *slog.Logger) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskCache{dir: dir, ttl: ttl, logger: logger}, nil
}

// Get returns the payload stored under key, or false when it is absent,
// unreadable, malformed, or older than the TTL.
func (c *DiskCache) Get(namespace, key string) (json.RawMessage, bool) {
	e, ok := c.read(namespace, key)
	if !ok {
		return nil, false
	}
	if c.expired(*e.Timestamp) {
		return nil, false
	}
	return e.Data, true
}

// GetStale is Get without the TTL check. Providers use it when the remote
// call failed and an old payload beats no payload.
func (c *DiskCache) GetStale(namespace, key string) (json.RawMessage, bool) {
	e, ok := c.read(namespace, key)
	if !ok {
		return nil, false
	}
	return e.Data, true
}

// Set stores data under key, stamped with the current time.
func (c *DiskCache) Set(namespace, key string, data json.RawMessage) error {
	path := c.pathFor(namespace, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create namespace dir: %w", err)
	}

	ts := float64(domain.Now().UnixNano()) / float64(time.Second)
	payload, err := json.Marshal(entry{Timestamp: &ts, Data: data})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Path returns the file a key is stored in. Exposed for tooling that seeds
// or inspects the cache.
func (c *DiskCache) Path(namespace, key string) string {
	return c.pathFor(namespace, key)
}

func (c *DiskCache) read(namespace, key string) (entry, bool) {
	path := c.pathFor(namespace, key)
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("cache read failed", "namespace", namespace, "path", path, "error", err)
		}
		return entry{}, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Debug("cache entry malformed", "namespace", namespace, "path", path, "error", err)
		return entry{}, false
	}
	if e.Timestamp == nil || len(e.Data) == 0 || string(e.Data) == "null" {
		c.logger.Debug("cache entry incomplete", "namespace", namespace, "path", path)
		return entry{}, false
	}
	return e, true
}

func (c *DiskCache) expired(ts float64) bool {
	if c.ttl <= 0 {
		return false
	}
	written := time.Unix(0, int64(ts*float64(time.Second)))
	return domain.Now().Sub(written) > c.ttl
}

func (c *DiskCache) pathFor(namespace, key string) string {
	safe := strings.ReplaceAll(namespace, "/", "_")
	return filepath.Join(c.dir, safe, Fingerprint(key)+".json")
}

// Fingerprint is the SHA-256 hex digest of key.
func Fingerprint(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}
