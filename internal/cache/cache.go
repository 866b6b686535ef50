// Package cache stores review responses so unchanged chapters are not sent
// to the provider twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ppiankov/glosa/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey derives a key from the parts that determine a review answer,
// typically provider, model, chapter title and text
func CacheKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "glosa:v1:" + hex.EncodeToString(hash[:])
}

// FromConfig builds the configured cache, or nil when caching is disabled
func FromConfig(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}

	memoryTTL := time.Duration(cfg.MemoryTTLMinutes) * time.Minute
	if cfg.Dir == "" {
		return NewMemoryCache(memoryTTL, 10*time.Minute)
	}
	diskTTL := time.Duration(cfg.DiskTTLHours) * time.Hour
	return NewLayeredCache(memoryTTL, cfg.Dir, diskTTL)
}
