// Package cache provides the persistent vector cache behind the
// embedding service: memory, disk and layered implementations behind
// one interface. Embedding the same vocabulary terms and the same
// patient wording repeatedly is the common case, so hits dominate
// after warmup.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching raw byte values.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a versioned cache key from its parts (typically provider,
// model and text). Bumping the prefix invalidates every stored vector.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "cephalo:v1:" + hex.EncodeToString(hash[:])
}
