// Package certcache keeps downloaded signing certificates keyed by their source URL.
package certcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrNotFound is returned by a Store when no entry exists for a key
var ErrNotFound = errors.New("cache entry not found")

// ErrNotListable is returned when the backing store cannot enumerate its keys
var ErrNotListable = errors.New("cache store does not support listing")

// Store is a key/value backend for certificate bytes
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
	Delete(key string) error
}

// Lister is implemented by stores that can enumerate their keys
type Lister interface {
	Keys() ([]string, error)
}

// Key derives the storage key for a certificate URL
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
