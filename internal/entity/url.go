// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL, along with its
// associated metadata, and any relevant error definitions.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrShortCodeExists is returned when a store already holds a record under the allocated short code.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
)

// URL represents a shortened URL. Records are immutable once created.
type URL struct {
	ID          int64     // ID is the counter value the short code was encoded from.
	ShortCode   string    // ShortCode is the base62 encoding of ID.
	OriginalURL string    // OriginalURL is the full URL that the short code resolves to.
	ShortURL    string    // ShortURL is the configured base URL followed by ShortCode.
	CreatedAt   time.Time // CreatedAt is the timestamp when the URL was first shortened.
}

// CacheSnapshot describes the contents of the resolve cache.
type CacheSnapshot struct {
	Capacity int
	// Keys are ordered from least to most recently used.
	Keys []string
}
