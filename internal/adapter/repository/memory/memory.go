// Package memory provides the in-process authoritative store of shortened URLs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vadimbarashkov/lru-shortener/internal/entity"
)

type encoder interface {
	Encode(n uint64) string
}

type allocator interface {
	Next() int64
}

// KeyStore is an append-only bidirectional mapping between short codes and original URLs.
//
// For every (code, url) in byCode, (url.OriginalURL, code) is in byURL and vice versa.
// Both maps are only written by GetOrCreate under mu.
type KeyStore struct {
	mu     sync.RWMutex
	enc    encoder
	seq    allocator
	byCode map[string]*entity.URL
	byURL  map[string]string
	now    func() time.Time
}

func NewKeyStore(enc encoder, seq allocator) *KeyStore {
	return &KeyStore{
		enc:    enc,
		seq:    seq,
		byCode: make(map[string]*entity.URL),
		byURL:  make(map[string]string),
		now:    time.Now,
	}
}

// GetOrCreate returns the record for originalURL, creating it on first use.
// The counter advances exactly once per distinct URL.
func (s *KeyStore) GetOrCreate(_ context.Context, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.memory.KeyStore.GetOrCreate"

	s.mu.RLock()
	url, ok := s.lookupByURL(originalURL)
	s.mu.RUnlock()
	if ok {
		return url, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another writer may have won between the two locks.
	if url, ok := s.lookupByURL(originalURL); ok {
		return url, nil
	}

	id := s.seq.Next()
	if id < 0 {
		return nil, fmt.Errorf("%s: allocator returned negative id %d", op, id)
	}

	code := s.enc.Encode(uint64(id))
	if _, exists := s.byCode[code]; exists {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	url = &entity.URL{
		ID:          id,
		ShortCode:   code,
		OriginalURL: originalURL,
		CreatedAt:   s.now().UTC(),
	}
	s.byCode[code] = url
	s.byURL[originalURL] = code

	return url, nil
}

// Lookup returns the record for shortCode or entity.ErrURLNotFound.
func (s *KeyStore) Lookup(_ context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.memory.KeyStore.Lookup"

	s.mu.RLock()
	defer s.mu.RUnlock()

	url, ok := s.byCode[shortCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return url, nil
}

// Len returns the number of stored records.
func (s *KeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.byCode)
}

func (s *KeyStore) lookupByURL(originalURL string) (*entity.URL, bool) {
	code, ok := s.byURL[originalURL]
	if !ok {
		return nil, false
	}
	return s.byCode[code], true
}
