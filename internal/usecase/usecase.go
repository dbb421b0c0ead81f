package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vadimbarashkov/lru-shortener/internal/entity"
	"github.com/vadimbarashkov/lru-shortener/internal/metrics"
	"github.com/vadimbarashkov/lru-shortener/pkg/lru"
)

// DefaultCacheCapacity is the number of resolved URLs kept in memory when no capacity is configured.
const DefaultCacheCapacity = 5

type urlRepository interface {
	GetOrCreate(ctx context.Context, originalURL string) (*entity.URL, error)
	Lookup(ctx context.Context, shortCode string) (*entity.URL, error)
}

type options struct {
	baseURL       string
	cacheCapacity int
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type Option func(*options)

// WithBaseURL sets the prefix prepended to short codes and stripped from resolve input.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

func WithCacheCapacity(capacity int) Option {
	return func(o *options) {
		o.cacheCapacity = capacity
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// URLUseCase shortens and resolves URLs. The repository is authoritative;
// the LRU cache only holds records already present in it.
type URLUseCase struct {
	baseURL string
	urlRepo urlRepository
	cache   *lru.Cache[string, *entity.URL]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(urlRepo urlRepository, opts ...Option) (*URLUseCase, error) {
	const op = "usecase.New"

	o := options{cacheCapacity: DefaultCacheCapacity}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.metrics == nil {
		o.metrics = metrics.New(prometheus.NewRegistry())
	}

	uc := &URLUseCase{
		baseURL: o.baseURL,
		urlRepo: urlRepo,
		logger:  o.logger,
		metrics: o.metrics,
	}

	cache, err := lru.New[string, *entity.URL](o.cacheCapacity, lru.WithEvictCallback(uc.onEvict))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create cache: %w", op, err)
	}
	uc.cache = cache

	return uc, nil
}

// ShortenURL returns the record for originalURL, creating it on first use.
// The same originalURL always yields the same short code.
func (uc *URLUseCase) ShortenURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	url, err := uc.urlRepo.GetOrCreate(ctx, originalURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
	}

	uc.cache.Put(url.ShortCode, url)
	uc.metrics.Shortens.Inc()

	return uc.withShortURL(url), nil
}

// ResolveShortURL returns the record for a full short URL or a bare short code.
// Unknown codes yield entity.ErrURLNotFound.
func (uc *URLUseCase) ResolveShortURL(ctx context.Context, shortURL string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ResolveShortURL"

	shortCode := uc.ShortCode(shortURL)
	if shortCode == "" {
		uc.metrics.Resolves.WithLabelValues(metrics.ResultNotFound).Inc()
		return nil, fmt.Errorf("%s: empty short code: %w", op, entity.ErrURLNotFound)
	}

	if url, ok := uc.cache.Get(shortCode); ok {
		uc.metrics.CacheHits.Inc()
		uc.metrics.Resolves.WithLabelValues(metrics.ResultFound).Inc()
		return uc.withShortURL(url), nil
	}

	uc.metrics.CacheMisses.Inc()
	uc.logger.Debug("cache miss", slog.String("short_code", shortCode))

	url, err := uc.urlRepo.Lookup(ctx, shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			uc.metrics.Resolves.WithLabelValues(metrics.ResultNotFound).Inc()
		} else {
			uc.metrics.Resolves.WithLabelValues(metrics.ResultError).Inc()
		}

		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	uc.cache.Put(shortCode, url)
	uc.metrics.Resolves.WithLabelValues(metrics.ResultFound).Inc()

	return uc.withShortURL(url), nil
}

// ShortCode strips the configured base URL from shortURL.
// Input without the prefix is taken to be a bare short code.
func (uc *URLUseCase) ShortCode(shortURL string) string {
	shortURL = strings.TrimSpace(shortURL)
	if uc.baseURL == "" {
		return shortURL
	}
	return strings.TrimPrefix(shortURL, uc.baseURL)
}

// CacheSnapshot reports the cache capacity and its keys from least to most recently used.
func (uc *URLUseCase) CacheSnapshot() entity.CacheSnapshot {
	return entity.CacheSnapshot{
		Capacity: uc.cache.Cap(),
		Keys:     uc.cache.Keys(),
	}
}

func (uc *URLUseCase) withShortURL(url *entity.URL) *entity.URL {
	out := *url
	out.ShortURL = uc.baseURL + url.ShortCode
	return &out
}

func (uc *URLUseCase) onEvict(shortCode string, _ *entity.URL) {
	uc.metrics.CacheEvictions.Inc()
	uc.logger.Debug("cache eviction", slog.String("short_code", shortCode))
}
