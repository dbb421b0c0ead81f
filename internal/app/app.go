package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/lru-shortener/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/lru-shortener/internal/config"
	"github.com/vadimbarashkov/lru-shortener/internal/entity"
	"github.com/vadimbarashkov/lru-shortener/internal/metrics"
	"github.com/vadimbarashkov/lru-shortener/internal/usecase"
	"github.com/vadimbarashkov/lru-shortener/pkg/base62"
	"github.com/vadimbarashkov/lru-shortener/pkg/postgres"
	"github.com/vadimbarashkov/lru-shortener/pkg/sequence"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/lru-shortener/internal/adapter/delivery/http"
	pgrepo "github.com/vadimbarashkov/lru-shortener/internal/adapter/repository/postgres"
)

type urlRepository interface {
	GetOrCreate(ctx context.Context, originalURL string) (*entity.URL, error)
	Lookup(ctx context.Context, shortCode string) (*entity.URL, error)
}

// NewLogger returns the service logger: JSON in prod, concise text with debug output elsewhere.
func NewLogger(env string) *httplog.Logger {
	opts := httplog.Options{
		LogLevel: slog.LevelDebug,
		Concise:  true,
	}

	if env == config.EnvProd {
		opts = httplog.Options{
			LogLevel:       slog.LevelInfo,
			JSON:           true,
			RequestHeaders: true,
		}
	}

	return httplog.NewLogger("url-shortener", opts)
}

// Run serves the shortener until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	handler, cleanup, err := newHandler(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer cleanup()

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        handler,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server",
			slog.String("addr", server.Addr),
			slog.String("env", cfg.Env),
			slog.String("storage", cfg.Storage.Driver),
		)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

// newHandler wires the configured key store, the use case and the router.
// The returned cleanup releases the store.
func newHandler(ctx context.Context, cfg *config.Config, logger *httplog.Logger) (http.Handler, func(), error) {
	enc, err := base62.NewEncoder(cfg.Shortener.Alphabet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	urlRepo, cleanup, err := newURLRepository(ctx, cfg, enc, logger)
	if err != nil {
		return nil, nil, err
	}

	reg := metrics.NewRegistry()

	uc, err := usecase.New(urlRepo,
		usecase.WithBaseURL(cfg.Shortener.BaseURL),
		usecase.WithCacheCapacity(cfg.Shortener.CacheCapacity),
		usecase.WithLogger(logger.Logger),
		usecase.WithMetrics(metrics.New(reg)),
	)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create use case: %w", err)
	}

	return delivery.NewRouter(logger, uc, reg), cleanup, nil
}

func newURLRepository(
	ctx context.Context,
	cfg *config.Config,
	enc *base62.Encoder,
	logger *httplog.Logger,
) (urlRepository, func(), error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := postgres.New(
			ctx,
			cfg.Postgres.DSN(),
			postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		version, err := postgres.RunMigrations(cfg.Postgres.MigrationsPath, cfg.Postgres.DSN())
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("migrations applied", slog.Uint64("version", uint64(version)))

		return pgrepo.NewURLRepository(db, enc), func() { db.Close() }, nil
	case config.StorageMemory:
		return memory.NewKeyStore(enc, sequence.New(1)), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownStorage, cfg.Storage.Driver)
	}
}
