package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/lru-shortener/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

type encoder interface {
	Encode(n uint64) string
}

type urlDB struct {
	ID          int64     `db:"id"`
	ShortCode   string    `db:"short_code"`
	OriginalURL string    `db:"original_url"`
	CreatedAt   time.Time `db:"created_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:          u.ID,
		ShortCode:   u.ShortCode,
		OriginalURL: u.OriginalURL,
		CreatedAt:   u.CreatedAt,
	}
}

// URLRepository keeps the short code mapping in the urls table.
// The id column's sequence plays the role of the key counter.
type URLRepository struct {
	db  *sqlx.DB
	enc encoder
}

func NewURLRepository(db *sqlx.DB, enc encoder) *URLRepository {
	return &URLRepository{db: db, enc: enc}
}

func (r *URLRepository) GetOrCreate(ctx context.Context, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.GetOrCreate"
	const (
		nextIDQuery = `SELECT nextval(pg_get_serial_sequence('urls', 'id'))`
		insertQuery = `INSERT INTO urls(id, short_code, original_url) VALUES ($1, $2, $3)
			ON CONFLICT (original_url) DO NOTHING
			RETURNING *`
	)

	url, err := r.retrieveByOriginalURL(ctx, originalURL)
	if err == nil {
		return url, nil
	}
	if !errors.Is(err, entity.ErrURLNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, nextIDQuery); err != nil {
		return nil, fmt.Errorf("%s: failed to allocate id: %w", op, err)
	}

	var rec urlDB
	if err := r.db.GetContext(ctx, &rec, insertQuery, id, r.enc.Encode(uint64(id)), originalURL); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		// A concurrent writer inserted the same url first.
		if errors.Is(err, sql.ErrNoRows) {
			url, err := r.retrieveByOriginalURL(ctx, originalURL)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			return url, nil
		}

		return nil, fmt.Errorf("%s: failed to insert into urls table: %w", op, err)
	}

	return rec.toEntity(), nil
}

func (r *URLRepository) Lookup(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Lookup"
	const query = `SELECT * FROM urls WHERE short_code = $1`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) retrieveByOriginalURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	const query = `SELECT * FROM urls WHERE original_url = $1`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, originalURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrURLNotFound
		}

		return nil, fmt.Errorf("failed to get row from urls table: %w", err)
	}

	return url.toEntity(), nil
}
