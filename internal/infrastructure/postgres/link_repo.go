package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const linkColumns = `id, code, url, title, base_url, visits, created_at`

type LinkRepository struct {
	pool *pgxpool.Pool
}

func NewLinkRepository(pool *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{pool: pool}
}

func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) (*domain.Link, error) {
	query := `
		INSERT INTO links (code, url, title, base_url)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + linkColumns

	row := r.pool.QueryRow(ctx, query, link.Code, link.URL, link.Title, link.BaseURL)

	created, err := scanLink(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case "links_url_key":
				return nil, domain.ErrDuplicateURL
			case "links_code_key":
				return nil, domain.ErrDuplicateCode
			}
		}
		return nil, err
	}
	return created, nil
}

func (r *LinkRepository) FindByURL(ctx context.Context, url string) (*domain.Link, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE url = $1`, url)
	return scanLink(row)
}

func (r *LinkRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE code = $1`, code)
	return scanLink(row)
}

// IncrementVisits evaluates visits + 1 inside postgres, so concurrent
// resolutions of one code never lose an update.
func (r *LinkRepository) IncrementVisits(ctx context.Context, linkID int64) (*domain.Link, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE links SET visits = visits + 1 WHERE id = $1 RETURNING `+linkColumns, linkID)
	return scanLink(row)
}

func (r *LinkRepository) ListAll(ctx context.Context) ([]*domain.Link, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+linkColumns+` FROM links ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	links := []*domain.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func scanLink(row pgx.Row) (*domain.Link, error) {
	var l domain.Link
	err := row.Scan(&l.ID, &l.Code, &l.URL, &l.Title, &l.BaseURL, &l.Visits, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, fmt.Errorf("scan link: %w", err)
	}
	return &l, nil
}
