package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/doug-martin/goqu/v9"
)

type linkRow struct {
	ID        int64  `db:"id" goqu:"skipinsert,skipupdate"`
	Code      string `db:"code"`
	URL       string `db:"url"`
	Title     string `db:"title"`
	BaseURL   string `db:"base_url"`
	Visits    int64  `db:"visits"`
	CreatedAt int64  `db:"created_at" goqu:"skipupdate"`
}

func (r *linkRow) toDomain() *domain.Link {
	return &domain.Link{
		ID:        r.ID,
		Code:      r.Code,
		URL:       r.URL,
		Title:     r.Title,
		BaseURL:   r.BaseURL,
		Visits:    r.Visits,
		CreatedAt: fromMillis(r.CreatedAt),
	}
}

type LinkRepository struct {
	db *goqu.Database
}

func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: newBuilder(db)}
}

func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) (*domain.Link, error) {
	row := linkRow{
		Code:      link.Code,
		URL:       link.URL,
		Title:     link.Title,
		BaseURL:   link.BaseURL,
		CreatedAt: toMillis(time.Now()),
	}

	res, err := r.db.Insert("links").Rows(row).Executor().ExecContext(ctx)
	if err != nil {
		switch {
		case uniqueViolationOn(err, "links.url"):
			return nil, domain.ErrDuplicateURL
		case uniqueViolationOn(err, "links.code"):
			return nil, domain.ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert link: %w", err)
	}

	row.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert link id: %w", err)
	}
	return row.toDomain(), nil
}

func (r *LinkRepository) FindByURL(ctx context.Context, url string) (*domain.Link, error) {
	return r.findOne(ctx, goqu.Ex{"url": url})
}

func (r *LinkRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	return r.findOne(ctx, goqu.Ex{"code": code})
}

// IncrementVisits lets sqlite evaluate visits + 1; the read that follows
// only reports the current row.
func (r *LinkRepository) IncrementVisits(ctx context.Context, linkID int64) (*domain.Link, error) {
	res, err := r.db.Update("links").
		Set(goqu.Record{"visits": goqu.L("visits + 1")}).
		Where(goqu.Ex{"id": linkID}).
		Executor().ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("increment visits: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("increment visits: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrLinkNotFound
	}

	return r.findOne(ctx, goqu.Ex{"id": linkID})
}

func (r *LinkRepository) ListAll(ctx context.Context) ([]*domain.Link, error) {
	var rows []linkRow
	err := r.db.From("links").
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	links := make([]*domain.Link, len(rows))
	for i := range rows {
		links[i] = rows[i].toDomain()
	}
	return links, nil
}

func (r *LinkRepository) findOne(ctx context.Context, where goqu.Ex) (*domain.Link, error) {
	var row linkRow
	found, err := r.db.From("links").Where(where).ScanStructContext(ctx, &row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, fmt.Errorf("fetch link: %w", err)
	}
	if !found {
		return nil, domain.ErrLinkNotFound
	}
	return row.toDomain(), nil
}
