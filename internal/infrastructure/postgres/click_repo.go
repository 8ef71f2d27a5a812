package postgres

import (
	"context"
	"fmt"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClickRepository struct {
	pool *pgxpool.Pool
}

func NewClickRepository(pool *pgxpool.Pool) *ClickRepository {
	return &ClickRepository{pool: pool}
}

func (r *ClickRepository) Append(ctx context.Context, linkID int64) (*domain.Click, error) {
	var c domain.Click
	err := r.pool.QueryRow(ctx,
		`INSERT INTO clicks (link_id) VALUES ($1) RETURNING id, link_id, created_at`,
		linkID,
	).Scan(&c.ID, &c.LinkID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert click: %w", err)
	}
	return &c, nil
}

func (r *ClickRepository) CountForLink(ctx context.Context, linkID int64) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clicks WHERE link_id = $1`, linkID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count clicks: %w", err)
	}
	return n, nil
}
