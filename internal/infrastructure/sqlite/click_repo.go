package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/doug-martin/goqu/v9"
)

type clickRow struct {
	ID        int64 `db:"id" goqu:"skipinsert"`
	LinkID    int64 `db:"link_id"`
	CreatedAt int64 `db:"created_at"`
}

type ClickRepository struct {
	db *goqu.Database
}

func NewClickRepository(db *sql.DB) *ClickRepository {
	return &ClickRepository{db: newBuilder(db)}
}

func (r *ClickRepository) Append(ctx context.Context, linkID int64) (*domain.Click, error) {
	row := clickRow{LinkID: linkID, CreatedAt: toMillis(time.Now())}

	res, err := r.db.Insert("clicks").Rows(row).Executor().ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("insert click: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert click id: %w", err)
	}

	return &domain.Click{ID: id, LinkID: linkID, CreatedAt: fromMillis(row.CreatedAt)}, nil
}

func (r *ClickRepository) CountForLink(ctx context.Context, linkID int64) (int64, error) {
	n, err := r.db.From("clicks").Where(goqu.Ex{"link_id": linkID}).CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("count clicks: %w", err)
	}
	return n, nil
}
