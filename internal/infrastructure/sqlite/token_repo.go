package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/doug-martin/goqu/v9"
)

type tokenRow struct {
	ID        int64  `db:"id" goqu:"skipinsert"`
	TokenHash string `db:"token_hash"`
	UserID    int64  `db:"user_id"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r *tokenRow) toDomain() *domain.Token {
	return &domain.Token{
		ID:        r.ID,
		TokenHash: r.TokenHash,
		UserID:    r.UserID,
		CreatedAt: fromMillis(r.CreatedAt),
		UpdatedAt: fromMillis(r.UpdatedAt),
	}
}

type TokenRepository struct {
	db *goqu.Database
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: newBuilder(db)}
}

func (r *TokenRepository) Create(ctx context.Context, userID int64, tokenHash string, issuedAt time.Time) (*domain.Token, error) {
	row := tokenRow{
		TokenHash: tokenHash,
		UserID:    userID,
		CreatedAt: toMillis(issuedAt),
		UpdatedAt: toMillis(issuedAt),
	}

	res, err := r.db.Insert("tokens").Rows(row).Executor().ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}

	row.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert token id: %w", err)
	}
	return row.toDomain(), nil
}

func (r *TokenRepository) FindByHash(ctx context.Context, tokenHash string) (*domain.Token, error) {
	var row tokenRow
	found, err := r.db.From("tokens").
		Where(goqu.Ex{"token_hash": tokenHash}).
		Order(goqu.C("created_at").Asc()).
		Limit(1).
		ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("fetch token: %w", err)
	}
	if !found {
		return nil, domain.ErrTokenNotFound
	}
	return row.toDomain(), nil
}

func (r *TokenRepository) DeleteByHash(ctx context.Context, tokenHash string) (int64, error) {
	return r.delete(ctx, goqu.Ex{"token_hash": tokenHash})
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.delete(ctx, goqu.Ex{"created_at": goqu.Op{"lte": toMillis(cutoff)}})
}

func (r *TokenRepository) delete(ctx context.Context, where goqu.Ex) (int64, error) {
	res, err := r.db.Delete("tokens").Where(where).Executor().ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete tokens: %w", err)
	}
	return res.RowsAffected()
}
