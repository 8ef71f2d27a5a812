package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Create(ctx context.Context, userID int64, tokenHash string, issuedAt time.Time) (*domain.Token, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO tokens (token_hash, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING id, token_hash, user_id, created_at, updated_at`,
		tokenHash, userID, issuedAt,
	)
	return scanToken(row)
}

// FindByHash returns the oldest row for the hash; duplicates are tolerated.
func (r *TokenRepository) FindByHash(ctx context.Context, tokenHash string) (*domain.Token, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, token_hash, user_id, created_at, updated_at
		FROM tokens WHERE token_hash = $1
		ORDER BY created_at ASC LIMIT 1`,
		tokenHash,
	)
	return scanToken(row)
}

func (r *TokenRepository) DeleteByHash(ctx context.Context, tokenHash string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tokens WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return 0, fmt.Errorf("delete token: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tokens WHERE created_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanToken(row pgx.Row) (*domain.Token, error) {
	var t domain.Token
	err := row.Scan(&t.ID, &t.TokenHash, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}
	return &t, nil
}
