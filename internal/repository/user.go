package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/shortly/internal/domain"
)

type UserRepository interface {
	// Create returns domain.ErrUsernameTaken when the username exists.
	Create(ctx context.Context, username, passwordHash string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}

type TokenRepository interface {
	Create(ctx context.Context, userID int64, tokenHash string, issuedAt time.Time) (*domain.Token, error)
	FindByHash(ctx context.Context, tokenHash string) (*domain.Token, error)
	// DeleteByHash removes every row carrying tokenHash and reports how many went.
	DeleteByHash(ctx context.Context, tokenHash string) (int64, error)
	// DeleteExpired removes tokens issued before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
