package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrUsernameTaken           = errors.New("username is already taken")
	ErrInvalidCredentials      = errors.New("invalid username or password")
	ErrInvalidCredentialsInput = errors.New("username and password are required")

	// ErrUnauthorized is the parent of every session-gate rejection.
	// Match on it with errors.Is; match on the specific ones for the reason.
	ErrUnauthorized  = errors.New("unauthorized")
	ErrTokenMissing  = fmt.Errorf("%w: missing", ErrUnauthorized)
	ErrTokenNotFound = fmt.Errorf("%w: not_found", ErrUnauthorized)
	ErrTokenExpired  = fmt.Errorf("%w: expired", ErrUnauthorized)
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Token is a persisted session. The raw value only ever lives in the
// client's cookie; the store keeps TokenHash.
type Token struct {
	ID        int64
	TokenHash string
	UserID    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Age reports how long ago the token was issued.
func (t *Token) Age(now time.Time) time.Duration {
	return now.Sub(t.CreatedAt)
}
