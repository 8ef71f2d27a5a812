package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/ErlanBelekov/shortly/internal/metrics"
	"github.com/ErlanBelekov/shortly/internal/repository"
)

// DefaultTokenTTL is how long a session token stays valid after issue.
const DefaultTokenTTL = 24 * time.Hour

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

type passwordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

type AuthUsecase struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	hasher   passwordHasher
	logger   *slog.Logger
	tokenTTL time.Duration
	now      func() time.Time
}

type AuthOption func(*AuthUsecase)

// WithClock replaces time.Now; tests use it to age tokens.
func WithClock(now func() time.Time) AuthOption {
	return func(u *AuthUsecase) { u.now = now }
}

func WithTokenTTL(ttl time.Duration) AuthOption {
	return func(u *AuthUsecase) { u.tokenTTL = ttl }
}

func NewAuthUsecase(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	hasher passwordHasher,
	logger *slog.Logger,
	opts ...AuthOption,
) *AuthUsecase {
	u := &AuthUsecase{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		logger:   logger.With("component", "auth_usecase"),
		tokenTTL: DefaultTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Signup stores a new user and signs them straight in.
func (u *AuthUsecase) Signup(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || len(password) > maxPasswordBytes {
		return "", domain.ErrInvalidCredentialsInput
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := u.users.Create(ctx, username, hash)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	u.logger.InfoContext(ctx, "user created", "user_id", user.ID)

	token, err := u.IssueToken(ctx, user.ID)
	if err != nil {
		return "", err
	}
	metrics.SessionsIssuedTotal.WithLabelValues("signup").Inc()
	return token, nil
}

// Login checks the password of an existing user. An unknown username
// returns domain.ErrUserNotFound before any comparison is attempted.
func (u *AuthUsecase) Login(ctx context.Context, username, password string) (string, error) {
	user, err := u.users.FindByUsername(ctx, strings.TrimSpace(username))
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return "", domain.ErrUserNotFound
	case err != nil:
		return "", fmt.Errorf("find user: %w", err)
	}

	// Signup never stores such a password, so it cannot match.
	if len(password) > maxPasswordBytes {
		return "", domain.ErrInvalidCredentials
	}

	ok, err := u.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return "", fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return "", domain.ErrInvalidCredentials
	}

	token, err := u.IssueToken(ctx, user.ID)
	if err != nil {
		return "", err
	}
	metrics.SessionsIssuedTotal.WithLabelValues("login").Inc()
	return token, nil
}

// IssueToken generates a random token, stores its hash and returns the raw
// value for the cookie.
func (u *AuthUsecase) IssueToken(ctx context.Context, userID int64) (string, error) {
	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	rawToken := hex.EncodeToString(raw)

	if _, err := u.tokens.Create(ctx, userID, hashToken(rawToken), u.now()); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return rawToken, nil
}

// Validate is the session gate. Rejections wrap domain.ErrUnauthorized;
// any other error means the store could not answer.
func (u *AuthUsecase) Validate(ctx context.Context, rawToken string) (*domain.Token, error) {
	if rawToken == "" {
		metrics.SessionValidationsTotal.WithLabelValues("missing").Inc()
		return nil, domain.ErrTokenMissing
	}

	token, err := u.tokens.FindByHash(ctx, hashToken(rawToken))
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			metrics.SessionValidationsTotal.WithLabelValues("not_found").Inc()
			return nil, domain.ErrTokenNotFound
		}
		metrics.SessionValidationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("find token: %w", err)
	}

	if token.Age(u.now()) >= u.tokenTTL {
		metrics.SessionValidationsTotal.WithLabelValues("expired").Inc()
		return nil, domain.ErrTokenExpired
	}

	metrics.SessionValidationsTotal.WithLabelValues("authorized").Inc()
	return token, nil
}

// Revoke deletes every row for rawToken. Revoking an unknown token is not
// an error; it just deletes nothing.
func (u *AuthUsecase) Revoke(ctx context.Context, rawToken string) (int64, error) {
	if rawToken == "" {
		return 0, nil
	}

	n, err := u.tokens.DeleteByHash(ctx, hashToken(rawToken))
	if err != nil {
		return 0, fmt.Errorf("delete token: %w", err)
	}

	metrics.TokensRevokedTotal.Add(float64(n))
	u.logger.InfoContext(ctx, "removed tokens from authorized users", "count", n)
	return n, nil
}

func (u *AuthUsecase) Logout(ctx context.Context, rawToken string) error {
	_, err := u.Revoke(ctx, rawToken)
	return err
}

// PurgeExpired deletes tokens older than the TTL.
func (u *AuthUsecase) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := u.tokens.DeleteExpired(ctx, u.now().Add(-u.tokenTTL))
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return n, nil
}

func hashToken(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}
