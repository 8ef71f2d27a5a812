package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/doug-martin/goqu/v9"
)

type userRow struct {
	ID           int64  `db:"id" goqu:"skipinsert"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
}

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    fromMillis(r.CreatedAt),
	}
}

type UserRepository struct {
	db *goqu.Database
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: newBuilder(db)}
}

func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	row := userRow{Username: username, PasswordHash: passwordHash, CreatedAt: toMillis(time.Now())}

	res, err := r.db.Insert("users").Rows(row).Executor().ExecContext(ctx)
	if err != nil {
		if uniqueViolationOn(err, "users.username") {
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	row.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert user id: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var row userRow
	found, err := r.db.From("users").Where(goqu.Ex{"username": username}).ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return nil, domain.ErrUserNotFound
	}
	return row.toDomain(), nil
}
