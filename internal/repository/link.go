package repository

import (
	"context"

	"github.com/ErlanBelekov/shortly/internal/domain"
)

// LinkRepository is the link half of the persistence store.
// Uniqueness of code and url must be enforced by the store itself so that
// several replicas can create links concurrently.
type LinkRepository interface {
	// Create returns domain.ErrDuplicateURL or domain.ErrDuplicateCode on
	// the matching unique-constraint violation.
	Create(ctx context.Context, link *domain.Link) (*domain.Link, error)
	FindByURL(ctx context.Context, url string) (*domain.Link, error)
	FindByCode(ctx context.Context, code string) (*domain.Link, error)
	// IncrementVisits adds exactly one to visits at the store and returns the updated row.
	IncrementVisits(ctx context.Context, linkID int64) (*domain.Link, error)
	ListAll(ctx context.Context) ([]*domain.Link, error)
}

// ClickRepository is append-only. The concrete stores also have
// CountForLink, which only their tests use.
type ClickRepository interface {
	Append(ctx context.Context, linkID int64) (*domain.Click, error)
}
