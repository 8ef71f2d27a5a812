package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidURL    = errors.New("not a valid url")
	ErrTitleFetch    = errors.New("could not read url title")
	ErrLinkNotFound  = errors.New("link not found")
	ErrDuplicateURL  = errors.New("link with this url already exists")
	ErrDuplicateCode = errors.New("link with this code already exists")
)

type Link struct {
	ID        int64
	Code      string
	URL       string
	Title     string
	BaseURL   string
	Visits    int64
	CreatedAt time.Time
}

// Click is one successful resolution of a code. Append only.
type Click struct {
	ID        int64
	LinkID    int64
	CreatedAt time.Time
}
