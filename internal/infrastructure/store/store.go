// Package store opens the configured backend and exposes its repositories.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/shortly/config"
	"github.com/ErlanBelekov/shortly/internal/health"
	"github.com/ErlanBelekov/shortly/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/shortly/internal/infrastructure/sqlite"
	"github.com/ErlanBelekov/shortly/internal/repository"
)

type Store struct {
	Name   string
	Users  repository.UserRepository
	Tokens repository.TokenRepository
	Links  repository.LinkRepository
	Clicks repository.ClickRepository
	Pinger health.Pinger

	close func()
}

func (s *Store) Close() {
	s.close()
}

// Open connects to cfg.Store and brings its schema up to date.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.Store {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("db connected", "store", cfg.Store, "migrations_applied", applied)

		return &Store{
			Name:   cfg.Store,
			Users:  postgres.NewUserRepository(pool),
			Tokens: postgres.NewTokenRepository(pool),
			Links:  postgres.NewLinkRepository(pool),
			Clicks: postgres.NewClickRepository(pool),
			Pinger: pool,
			close:  pool.Close,
		}, nil

	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("db connected", "store", cfg.Store, "path", cfg.SQLitePath)

		return &Store{
			Name:   cfg.Store,
			Users:  sqlite.NewUserRepository(db),
			Tokens: sqlite.NewTokenRepository(db),
			Links:  sqlite.NewLinkRepository(db),
			Clicks: sqlite.NewClickRepository(db),
			Pinger: sqlite.Pinger{DB: db},
			close:  func() { db.Close() },
		}, nil
	}

	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}
