// seed inserts a demo user and a handful of links into the configured store.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/ErlanBelekov/shortly/config"
	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/ErlanBelekov/shortly/internal/infrastructure/store"
	"github.com/ErlanBelekov/shortly/internal/password"
	"github.com/ErlanBelekov/shortly/internal/shortcode"
	"github.com/ErlanBelekov/shortly/internal/usecase"
)

const (
	seedUsername = "demo"
	seedPassword = "demo"
)

type linkSpec struct {
	url   string
	title string
}

// Titles are preset so seeding works offline.
var links = []linkSpec{
	{"https://go.dev/", "The Go Programming Language"},
	{"https://pkg.go.dev/", "Go Packages"},
	{"https://gin-gonic.com/", "Gin Web Framework"},
	{"https://www.postgresql.org/", "PostgreSQL"},
	{"https://www.sqlite.org/", "SQLite Home Page"},
	{"https://prometheus.io/", "Prometheus - Monitoring system & time series database"},
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer st.Close()

	auth := usecase.NewAuthUsecase(st.Users, st.Tokens, password.NewBcrypt(cfg.BcryptCost), logger)
	switch _, err := auth.Signup(ctx, seedUsername, seedPassword); {
	case err == nil:
		fmt.Printf("created user %q (password %q)\n", seedUsername, seedPassword)
	case errors.Is(err, domain.ErrUsernameTaken):
		fmt.Printf("user %q already exists\n", seedUsername)
	default:
		log.Fatalf("signup: %v", err)
	}

	codes := shortcode.NewGenerator(cfg.CodeLength)
	inserted := 0
	for _, spec := range links {
		code, err := codes.Generate()
		if err != nil {
			log.Fatalf("generate code: %v", err)
		}

		link, err := st.Links.Create(ctx, &domain.Link{Code: code, URL: spec.url, Title: spec.title})
		if err != nil {
			if errors.Is(err, domain.ErrDuplicateURL) {
				continue
			}
			log.Fatalf("insert %s: %v", spec.url, err)
		}
		fmt.Printf("  /%s -> %s\n", link.Code, link.URL)
		inserted++
	}

	fmt.Printf("seeded %d links (%d already present)\n", inserted, len(links)-inserted)
}
