// janitor runs the expired-token sweep on its own, for deployments that
// keep it out of the web process. With -once it sweeps a single time and
// exits.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/shortly/config"
	"github.com/ErlanBelekov/shortly/internal/health"
	"github.com/ErlanBelekov/shortly/internal/infrastructure/store"
	"github.com/ErlanBelekov/shortly/internal/janitor"
	ctxlog "github.com/ErlanBelekov/shortly/internal/log"
	"github.com/ErlanBelekov/shortly/internal/metrics"
	"github.com/ErlanBelekov/shortly/internal/password"
	"github.com/ErlanBelekov/shortly/internal/usecase"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	once := flag.Bool("once", false, "sweep once and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer st.Close()

	authUsecase := usecase.NewAuthUsecase(
		st.Users,
		st.Tokens,
		password.NewBcrypt(cfg.BcryptCost),
		logger,
		usecase.WithTokenTTL(cfg.TokenTTL),
	)

	sweeper, err := janitor.NewSweeper(authUsecase, cfg.TokenPurgeCron, logger)
	if err != nil {
		stop()
		log.Fatalf("janitor: %v", err)
	}

	metrics.Register()

	if *once {
		n, err := sweeper.Sweep(ctx)
		stop()
		if err != nil {
			log.Fatalf("sweep: %v", err)
		}
		logger.Info("sweep done", "purged", n)
		return
	}

	checker := health.NewChecker(st.Pinger, st.Name, logger, prometheus.DefaultRegisterer)
	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	sweeper.Start(ctx)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
