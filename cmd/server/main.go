package main

import (
	"context"
	"errors"
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
	"github.com/ErlanBelekov/shortly/internal/shortcode"
	"github.com/ErlanBelekov/shortly/internal/title"
	httptransport "github.com/ErlanBelekov/shortly/internal/transport/http"
	"github.com/ErlanBelekov/shortly/internal/transport/http/handler"
	"github.com/ErlanBelekov/shortly/internal/transport/http/middleware"
	"github.com/ErlanBelekov/shortly/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer st.Close()

	// Sessions
	authUsecase := usecase.NewAuthUsecase(
		st.Users,
		st.Tokens,
		password.NewBcrypt(cfg.BcryptCost),
		logger,
		usecase.WithTokenTTL(cfg.TokenTTL),
	)
	authHandler := handler.NewAuthHandler(authUsecase, cfg.CookieSecure, logger)
	sessionMW := middleware.Session(authUsecase, handler.TokenCookie, logger)

	// Links
	linkUsecase := usecase.NewLinkUsecase(
		st.Links,
		st.Clicks,
		title.NewResolver(cfg.TitleFetchTimeout),
		shortcode.NewGenerator(cfg.CodeLength),
		logger,
	)
	linkHandler := handler.NewLinkHandler(linkUsecase, logger)

	sweeper, err := janitor.NewSweeper(authUsecase, cfg.TokenPurgeCron, logger)
	if err != nil {
		stop()
		log.Fatalf("janitor: %v", err)
	}

	metrics.Register()
	checker := health.NewChecker(st.Pinger, st.Name, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httptransport.NewRouter(logger, linkHandler, authHandler, sessionMW, cfg.CookieSecure),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go sweeper.Start(ctx)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
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
