package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mujanati13/xcite/config"
	"github.com/Mujanati13/xcite/internal/auth"
	"github.com/Mujanati13/xcite/internal/repository"
	"github.com/Mujanati13/xcite/internal/service"
	"github.com/Mujanati13/xcite/internal/web"
	"github.com/Mujanati13/xcite/pkg/logger"
)

func main() {
	cfg, err := config.NewConfig(".env")
	if err != nil {
		log.Fatal(err)
	}

	lg, closeLog, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		FluentHost: cfg.Log.FluentHost,
		FluentPort: cfg.Log.FluentPort,
		FluentTag:  "xcite.api",
	})
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()
	slog.SetDefault(lg)

	if cfg.PG.Migrate {
		if err := repository.Migrate(cfg.PG); err != nil {
			lg.Error("failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := repository.NewPool(ctx, cfg.PG)
	if err != nil {
		lg.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	repo := repository.New(pool)

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.SecretKey)
	if err != nil {
		lg.Error("failed to create token issuer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	svc := service.New(repo, lg)
	handler, err := web.NewHandler(svc, issuer, lg, cfg.Auth.TokenDays)
	if err != nil {
		lg.Error("failed to create handler", slog.String("error", err.Error()))
		os.Exit(1)
	}
	server := web.NewServer(handler, lg, cfg.CORS.AllowedOrigins)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		lg.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			lg.Error("server forced to shutdown", slog.String("error", err.Error()))
		}
	}()

	lg.Info(fmt.Sprintf("starting server on :%s", cfg.Server.Port))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lg.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	lg.Info("server stopped")
}
