package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/hellojohn-connect/internal/app"
	"github.com/dropDatabas3/hellojohn-connect/internal/config"
	"github.com/dropDatabas3/hellojohn-connect/internal/http/server"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/tracing"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers/builtin"
)

func main() {
	// .env opcional en desarrollo
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("⚠️  .env no pudo leerse: %v", err)
	}

	ids := make([]string, 0)
	for id := range builtin.Descriptors() {
		ids = append(ids, id)
	}
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"), ids...)
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Format: cfg.Log.Format, ServiceName: cfg.App.ServiceName})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.ToContext(ctx, lg)

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.App.ServiceName,
		Environment: cfg.App.Env,
	})
	if err != nil {
		lg.Fatal("tracing setup failed", logger.Err(err))
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			lg.Warn("tracing shutdown", logger.Err(err))
		}
	}()

	c, err := app.Build(ctx, cfg, nil)
	if err != nil {
		lg.Fatal("wiring failed", logger.Err(err))
	}
	defer func() {
		if err := c.Close(); err != nil {
			lg.Warn("cleanup", logger.Err(err))
		}
	}()

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, c.Handler)

	if err := srv.ListenAndServe(ctx); err != nil {
		lg.Error("http server failed", logger.Err(err))
		return
	}
	lg.Info("http server stopped")
}
