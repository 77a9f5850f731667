package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telemetryd/internal/config"
	"telemetryd/internal/httpapi"
	"telemetryd/internal/reader"
	"telemetryd/internal/source"
	"telemetryd/internal/store"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	db, err := openDB(cfg)
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	repo, err := store.New(db)
	if err != nil {
		slog.Error("db migrate failed", "error", err)
		os.Exit(1)
	}

	src, err := openSource(cfg)
	if err != nil {
		slog.Error("frame source setup failed", "error", err)
		os.Exit(1)
	}

	rdr := reader.New(repo, src, cfg.ReadInterval)
	if err := rdr.Start(context.Background()); err != nil {
		slog.Error("sensor reader start failed", "error", err)
		os.Exit(1)
	}
	slog.Info("sensor reader started", "source", cfg.FrameSource)

	srv := httpapi.New(repo)
	httpSrv := &http.Server{Addr: ":" + cfg.Port, Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("telemetryd listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	slog.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	if err := rdr.Stop(); err != nil && !errors.Is(err, reader.ErrNotRunning) {
		slog.Error("sensor reader stop failed", "error", err)
	}
	slog.Info("shutdown complete")
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "postgres":
		pg := cfg.Postgres
		return store.OpenPostgres(pg.User, pg.Password, pg.DBName, pg.Host, pg.Port, pg.SSLMode)
	default:
		return store.OpenSQLite(cfg.SQLitePath)
	}
}

func openSource(cfg *config.Config) (source.FrameSource, error) {
	switch cfg.FrameSource {
	case "mqtt":
		return source.NewMQTT(cfg.MQTTBrokerURL, cfg.MQTTFrameTopic, cfg.MQTTClientID)
	default:
		return source.NewDevice(cfg.DevicePath), nil
	}
}

func setupLogging(level string) {
	lvl := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}
