package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/tanzinabd23/relayer-distributor/internal/admin"
	"github.com/tanzinabd23/relayer-distributor/internal/config"
	"github.com/tanzinabd23/relayer-distributor/internal/store/sqlite"
	"github.com/tanzinabd23/relayer-distributor/internal/tracing"
)

const (
	serviceName     = "relayer-distributor"
	shutdownTimeout = 10 * time.Second

	opsRateLimitRPS   = 20
	opsRateLimitBurst = 40
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional; env vars take precedence)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, serviceName, cfg.Tracing.OTLPEndpoint, cfg.Tracing.Insecure)
	if err != nil {
		logger.Error("initialize tracing", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.Open(sqlite.Config{
		Path:            cfg.DB.Path,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		BusyTimeoutMS:   cfg.DB.BusyTimeoutMS,
	})
	if err != nil {
		logger.Error("open archive database", "path", cfg.DB.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	txRepo := sqlite.NewTransactionRepo(db)
	receiptRepo := sqlite.NewReceiptRepo(db, cfg.Cache.ReceiptCapacity, cfg.Cache.ReceiptTTL)

	rl := admin.NewRateLimitMiddleware(opsRateLimitRPS, opsRateLimitBurst, logger)
	defer rl.Stop()

	opsServer := admin.NewServer(txRepo, receiptRepo, db, logger)

	mux := http.NewServeMux()
	mux.Handle("/", opsServer.Routes(rl))
	mux.Handle("GET /metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("distributor starting",
		"db_path", cfg.DB.Path,
		"port", cfg.Server.Port,
		"tracing", cfg.Tracing.OTLPEndpoint != "",
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("distributor stopped with error", "error", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("flush tracing", "error", err)
	}

	logger.Info("distributor stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
