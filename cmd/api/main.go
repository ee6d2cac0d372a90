// Command api serves the stored gameweek stats over HTTP and, when
// IMPORT_INTERVAL is set, re-runs the importer on that schedule.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dwes123/fpl-stats-go/internal/config"
	"github.com/dwes123/fpl-stats-go/internal/db"
	"github.com/dwes123/fpl-stats-go/internal/fpl"
	"github.com/dwes123/fpl-stats-go/internal/handlers"
	"github.com/dwes123/fpl-stats-go/internal/importer"
	"github.com/dwes123/fpl-stats-go/internal/logging"
	"github.com/dwes123/fpl-stats-go/internal/metrics"
	"github.com/dwes123/fpl-stats-go/internal/middleware"
	"github.com/dwes123/fpl-stats-go/internal/notification"
	"github.com/dwes123/fpl-stats-go/internal/store"
	"github.com/dwes123/fpl-stats-go/internal/worker"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := db.Open(ctx, &cfg.Database, 0)
	if err != nil {
		return err
	}
	defer pool.Close()

	stats := store.NewGameweekStats(pool)
	if err := stats.EnsureSchema(ctx); err != nil {
		return err
	}

	m := metrics.New()

	var workerDone <-chan struct{}
	if cfg.API.ImportInterval > 0 {
		// The scheduled importer gets its own single-connection pool, as the CLI does.
		importPool, err := db.Open(ctx, &cfg.Database, 1)
		if err != nil {
			return err
		}
		defer importPool.Close()

		client := fpl.NewClient(&cfg.FPL)
		client.Observe = m.ObserveUpstream
		im := importer.New(client, store.NewGameweekStats(importPool),
			importer.WithLogger(logger.Named("importer")),
			importer.WithMetrics(m),
		)
		slack := notification.NewSlack(cfg.Slack.BotToken, cfg.Slack.Channel)
		run := func(ctx context.Context) (*importer.Summary, error) {
			summary, err := im.Run(ctx)
			if notifyErr := slack.ReportRun(ctx, summary, err); notifyErr != nil {
				logger.Warn("Failed to post Slack notification", zap.Error(notifyErr))
			}
			return summary, err
		}
		workerDone = worker.StartImportWorker(ctx, cfg.API.ImportInterval, run, logger.Named("worker"))
	}

	limiter := middleware.NewRateLimiter(cfg.API.RateLimitPerMinute, time.Minute)
	limiter.StartSweeper(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.API.Port,
		Handler:           newRouter(cfg, stats, m, limiter, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if workerDone != nil {
		<-workerDone
	}
	return nil
}

func newRouter(cfg *config.Config, stats handlers.StatsReader, m *metrics.Metrics, limiter *middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{cfg.API.CORSOrigin},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/ping", handlers.PingHandler())
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/")
	api.Use(limiter.Handler())
	{
		api.GET("/player-gameweek-stats", handlers.PlayerGameweekStatsHandler(stats, logger))
		api.GET("/player/:id", handlers.PlayerHandler(stats, logger))
	}
	return r
}
