// Command import_gameweek_stats copies every FPL player's gameweek history
// into fpl_player_gameweek_stats. It takes no arguments; configuration comes
// from the environment (or a .env file). Each run appends the full history
// again, so repeated runs duplicate rows.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dwes123/fpl-stats-go/internal/config"
	"github.com/dwes123/fpl-stats-go/internal/db"
	"github.com/dwes123/fpl-stats-go/internal/fpl"
	"github.com/dwes123/fpl-stats-go/internal/importer"
	"github.com/dwes123/fpl-stats-go/internal/logging"
	"github.com/dwes123/fpl-stats-go/internal/metrics"
	"github.com/dwes123/fpl-stats-go/internal/notification"
	"github.com/dwes123/fpl-stats-go/internal/store"
	"go.uber.org/zap"
)

const (
	pushJob     = "fpl_gameweek_stats_import"
	pushTimeout = 10 * time.Second
)

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

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Import failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := db.Open(ctx, &cfg.Database, 1)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Name),
	)

	slack := notification.NewSlack(cfg.Slack.BotToken, cfg.Slack.Channel)
	return importAndReport(ctx, cfg, store.NewGameweekStats(pool), slack, logger)
}

// importAndReport runs one import into sink, then reports it to Slack and the
// Pushgateway. Reporting failures are logged; the run's own error is returned.
func importAndReport(ctx context.Context, cfg *config.Config, sink importer.Sink, slack *notification.Slack, logger *zap.Logger) error {
	m := metrics.New()
	client := fpl.NewClient(&cfg.FPL)
	client.Observe = m.ObserveUpstream

	im := importer.New(client, sink,
		importer.WithLogger(logger),
		importer.WithMetrics(m),
	)
	summary, runErr := im.Run(ctx)

	if err := slack.ReportRun(ctx, summary, runErr); err != nil {
		logger.Warn("Failed to post Slack notification", zap.Error(err))
	}

	if cfg.MetricsPushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		defer cancel()
		if err := m.Push(pushCtx, cfg.MetricsPushgatewayURL, pushJob); err != nil {
			logger.Warn("Failed to push metrics", zap.Error(err))
		}
	}
	return runErr
}
