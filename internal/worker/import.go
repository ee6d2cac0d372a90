package worker

import (
	"context"
	"time"

	"github.com/dwes123/fpl-stats-go/internal/importer"
	"go.uber.org/zap"
)

// RunFunc performs one full import run.
type RunFunc func(ctx context.Context) (*importer.Summary, error)

// StartImportWorker runs an import every interval until ctx is cancelled.
// Runs never overlap: a tick that arrives mid-run is dropped by the ticker.
// A failed run is logged; the next tick starts a fresh full run. The
// returned channel is closed once the worker has stopped.
func StartImportWorker(ctx context.Context, interval time.Duration, run RunFunc, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info("Import worker started", zap.Duration("interval", interval))
		for {
			select {
			case <-ctx.Done():
				logger.Info("Import worker stopped")
				return
			case <-ticker.C:
				summary, err := run(ctx)
				if err != nil {
					fields := []zap.Field{zap.Error(err)}
					if summary != nil {
						fields = append(fields, zap.Int("players_committed", summary.Players))
					}
					logger.Error("Scheduled import failed", fields...)
					continue
				}
				logger.Info("Scheduled import complete", zap.Stringer("summary", summary))
			}
		}
	}()
	return done
}
