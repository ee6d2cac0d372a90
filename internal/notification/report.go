package notification

import (
	"context"
	"fmt"

	"github.com/dwes123/fpl-stats-go/internal/importer"
)

// RunMessage renders an import outcome as a one-line Slack message.
func RunMessage(summary *importer.Summary, runErr error) string {
	if runErr != nil {
		committed := 0
		if summary != nil {
			committed = summary.Players
		}
		return fmt.Sprintf(":x: FPL gameweek import failed after %d players: %v", committed, runErr)
	}
	return fmt.Sprintf(":white_check_mark: FPL gameweek import complete: %s", summary)
}

// ReportRun posts the outcome of an import run.
func (s *Slack) ReportRun(ctx context.Context, summary *importer.Summary, runErr error) error {
	return s.Notify(ctx, RunMessage(summary, runErr))
}
