// Package importer copies every player's gameweek history from the FPL API
// into fpl_player_gameweek_stats.
//
// A run is a straight line: ensure the table, fetch the catalog, then for
// each player in catalog order fetch their history and commit it as one
// batch. The first failure ends the run; batches already committed stay.
// Runs never deduplicate, so repeating one appends the same history again.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/dwes123/fpl-stats-go/internal/fpl"
	"github.com/dwes123/fpl-stats-go/internal/metrics"
	"github.com/dwes123/fpl-stats-go/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Source is the upstream API.
type Source interface {
	Bootstrap(ctx context.Context) (*fpl.Bootstrap, error)
	ElementSummary(ctx context.Context, playerID int) (*fpl.ElementSummary, error)
}

// Sink is the stats table. InsertPlayerStats must commit all rows or none.
type Sink interface {
	EnsureSchema(ctx context.Context) error
	InsertPlayerStats(ctx context.Context, rows []store.GameweekStat) error
}

type Importer struct {
	source  Source
	sink    Sink
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Importer)

func WithLogger(l *zap.Logger) Option { return func(im *Importer) { im.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(im *Importer) { im.metrics = m } }

// WithClock replaces time.Now for fetch timestamps and run timing.
func WithClock(now func() time.Time) Option { return func(im *Importer) { im.now = now } }

func New(source Source, sink Sink, opts ...Option) *Importer {
	im := &Importer{
		source: source,
		sink:   sink,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	if im.metrics == nil {
		im.metrics = metrics.New()
	}
	return im
}

// Summary describes a finished or aborted run.
type Summary struct {
	RunID     uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	// Players counts committed player batches, including empty ones.
	Players int
	Rows    int
}

func (s *Summary) String() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d rows for %d players in %s", s.Rows, s.Players, s.Duration.Round(time.Millisecond))
}

// EnsureSchema creates the stats table if needed.
func (im *Importer) EnsureSchema(ctx context.Context) error {
	if err := im.sink.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// FetchCatalog loads players, teams and positions from the bootstrap endpoint.
func (im *Importer) FetchCatalog(ctx context.Context) (*Catalog, error) {
	im.logger.Info("Fetching player list...")
	b, err := im.source.Bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	return NewCatalog(b), nil
}

// ImportPlayer fetches one player's history and commits it as one batch.
// A missing history inserts nothing and is not an error.
func (im *Importer) ImportPlayer(ctx context.Context, catalog *Catalog, player fpl.Element) (int, error) {
	team, position, err := catalog.Labels(player)
	if err != nil {
		return 0, err
	}

	im.logger.Info("Fetching history",
		zap.String("player", player.WebName),
		zap.Int("player_id", player.ID),
	)
	summary, err := im.source.ElementSummary(ctx, player.ID)
	if err != nil {
		return 0, fmt.Errorf("fetch history for %s (%d): %w", player.WebName, player.ID, err)
	}

	rows := make([]store.GameweekStat, 0, len(summary.History))
	for _, gw := range summary.History {
		rows = append(rows, store.GameweekStat{
			PlayerID:      player.ID,
			PlayerName:    player.WebName,
			TeamName:      team,
			Position:      position,
			Gameweek:      gw.Round,
			Minutes:       gw.Minutes,
			GoalsScored:   gw.GoalsScored,
			Assists:       gw.Assists,
			CleanSheets:   gw.CleanSheets,
			GoalsConceded: gw.GoalsConceded,
			YellowCards:   gw.YellowCards,
			RedCards:      gw.RedCards,
			TotalPoints:   gw.TotalPoints,
			DateFetched:   im.now(),
		})
	}

	if err := im.sink.InsertPlayerStats(ctx, rows); err != nil {
		return 0, fmt.Errorf("store history for %s (%d): %w", player.WebName, player.ID, err)
	}
	im.metrics.PlayerCommitted(len(rows))
	return len(rows), nil
}

// Run performs one full import. On error the returned summary still
// reports what was committed before the failure.
func (im *Importer) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.New(), StartedAt: im.now()}
	run := *im
	run.logger = im.logger.With(zap.String("run_id", summary.RunID.String()))

	err := run.run(ctx, summary)
	summary.Duration = im.now().Sub(summary.StartedAt)

	if err != nil {
		im.metrics.RunFinished(metrics.StatusFailure, im.now())
		run.logger.Error("Import aborted",
			zap.Int("players_committed", summary.Players),
			zap.Int("rows_committed", summary.Rows),
			zap.Error(err),
		)
		return summary, err
	}

	im.metrics.RunFinished(metrics.StatusSuccess, im.now())
	run.logger.Info("Stats imported successfully", zap.Stringer("summary", summary))
	return summary, nil
}

func (im *Importer) run(ctx context.Context, summary *Summary) error {
	if err := im.EnsureSchema(ctx); err != nil {
		return err
	}

	catalog, err := im.FetchCatalog(ctx)
	if err != nil {
		return err
	}

	for _, player := range catalog.Players {
		n, err := im.ImportPlayer(ctx, catalog, player)
		if err != nil {
			return err
		}
		summary.Players++
		summary.Rows += n
	}
	return nil
}
