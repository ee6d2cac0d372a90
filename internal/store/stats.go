package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// DB is the subset of *pgxpool.Pool (and *pgx.Conn) the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// GameweekStat is one row of fpl_player_gameweek_stats. Team and position
// are copied in at fetch time, so later upstream renames leave old rows alone.
type GameweekStat struct {
	ID            int       `json:"id"`
	PlayerID      int       `json:"player_id"`
	PlayerName    string    `json:"player_name"`
	TeamName      string    `json:"team_name"`
	Position      string    `json:"position"`
	Gameweek      int       `json:"gameweek"`
	Minutes       int       `json:"minutes"`
	GoalsScored   int       `json:"goals_scored"`
	Assists       int       `json:"assists"`
	CleanSheets   int       `json:"clean_sheets"`
	GoalsConceded int       `json:"goals_conceded"`
	YellowCards   int       `json:"yellow_cards"`
	RedCards      int       `json:"red_cards"`
	TotalPoints   int       `json:"total_points"`
	DateFetched   time.Time `json:"date_fetched"`
}

// PlayerSummary is the player identity as of the most recently stored row.
type PlayerSummary struct {
	PlayerID   int            `json:"player_id"`
	PlayerName string         `json:"player_name"`
	TeamName   string         `json:"team_name"`
	Position   string         `json:"position"`
	Stats      []GameweekStat `json:"stats"`
}

const createStatsTable = `
CREATE TABLE IF NOT EXISTS fpl_player_gameweek_stats (
    id SERIAL PRIMARY KEY,
    player_id INTEGER,
    player_name TEXT,
    team_name TEXT,
    position TEXT,
    gameweek INTEGER,
    minutes INTEGER,
    goals_scored INTEGER,
    assists INTEGER,
    clean_sheets INTEGER,
    goals_conceded INTEGER,
    yellow_cards INTEGER,
    red_cards INTEGER,
    total_points INTEGER,
    date_fetched TIMESTAMP
)`

const insertStat = `
INSERT INTO fpl_player_gameweek_stats (
    player_id, player_name, team_name, position, gameweek,
    minutes, goals_scored, assists, clean_sheets,
    goals_conceded, yellow_cards, red_cards,
    total_points, date_fetched
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

const statColumns = `id, COALESCE(player_id, 0), COALESCE(player_name, ''), COALESCE(team_name, ''), COALESCE(position, ''),
    COALESCE(gameweek, 0), COALESCE(minutes, 0), COALESCE(goals_scored, 0), COALESCE(assists, 0),
    COALESCE(clean_sheets, 0), COALESCE(goals_conceded, 0), COALESCE(yellow_cards, 0),
    COALESCE(red_cards, 0), COALESCE(total_points, 0), COALESCE(date_fetched, 'epoch'::timestamp)`

// GameweekStats reads and appends rows of fpl_player_gameweek_stats.
type GameweekStats struct {
	db DB
}

func NewGameweekStats(db DB) *GameweekStats {
	return &GameweekStats{db: db}
}

// EnsureSchema creates the stats table if it does not exist. An existing
// table is left as is, even if its columns differ.
func (s *GameweekStats) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createStatsTable); err != nil {
		return fmt.Errorf("create fpl_player_gameweek_stats: %w", err)
	}
	return nil
}

// InsertPlayerStats appends rows in a single transaction, one INSERT per
// row. Nothing is deduplicated: inserting the same gameweek twice stores it twice.
func (s *GameweekStats) InsertPlayerStats(ctx context.Context, rows []GameweekStat) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, r := range rows {
		_, err := tx.Exec(ctx, insertStat,
			r.PlayerID,
			r.PlayerName,
			r.TeamName,
			r.Position,
			r.Gameweek,
			r.Minutes,
			r.GoalsScored,
			r.Assists,
			r.CleanSheets,
			r.GoalsConceded,
			r.YellowCards,
			r.RedCards,
			r.TotalPoints,
			r.DateFetched,
		)
		if err != nil {
			return fmt.Errorf("insert player %d gameweek %d: %w", r.PlayerID, r.Gameweek, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit player stats: %w", err)
	}
	return nil
}

// ListRecent returns up to limit rows across all players, latest gameweek first.
func (s *GameweekStats) ListRecent(ctx context.Context, limit int) ([]GameweekStat, error) {
	return s.list(ctx, `SELECT `+statColumns+` FROM fpl_player_gameweek_stats
		ORDER BY gameweek DESC, id DESC LIMIT $1`, limit)
}

// ListByPlayer returns up to limit rows for one player, latest gameweek first.
func (s *GameweekStats) ListByPlayer(ctx context.Context, playerID, limit int) ([]GameweekStat, error) {
	return s.list(ctx, `SELECT `+statColumns+` FROM fpl_player_gameweek_stats
		WHERE player_id = $2
		ORDER BY gameweek DESC, id DESC LIMIT $1`, limit, playerID)
}

// PlayerSummary returns the player's name, team and position from the most
// recently inserted row plus their latest statLimit rows.
func (s *GameweekStats) PlayerSummary(ctx context.Context, playerID, statLimit int) (*PlayerSummary, error) {
	p := &PlayerSummary{PlayerID: playerID}
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(player_name, ''), COALESCE(team_name, ''), COALESCE(position, '')
		FROM fpl_player_gameweek_stats
		WHERE player_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, playerID).Scan(&p.PlayerName, &p.TeamName, &p.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("player %d: %w", playerID, err)
	}

	p.Stats, err = s.ListByPlayer(ctx, playerID, statLimit)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Count returns the total number of stored rows.
func (s *GameweekStats) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM fpl_player_gameweek_stats`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stats: %w", err)
	}
	return n, nil
}

func (s *GameweekStats) list(ctx context.Context, query string, args ...any) ([]GameweekStat, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := []GameweekStat{}
	for rows.Next() {
		var r GameweekStat
		if err := rows.Scan(
			&r.ID, &r.PlayerID, &r.PlayerName, &r.TeamName, &r.Position,
			&r.Gameweek, &r.Minutes, &r.GoalsScored, &r.Assists,
			&r.CleanSheets, &r.GoalsConceded, &r.YellowCards,
			&r.RedCards, &r.TotalPoints, &r.DateFetched,
		); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		stats = append(stats, r)
	}
	return stats, rows.Err()
}
