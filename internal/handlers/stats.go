package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dwes123/fpl-stats-go/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Row limits for the read endpoints.
const (
	RecentStatsLimit = 100
	PlayerStatsLimit = 50
	ProfileStatLimit = 10
)

// StatsReader is the read side of store.GameweekStats.
type StatsReader interface {
	ListRecent(ctx context.Context, limit int) ([]store.GameweekStat, error)
	ListByPlayer(ctx context.Context, playerID, limit int) ([]store.GameweekStat, error)
	PlayerSummary(ctx context.Context, playerID, statLimit int) (*store.PlayerSummary, error)
}

// PlayerGameweekStatsHandler serves GET /player-gameweek-stats.
// With ?player_id=N it returns that player's latest rows, otherwise the
// latest rows across everyone.
func PlayerGameweekStatsHandler(stats StatsReader, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			rows []store.GameweekStat
			err  error
		)

		if raw := c.Query("player_id"); raw != "" {
			playerID, convErr := strconv.Atoi(raw)
			if convErr != nil || playerID <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "player_id must be a positive integer"})
				return
			}
			rows, err = stats.ListByPlayer(c.Request.Context(), playerID, PlayerStatsLimit)
		} else {
			rows, err = stats.ListRecent(c.Request.Context(), RecentStatsLimit)
		}

		if err != nil {
			logger.Error("Error fetching player gameweek stats", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// PlayerHandler serves GET /player/:id with the player's identity and their
// last few gameweeks.
func PlayerHandler(stats StatsReader, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, err := strconv.Atoi(c.Param("id"))
		if err != nil || playerID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid player id"})
			return
		}

		player, err := stats.PlayerSummary(c.Request.Context(), playerID, ProfileStatLimit)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
			return
		}
		if err != nil {
			logger.Error("Error fetching player", zap.Int("player_id", playerID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, player)
	}
}

// PingHandler reports liveness.
func PingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "FPL stats API is live"})
	}
}
