package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dwes123/fpl-stats-go/internal/config"
	"github.com/dwes123/fpl-stats-go/internal/fpl"
	"github.com/dwes123/fpl-stats-go/internal/metrics"
	"github.com/dwes123/fpl-stats-go/internal/notification"
	"github.com/dwes123/fpl-stats-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memorySink struct {
	rows []store.GameweekStat
}

func (s *memorySink) EnsureSchema(context.Context) error { return nil }

func (s *memorySink) InsertPlayerStats(_ context.Context, rows []store.GameweekStat) error {
	s.rows = append(s.rows, rows...)
	return nil
}

const history = `{"history": [{"round": 1, "minutes": 90, "goals_scored": 0, "assists": 1,
	"clean_sheets": 0, "goals_conceded": 2, "yellow_cards": 0, "red_cards": 0, "total_points": 4}]}`

// upstream serves a two-player catalog. When secondFails is set the second
// player's history returns 503.
func upstream(t *testing.T, secondFails bool) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/bootstrap-static/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"elements": [
				{"id": 1, "web_name": "Saka", "team": 1, "element_type": 3},
				{"id": 2, "web_name": "Rice", "team": 1, "element_type": 3}
			],
			"teams": [{"id": 1, "name": "Arsenal"}],
			"element_types": [{"id": 3, "singular_name": "Midfielder"}]
		}`))
	})
	mux.HandleFunc("/element-summary/1/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(history))
	})
	mux.HandleFunc("/element-summary/2/", func(w http.ResponseWriter, r *http.Request) {
		if secondFails {
			http.Error(w, "The game is being updated.", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(history))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

// reporters records, in arrival order, the Slack messages and Pushgateway
// bodies the command sends.
type reporters struct {
	mu        sync.Mutex
	order     []string
	slackText string
	pushBody  string

	slack *notification.Slack
	push  string
}

func newReporters(t *testing.T, slackReply string) *reporters {
	t.Helper()
	rep := &reporters{}

	slackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		rep.mu.Lock()
		rep.order = append(rep.order, "slack")
		rep.slackText = payload.Text
		rep.mu.Unlock()
		_, _ = w.Write([]byte(slackReply))
	}))
	t.Cleanup(slackSrv.Close)

	pushSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rep.mu.Lock()
		rep.order = append(rep.order, "push")
		rep.pushBody = string(b)
		rep.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(pushSrv.Close)

	rep.slack = notification.NewSlack("xoxb-test", "C123")
	rep.slack.URL = slackSrv.URL
	rep.push = pushSrv.URL
	return rep
}

func testConfig(upstreamURL, pushURL string) *config.Config {
	return &config.Config{
		FPL:                   config.FPLConfig{BaseURL: upstreamURL, UserAgent: "test"},
		MetricsPushgatewayURL: pushURL,
	}
}

func TestImportAndReport_Success(t *testing.T) {
	rep := newReporters(t, `{"ok": true}`)
	sink := &memorySink{}

	err := importAndReport(context.Background(), testConfig(upstream(t, false), rep.push), sink, rep.slack, zap.NewNop())
	require.NoError(t, err)

	assert.Len(t, sink.rows, 2)
	assert.Equal(t, []string{"slack", "push"}, rep.order)
	assert.Contains(t, rep.slackText, "import complete: 2 rows for 2 players")
	assert.Contains(t, rep.pushBody, "fpl_stats_rows_inserted_total")
}

func TestImportAndReport_FailureIsReportedAndReturned(t *testing.T) {
	rep := newReporters(t, `{"ok": true}`)
	sink := &memorySink{}

	err := importAndReport(context.Background(), testConfig(upstream(t, true), rep.push), sink, rep.slack, zap.NewNop())
	require.Error(t, err)

	var statusErr *fpl.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)

	assert.Len(t, sink.rows, 1, "the first player's commit stays")
	assert.Equal(t, []string{"slack", "push"}, rep.order, "a failed run is still reported")
	assert.Contains(t, rep.slackText, "import failed after 1 players")
	assert.Contains(t, rep.pushBody, "fpl_stats_import_runs_total")
	assert.Contains(t, rep.pushBody, metrics.StatusFailure)
}

func TestImportAndReport_ReportingFailuresDoNotFailTheRun(t *testing.T) {
	rep := newReporters(t, `{"ok": false, "error": "channel_not_found"}`)
	core, logs := observer.New(zapcore.WarnLevel)

	cfg := testConfig(upstream(t, false), "http://127.0.0.1:1")
	err := importAndReport(context.Background(), cfg, &memorySink{}, rep.slack, zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("Failed to post Slack notification").Len())
	assert.Equal(t, 1, logs.FilterMessage("Failed to push metrics").Len())
}

func TestImportAndReport_DisabledReporters(t *testing.T) {
	sink := &memorySink{}

	err := importAndReport(context.Background(), testConfig(upstream(t, false), ""), sink, notification.NewSlack("", ""), zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, sink.rows, 2)
}
