// Package notification posts import run outcomes to Slack.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const slackPostMessageURL = "https://slack.com/api/chat.postMessage"

type slackPayload struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type slackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Slack posts messages with a bot token. A zero-value Slack (no token or
// channel) is disabled and every Notify is a no-op.
type Slack struct {
	Token   string
	Channel string
	URL     string
	HTTP    *http.Client
}

func NewSlack(token, channel string) *Slack {
	return &Slack{
		Token:   token,
		Channel: channel,
		URL:     slackPostMessageURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Slack) Enabled() bool {
	return s != nil && s.Token != "" && s.Channel != ""
}

// Notify posts text to the configured channel.
func (s *Slack) Notify(ctx context.Context, text string) error {
	if !s.Enabled() {
		return nil
	}

	body, err := json.Marshal(slackPayload{Channel: s.Channel, Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack api error: %d", resp.StatusCode)
	}

	// chat.postMessage reports most failures with 200 and ok=false.
	var out slackResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return fmt.Errorf("slack response: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("slack api error: %s", out.Error)
	}
	return nil
}
