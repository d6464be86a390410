package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	embed := map[string]any{
		"title": n.Title,
		"url":   n.URL,
		"description": fmt.Sprintf("**立場:** %s #%s | **聳動:** %g #%s\n\n%s\n\n%s",
			n.Bucket, n.Leaning, n.Clickbait, n.Verdict, n.Summary, strings.Join(n.Reasons, ", ")),
		"color":     embedColor(n),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(map[string]any{"embeds": []map[string]any{embed}})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook status %d", resp.StatusCode)
	}
	return nil
}

// embedColor tints the embed with the spectrum side: green below 0, blue
// above, grey at 0.
func embedColor(n *Notification) int {
	switch {
	case n.Spectrum < 0:
		return 0x4BA069
	case n.Spectrum > 0:
		return 0x2B05FF
	default:
		return 0x9CA3AF
	}
}
