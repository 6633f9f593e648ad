package discord

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

const (
	// Colors for Discord embeds
	colorRed    = 15158332 // 0xE74C3C - key rejected
	colorOrange = 15105570 // 0xE67E22 - run finished with failures
	colorGreen  = 5763719  // 0x57F287 - clean run

	// Default timeout for webhook requests
	defaultWebhookTimeout = 10 * time.Second

	// Max retries for rate limiting
	maxRetries = 3
)

// WebhookPayload represents a Discord webhook message
type WebhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed represents a Discord embed
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedField represents a field in a Discord embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter represents the footer of a Discord embed
type EmbedFooter struct {
	Text string `json:"text"`
}

// RunSummary is what a finished collection run reports.
type RunSummary struct {
	RunID            string
	Identities       int
	IdentitiesFailed int
	MatchesSaved     int
	MatchesSkipped   int
	MatchesFailed    int
	Snapshots        int
	Runtime          time.Duration
	Cancelled        bool
}

// NewRunSummaryPayload creates the end-of-run notification
func NewRunSummaryPayload(s RunSummary) WebhookPayload {
	title := "✅ Collection Run Complete"
	color := colorGreen
	switch {
	case s.Cancelled:
		title = "⏹️ Collection Run Interrupted"
		color = colorOrange
	case s.MatchesFailed > 0 || s.IdentitiesFailed > 0:
		title = "⚠️ Collection Run Finished With Failures"
		color = colorOrange
	}

	return WebhookPayload{
		Embeds: []Embed{
			{
				Title: title,
				Color: color,
				Fields: []EmbedField{
					{Name: "Matches Saved", Value: formatNumber(s.MatchesSaved), Inline: true},
					{Name: "Intervals", Value: formatNumber(s.Snapshots), Inline: true},
					{Name: "Runtime", Value: formatDuration(s.Runtime), Inline: true},
					{Name: "Identities", Value: fmt.Sprintf("%d (%d failed)", s.Identities, s.IdentitiesFailed), Inline: true},
					{Name: "Skipped", Value: formatNumber(s.MatchesSkipped), Inline: true},
					{Name: "Failed", Value: formatNumber(s.MatchesFailed), Inline: true},
				},
				Footer: &EmbedFooter{
					Text: "Run " + s.RunID,
				},
			},
		},
	}
}

// NewKeyRejectedPayload creates the alert sent when the API key fails validation
func NewKeyRejectedPayload(apiKey string) WebhookPayload {
	return WebhookPayload{
		Content: "@here API Key Rejected!",
		Embeds: []Embed{
			{
				Title: "🔑 API Key Rejected",
				Color: colorRed,
				Fields: []EmbedField{
					{
						Name:   "Key",
						Value:  maskAPIKey(apiKey),
						Inline: true,
					},
				},
				Footer: &EmbedFooter{
					Text: "Set a fresh RIOT_API_KEY and restart the collector",
				},
			},
		},
	}
}

// WebhookClient sends notifications to Discord webhooks
type WebhookClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewWebhookClient creates a new WebhookClient
func NewWebhookClient(webhookURL string) *WebhookClient {
	return &WebhookClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: defaultWebhookTimeout,
		},
	}
}

// SendRunSummary sends the end-of-run notification
func (c *WebhookClient) SendRunSummary(ctx context.Context, s RunSummary) error {
	return c.sendPayload(ctx, NewRunSummaryPayload(s))
}

// SendKeyRejected sends the key rejection alert
func (c *WebhookClient) SendKeyRejected(ctx context.Context, apiKey string) error {
	return c.sendPayload(ctx, NewKeyRejectedPayload(apiKey))
}

// sendPayload sends a webhook payload with retry on rate limiting
func (c *WebhookClient) sendPayload(ctx context.Context, payload WebhookPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		resp.Body.Close()

		// Discord returns 204 No Content
		if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
			return nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := time.Second
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				waitDuration = time.Duration(seconds) * time.Second
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	return fmt.Errorf("webhook request failed after %d retries", maxRetries)
}

// formatNumber formats a number with commas (e.g., 47832 -> "47,832")
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := strconv.Itoa(n)
	if n < 1000 {
		return s
	}

	var result bytes.Buffer
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(c)
	}
	return result.String()
}

// formatDuration formats a duration as "Xh Ym" (e.g., 18h 32m)
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// maskAPIKey masks an API key for display (e.g., "RGAPI-xxxx-xxxx" -> "RGAPI...xxxx")
func maskAPIKey(key string) string {
	if len(key) <= 10 {
		return "****"
	}
	return key[:5] + "..." + key[len(key)-4:]
}
