package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookDispatcher posts notifications as JSON to a configured endpoint
// (ops chat relay, incident-management tool, email bridge).
type WebhookDispatcher struct {
	url        string
	httpClient *http.Client
}

// NewWebhookDispatcher creates a dispatcher posting to url.
func NewWebhookDispatcher(url string, timeout time.Duration) *WebhookDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookDispatcher{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (d *WebhookDispatcher) SendWarning(ctx context.Context, w Warning) error {
	return d.post(ctx, map[string]any{
		"type":            "BREACH_DEADLINE_WARNING",
		"incident_id":     w.IncidentID,
		"breach_type":     w.BreachType,
		"severity":        w.Severity,
		"hours_remaining": w.HoursRemaining,
		"affected_users":  w.AffectedUsers,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (d *WebhookDispatcher) SendEscalation(ctx context.Context, e Escalation) error {
	return d.post(ctx, map[string]any{
		"type":          "BREACH_DEADLINE_PASSED",
		"incident_id":   e.IncidentID,
		"breach_type":   e.BreachType,
		"severity":      e.Severity,
		"hours_overdue": e.HoursOverdue,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (d *WebhookDispatcher) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Source", "finbooks-compliance")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}
	return nil
}
