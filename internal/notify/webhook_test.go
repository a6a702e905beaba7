package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbooks/internal/incident"
)

func TestWebhookDispatcher_SendWarning(t *testing.T) {
	var received map[string]any
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, 5*time.Second)
	err := d.SendWarning(context.Background(), Warning{
		IncidentID:     "BR-20260410-150000-ABC123",
		BreachType:     "unauthorized_access",
		Severity:       incident.SeverityHigh,
		HoursRemaining: 22.5,
		AffectedUsers:  41,
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, "finbooks-compliance", header.Get("X-Webhook-Source"))

	assert.Equal(t, "BREACH_DEADLINE_WARNING", received["type"])
	assert.Equal(t, "BR-20260410-150000-ABC123", received["incident_id"])
	assert.Equal(t, "unauthorized_access", received["breach_type"])
	assert.Equal(t, "high", received["severity"])
	assert.Equal(t, 22.5, received["hours_remaining"])
	assert.Equal(t, float64(41), received["affected_users"])
	assert.NotEmpty(t, received["timestamp"])
}

func TestWebhookDispatcher_SendEscalation(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, 5*time.Second)
	err := d.SendEscalation(context.Background(), Escalation{
		IncidentID:   "BR-1",
		BreachType:   "data_exfiltration",
		Severity:     incident.SeverityCritical,
		HoursOverdue: 3.25,
	})
	require.NoError(t, err)

	assert.Equal(t, "BREACH_DEADLINE_PASSED", received["type"])
	assert.Equal(t, 3.25, received["hours_overdue"])
}

func TestWebhookDispatcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, 5*time.Second)
	err := d.SendWarning(context.Background(), Warning{IncidentID: "BR-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestWebhookDispatcher_UnreachableEndpoint(t *testing.T) {
	d := NewWebhookDispatcher("http://127.0.0.1:1", time.Second)
	err := d.SendEscalation(context.Background(), Escalation{IncidentID: "BR-1"})
	assert.Error(t, err)
}
