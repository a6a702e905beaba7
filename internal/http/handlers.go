// Package http is the thin HTTP layer over the compliance pipeline.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"finbooks/internal/audit"
	"finbooks/internal/audit/writer"
	"finbooks/internal/incident"
	"finbooks/pkg/platform/sentinel"
)

// Handler handles the audit read path and the incident reporting flow.
type Handler struct {
	logger    *slog.Logger
	audit     *writer.Writer
	incidents incident.Store
	clock     func() time.Time
}

// NewHandler creates the HTTP handler.
func NewHandler(logger *slog.Logger, audit *writer.Writer, incidents incident.Store) *Handler {
	return &Handler{
		logger:    logger,
		audit:     audit,
		incidents: incidents,
		clock:     time.Now,
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAuditLogs serves the audit read path. All filters are optional and
// conjunctive; results are newest-first.
func (h *Handler) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := audit.Filter{
		ActorID:    q.Get("actor_id"),
		TeamID:     q.Get("team_id"),
		EntityType: audit.EntityType(q.Get("entity_type")),
		EntityID:   q.Get("entity_id"),
		Action:     audit.Action(q.Get("action")),
	}
	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		filter.Since = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date")
			return
		}
		filter.Until = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	events, err := h.audit.Query(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "audit query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type reportIncidentRequest struct {
	DetectedAt        *time.Time `json:"detected_at"`
	Severity          string     `json:"severity"`
	BreachType        string     `json:"breach_type"`
	AffectedUserIDs   []string   `json:"affected_user_ids"`
	AffectedDataTypes []string   `json:"affected_data_types"`
}

// handleReportIncident is the external reporting flow: it creates the
// incident exactly once; all later mutations go through the marking endpoints.
func (h *Handler) handleReportIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reportIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BreachType == "" {
		writeError(w, http.StatusBadRequest, "breach_type is required")
		return
	}

	now := h.clock()
	detectedAt := now
	if req.DetectedAt != nil {
		detectedAt = *req.DetectedAt
	}
	severity := incident.Severity(req.Severity)
	if severity == "" {
		severity = incident.SeverityMedium
	}

	inc := &incident.BreachIncident{
		ID:                uuid.NewString(),
		IncidentID:        incident.NewIncidentID(detectedAt),
		DetectedAt:        detectedAt,
		Severity:          severity,
		BreachType:        req.BreachType,
		AffectedUserIDs:   req.AffectedUserIDs,
		AffectedDataTypes: req.AffectedDataTypes,
		Status:            incident.StatusInvestigating,
		CreatedAt:         now,
	}
	if err := h.incidents.Create(ctx, inc); err != nil {
		h.logger.ErrorContext(ctx, "incident create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "incident create failed")
		return
	}

	if err := h.audit.LogCreate(ctx, "incident", inc.IncidentID, req.BreachType); err != nil {
		h.logger.WarnContext(ctx, "audit record for incident skipped", "error", err)
	}

	writeJSON(w, http.StatusCreated, incidentResponse(inc, h.clock()))
}

// handleOpenIncidents lists incidents still owing a regulator notification,
// with the same deadline math the scanner uses.
func (h *Handler) handleOpenIncidents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	open, err := h.incidents.ListOpenICOIncidents(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "listing open incidents failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing open incidents failed")
		return
	}

	now := h.clock()
	out := make([]map[string]any, 0, len(open))
	for _, inc := range open {
		out = append(out, incidentResponse(inc, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{"incidents": out})
}

func (h *Handler) handleMarkICONotified(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.incidents.MarkICONotified)
}

func (h *Handler) handleMarkUsersNotified(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.incidents.MarkUsersNotified)
}

func (h *Handler) mark(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, incidentID string) error) {
	ctx := r.Context()
	incidentID := chi.URLParam(r, "incidentID")

	if err := fn(ctx, incidentID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			writeError(w, http.StatusNotFound, "incident not found")
			return
		}
		h.logger.ErrorContext(ctx, "marking incident failed", "incident_id", incidentID, "error", err)
		writeError(w, http.StatusInternalServerError, "marking incident failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"incident_id": incidentID})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	incidentID := chi.URLParam(r, "incidentID")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status := incident.Status(req.Status)
	switch status {
	case incident.StatusInvestigating, incident.StatusContained, incident.StatusResolved:
	default:
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := h.incidents.UpdateStatus(ctx, incidentID, status); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			writeError(w, http.StatusNotFound, "incident not found")
			return
		}
		h.logger.ErrorContext(ctx, "status update failed", "incident_id", incidentID, "error", err)
		writeError(w, http.StatusInternalServerError, "status update failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"incident_id": incidentID, "status": req.Status})
}

func incidentResponse(inc *incident.BreachIncident, now time.Time) map[string]any {
	hours, minutes := incident.Countdown(inc.DetectedAt, now)
	return map[string]any{
		"incident_id":         inc.IncidentID,
		"detected_at":         inc.DetectedAt,
		"severity":            inc.Severity,
		"breach_type":         inc.BreachType,
		"affected_users":      len(inc.AffectedUserIDs),
		"affected_data_types": inc.AffectedDataTypes,
		"status":              inc.Status,
		"deadline":            incident.Deadline(inc.DetectedAt),
		"deadline_passed":     incident.IsPassed(inc.DetectedAt, now),
		"hours_remaining":     hours,
		"minutes_remaining":   minutes,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
