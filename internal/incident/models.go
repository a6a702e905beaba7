package incident

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity grades a breach incident.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Status tracks the caller-driven investigation lifecycle. Transitions are
// monotonic (investigating → contained → resolved) but not enforced here.
type Status string

const (
	StatusInvestigating Status = "investigating"
	StatusContained     Status = "contained"
	StatusResolved      Status = "resolved"
)

// BreachIncident is a reported data breach. DetectedAt anchors the 72-hour
// regulator-notification clock and never changes. ICONotifiedAt and
// UsersNotifiedAt are independent tracks; once set they are never cleared,
// and a set ICONotifiedAt permanently removes the incident from the deadline
// scanner's input.
type BreachIncident struct {
	ID                string
	IncidentID        string
	DetectedAt        time.Time
	Severity          Severity
	BreachType        string
	AffectedUserIDs   []string
	AffectedDataTypes []string
	ICONotifiedAt     *time.Time
	UsersNotifiedAt   *time.Time
	Status            Status
	CreatedAt         time.Time
}

// NewIncidentID builds a human-readable, globally unique incident reference:
// a detection timestamp plus a random suffix.
func NewIncidentID(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return fmt.Sprintf("BR-%s-%s", now.UTC().Format("20060102-150405"), suffix)
}
