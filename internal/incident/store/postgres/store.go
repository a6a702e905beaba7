package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"finbooks/internal/incident"
	"finbooks/pkg/platform/sentinel"
	txcontext "finbooks/pkg/platform/tx"
)

// Store persists breach incidents in the breach_incidents table.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL incident store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Create(ctx context.Context, inc *incident.BreachIncident) error {
	query := `
		INSERT INTO breach_incidents (
			id, incident_id, detected_at, severity, breach_type,
			affected_user_ids, affected_data_types,
			ico_notified_at, users_notified_at, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		inc.ID,
		inc.IncidentID,
		inc.DetectedAt,
		string(inc.Severity),
		inc.BreachType,
		pq.Array(inc.AffectedUserIDs),
		pq.Array(inc.AffectedDataTypes),
		inc.ICONotifiedAt,
		inc.UsersNotifiedAt,
		string(inc.Status),
		inc.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: incident %s", sentinel.ErrConflict, inc.IncidentID)
		}
		return fmt.Errorf("insert breach incident: %w", err)
	}
	return nil
}

func (s *Store) GetByIncidentID(ctx context.Context, incidentID string) (*incident.BreachIncident, error) {
	query := selectColumns + ` WHERE incident_id = $1`

	row := s.db.QueryRowContext(ctx, query, incidentID)
	inc, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get breach incident: %w", err)
	}
	return inc, nil
}

// ListOpenICOIncidents returns incidents still owing a regulator notification.
func (s *Store) ListOpenICOIncidents(ctx context.Context) ([]*incident.BreachIncident, error) {
	query := selectColumns + ` WHERE ico_notified_at IS NULL ORDER BY detected_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list open incidents: %w", err)
	}
	defer rows.Close()

	var open []*incident.BreachIncident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan breach incident: %w", err)
		}
		open = append(open, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate breach incidents: %w", err)
	}
	return open, nil
}

// MarkICONotified sets the regulator-notified timestamp. Idempotent: the
// guard keeps the first timestamp if one is already set.
func (s *Store) MarkICONotified(ctx context.Context, incidentID string) error {
	return s.markNotified(ctx, "ico_notified_at", incidentID)
}

// MarkUsersNotified sets the users-notified timestamp. Idempotent.
func (s *Store) MarkUsersNotified(ctx context.Context, incidentID string) error {
	return s.markNotified(ctx, "users_notified_at", incidentID)
}

func (s *Store) markNotified(ctx context.Context, column, incidentID string) error {
	query := fmt.Sprintf(`
		UPDATE breach_incidents
		SET %s = $1
		WHERE incident_id = $2 AND %s IS NULL
	`, column, column)

	res, err := s.execer(ctx).ExecContext(ctx, query, time.Now(), incidentID)
	if err != nil {
		return fmt.Errorf("mark %s: %w", column, err)
	}

	// Zero rows means either already marked (fine, the first timestamp stands)
	// or an unknown incident.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := s.GetByIncidentID(ctx, incidentID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, incidentID string, status incident.Status) error {
	query := `UPDATE breach_incidents SET status = $1 WHERE incident_id = $2`

	res, err := s.execer(ctx).ExecContext(ctx, query, string(status), incidentID)
	if err != nil {
		return fmt.Errorf("update incident status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const selectColumns = `
	SELECT id, incident_id, detected_at, severity, breach_type,
	       affected_user_ids, affected_data_types,
	       ico_notified_at, users_notified_at, status, created_at
	FROM breach_incidents`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*incident.BreachIncident, error) {
	var (
		inc       incident.BreachIncident
		severity  string
		status    string
		userIDs   pq.StringArray
		dataTypes pq.StringArray
	)
	err := row.Scan(
		&inc.ID, &inc.IncidentID, &inc.DetectedAt, &severity, &inc.BreachType,
		&userIDs, &dataTypes,
		&inc.ICONotifiedAt, &inc.UsersNotifiedAt, &status, &inc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	inc.Severity = incident.Severity(severity)
	inc.Status = incident.Status(status)
	inc.AffectedUserIDs = userIDs
	inc.AffectedDataTypes = dataTypes
	return &inc, nil
}
