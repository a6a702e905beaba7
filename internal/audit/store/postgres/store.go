package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"finbooks/internal/audit"
	"finbooks/pkg/platform/sentinel"
	txcontext "finbooks/pkg/platform/tx"
)

// Store persists audit events in the audit_events table. Batches go in as a
// single multi-row INSERT so a flush is one store round trip.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
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

const insertColumns = 12

// InsertBatch writes a batch of events in one statement. A permission
// rejection from the database is wrapped as sentinel.ErrUnauthorized so the
// writer knows not to retry it.
func (s *Store) InsertBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args = make([]any, 0, len(events)*insertColumns)
	)
	sb.WriteString(`
		INSERT INTO audit_events (
			id, actor_id, team_id, action, entity_type, entity_id,
			entity_name, changes, metadata, ip_address, user_agent, timestamp
		) VALUES `)

	for i, e := range events {
		changes, err := marshalJSON(e.Changes)
		if err != nil {
			return fmt.Errorf("marshal changes: %w", err)
		}
		metadata, err := marshalJSON(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}

		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * insertColumns
		sb.WriteByte('(')
		for j := 1; j <= insertColumns; j++ {
			if j > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+j)
		}
		sb.WriteByte(')')

		args = append(args,
			e.ID,
			e.ActorID,
			nullable(e.TeamID),
			string(e.Action),
			nullable(string(e.EntityType)),
			nullable(e.EntityID),
			nullable(e.EntityName),
			changes,
			metadata,
			nullable(e.IPAddress),
			nullable(e.UserAgent),
			e.Timestamp,
		)
	}

	if _, err := s.execer(ctx).ExecContext(ctx, sb.String(), args...); err != nil {
		return classify(err)
	}
	return nil
}

// Query returns events matching the filter, newest-first.
func (s *Store) Query(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.ActorID != "" {
		add("actor_id = $%d", filter.ActorID)
	}
	if filter.TeamID != "" {
		add("team_id = $%d", filter.TeamID)
	}
	if filter.EntityType != "" {
		add("entity_type = $%d", string(filter.EntityType))
	}
	if filter.EntityID != "" {
		add("entity_id = $%d", filter.EntityID)
	}
	if filter.Action != "" {
		add("action = $%d", string(filter.Action))
	}
	if filter.Since != nil {
		add("timestamp >= $%d", *filter.Since)
	}
	if filter.Until != nil {
		add("timestamp <= $%d", *filter.Until)
	}

	query := `
		SELECT id, actor_id, team_id, action, entity_type, entity_id,
		       entity_name, changes, metadata, ip_address, user_agent, timestamp
		FROM audit_events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", classify(err))
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			e          audit.Event
			teamID     sql.NullString
			entityType sql.NullString
			entityID   sql.NullString
			entityName sql.NullString
			changes    []byte
			metadata   []byte
			ipAddress  sql.NullString
			userAgent  sql.NullString
			ts         time.Time
		)
		err := rows.Scan(
			&e.ID, &e.ActorID, &teamID, &e.Action, &entityType, &entityID,
			&entityName, &changes, &metadata, &ipAddress, &userAgent, &ts,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		e.TeamID = teamID.String
		e.EntityType = audit.EntityType(entityType.String)
		e.EntityID = entityID.String
		e.EntityName = entityName.String
		e.IPAddress = ipAddress.String
		e.UserAgent = userAgent.String
		e.Timestamp = ts

		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				return nil, fmt.Errorf("unmarshal changes: %w", err)
			}
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}

		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// classify maps driver errors onto the sentinel taxonomy. Permission errors
// (insufficient_privilege, authorization failures) are permanent; everything
// else stays transient.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "42501" || pqErr.Code.Class() == "28" {
			return fmt.Errorf("%w: %s", sentinel.ErrUnauthorized, pqErr.Message)
		}
	}
	return err
}

func marshalJSON[V any](m map[string]V) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
