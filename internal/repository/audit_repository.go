package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/lab-registry/internal/model"
)

// auditSchema creates the audit table. The primary key is the event id, so
// a redelivered message is ignored rather than stored twice.
const auditSchema = `CREATE TABLE IF NOT EXISTS audit_events (
	id          CHAR(36)     NOT NULL PRIMARY KEY,
	entity      VARCHAR(32)  NOT NULL,
	action      VARCHAR(32)  NOT NULL,
	parent_id   CHAR(24)     NOT NULL,
	child_id    CHAR(24)     NOT NULL DEFAULT '',
	actor       VARCHAR(128) NOT NULL,
	occurred_at DATETIME(3)  NOT NULL,
	KEY idx_audit_parent (parent_id, occurred_at),
	KEY idx_audit_child (child_id, occurred_at),
	KEY idx_audit_entity (entity, occurred_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const defaultAuditLimit = 100

// AuditRepo persists lifecycle events in MySQL.
type AuditRepo struct {
	db *sql.DB // db is the MySQL connection pool
}

// NewAuditRepo constructs an AuditRepo on an open pool.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// EnsureSchema creates the audit table when it is missing.
func (r *AuditRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, auditSchema)
	return err
}

// Insert stores one event. Inserting an id that already exists is a no-op.
func (r *AuditRepo) Insert(ctx context.Context, ev model.AuditEvent) error {
	const q = `INSERT IGNORE INTO audit_events (id, entity, action, parent_id, child_id, actor, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, ev.ID, ev.Entity, ev.Action, ev.ParentID, ev.ChildID, ev.Actor, ev.OccurredAt.UTC())
	return err
}

// List returns the newest events matching f. EntityID matches either the
// parent or the child id.
func (r *AuditRepo) List(ctx context.Context, f model.AuditFilter) ([]model.AuditEvent, error) {
	var (
		where []string
		args  []any
	)
	if f.Entity != "" {
		where = append(where, "entity = ?")
		args = append(args, f.Entity)
	}
	if f.EntityID != "" {
		where = append(where, "(parent_id = ? OR child_id = ?)")
		args = append(args, f.EntityID, f.EntityID)
	}
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = defaultAuditLimit
	}

	q := "SELECT id, entity, action, parent_id, child_id, actor, occurred_at FROM audit_events"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY occurred_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.AuditEvent{}
	for rows.Next() {
		var ev model.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.Entity, &ev.Action, &ev.ParentID, &ev.ChildID, &ev.Actor, &ev.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
