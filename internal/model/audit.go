package model

import "time"

// AuditEvent is one row of the `audit_events` table. Every successful
// lifecycle mutation produces exactly one event.
//
// Fields:
//  ID         – uuid assigned by the publisher, also the AMQP message id.
//  Entity     – lab, admin, staff, zone, subzone, category or test.
//  Action     – created, updated, activated, deactivated, deleted, restored or removed.
//  ParentID   – id of the owning document (the lab for an admin).
//  ChildID    – id of the embedded child, empty for top-level entities.
//  Actor      – subject of the token that performed the mutation.
type AuditEvent struct {
	ID         string    `json:"id"`
	Entity     string    `json:"entity"`
	Action     string    `json:"action"`
	ParentID   string    `json:"parentId"`
	ChildID    string    `json:"childId,omitempty"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurredAt"`
}

// AuditFilter narrows an audit listing. Zero values match everything.
type AuditFilter struct {
	Entity   string
	EntityID string
	Limit    int
}
