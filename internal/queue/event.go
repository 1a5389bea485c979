// Package queue defines the lifecycle events exchanged over RabbitMQ and
// the consumer that records them in the audit trail.
package queue

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/lab-registry/internal/model"
)

// DefaultQueue is the durable queue carrying lifecycle events.
const DefaultQueue = "lab_lifecycle_events"

// Actions recorded for registry entities.
const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionActivated   = "activated"
	ActionDeactivated = "deactivated"
	ActionDeleted     = "deleted"
	ActionRestored    = "restored"
	ActionRemoved     = "removed"
)

// LifecycleEvent is published after a successful mutation. ParentID is the
// lab, zone or category; ChildID is set for embedded children.
type LifecycleEvent struct {
	ID         string    `json:"id"`
	Entity     string    `json:"entity"`
	Action     string    `json:"action"`
	ParentID   string    `json:"parent_id"`
	ChildID    string    `json:"child_id,omitempty"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewLifecycleEvent stamps a fresh event id and the current time.
func NewLifecycleEvent(entity, action, parentID, childID, actor string) LifecycleEvent {
	return LifecycleEvent{
		ID:         uuid.NewString(),
		Entity:     entity,
		Action:     action,
		ParentID:   parentID,
		ChildID:    childID,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}

func (e LifecycleEvent) validate() error {
	if _, err := uuid.Parse(e.ID); err != nil {
		return errors.New("event id is not a uuid")
	}
	if e.Entity == "" || e.Action == "" || e.ParentID == "" {
		return errors.New("event is missing entity, action or parent id")
	}
	return nil
}

// Record converts the event to its audit trail row.
func (e LifecycleEvent) Record() model.AuditEvent {
	return model.AuditEvent{
		ID:         e.ID,
		Entity:     e.Entity,
		Action:     e.Action,
		ParentID:   e.ParentID,
		ChildID:    e.ChildID,
		Actor:      e.Actor,
		OccurredAt: e.OccurredAt,
	}
}
