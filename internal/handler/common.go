package handler // handler defines the HTTP handlers of the registry API

import (
	"context" // context for store calls and event publishing
	"errors"  // errors reports a missing actor

	"github.com/labstack/echo/v4"                 // echo defines request context types
	"go.mongodb.org/mongo-driver/bson/primitive" // primitive parses object ids
	"go.uber.org/zap"                            // zap logs publish failures

	"github.com/iliyamo/lab-registry/internal/docstore"   // docstore is pinged by the health check
	"github.com/iliyamo/lab-registry/internal/metrics"    // metrics counts published events
	"github.com/iliyamo/lab-registry/internal/middleware" // middleware holds the verified actor id
	"github.com/iliyamo/lab-registry/internal/model"      // model holds audit rows
	"github.com/iliyamo/lab-registry/internal/queue"      // queue defines lifecycle events
	"github.com/iliyamo/lab-registry/internal/repository" // repository holds the registry logic
)

// EventPublisher sends lifecycle events; service.Publisher implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.LifecycleEvent) error
}

// AuditReader lists recorded lifecycle events; repository.AuditRepo
// implements it.
type AuditReader interface {
	List(ctx context.Context, f model.AuditFilter) ([]model.AuditEvent, error)
}

// Handler bundles the repositories behind the registry API.
type Handler struct {
	Labs       *repository.LabRepo      // Labs provides labs, admins and staffs
	Zones      *repository.ZoneRepo     // Zones provides zones and subzones
	Catalog    *repository.CategoryRepo // Catalog provides test categories and tests
	Store      docstore.Store           // Store is pinged by the health check
	Events     EventPublisher           // Events is nil when the audit pipeline is off
	Audit      AuditReader              // Audit is nil when the audit pipeline is off
	Log        *zap.Logger              // Log records publish failures
	BcryptCost int                      // BcryptCost hashes admin and staff passwords
}

// Deps lists what NewHandler needs. Events and Audit are optional.
type Deps struct {
	Labs       *repository.LabRepo
	Zones      *repository.ZoneRepo
	Catalog    *repository.CategoryRepo
	Store      docstore.Store
	Events     EventPublisher
	Audit      AuditReader
	Log        *zap.Logger
	BcryptCost int
}

// NewHandler constructs a Handler and panics if a required dependency is nil.
func NewHandler(d Deps) *Handler {
	if d.Labs == nil || d.Zones == nil || d.Catalog == nil || d.Store == nil || d.Log == nil { // check for nil dependencies
		panic("nil dependency passed to NewHandler")
	}
	return &Handler{
		Labs:       d.Labs,
		Zones:      d.Zones,
		Catalog:    d.Catalog,
		Store:      d.Store,
		Events:     d.Events,
		Audit:      d.Audit,
		Log:        d.Log,
		BcryptCost: d.BcryptCost,
	}
}

var errNoActor = errors.New("no verified actor in context")

// actor returns the verified caller id set by the JWT middleware.
func actor(c echo.Context) (string, error) {
	id, ok := middleware.ActorID(c)
	if !ok {
		return "", errNoActor
	}
	return id, nil
}

// oid parses an id that the validator already checked.
func oid(hex string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(hex)
	return id
}

// emit publishes a lifecycle event after a successful mutation. Failures
// are logged and never change the response.
func (h *Handler) emit(c echo.Context, entity, action string, parent, child primitive.ObjectID) {
	if h.Events == nil {
		return
	}
	who, _ := actor(c)
	childID := ""
	if !child.IsZero() {
		childID = child.Hex()
	}
	ev := queue.NewLifecycleEvent(entity, action, parent.Hex(), childID, who)
	if err := h.Events.Publish(context.WithoutCancel(c.Request().Context()), ev); err != nil {
		metrics.AuditEvents.WithLabelValues("publish", "failed").Inc()
		h.Log.Warn("lifecycle event not published",
			zap.String("event_id", ev.ID),
			zap.String("entity", entity),
			zap.String("action", action),
			zap.Error(err),
		)
		return
	}
	metrics.AuditEvents.WithLabelValues("publish", "sent").Inc()
}
