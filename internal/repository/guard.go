package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/iliyamo/lab-registry/internal/docstore"
)

// liveLab matches labs that are not soft deleted. Documents written before
// the flag existed count as live.
func liveLab() bson.M { return bson.M{"isDeleted": bson.M{"$ne": true}} }

// ReferenceGuard answers whether zones and subzones are referenced by labs.
// Only non-deleted labs hold references; restoring a lab re-validates its
// location instead. The check and the guarded delete are separate store
// calls, so a lab created in between is not seen.
type ReferenceGuard struct {
	store docstore.Store
	log   *zap.Logger
}

// NewReferenceGuard binds a guard to the store.
func NewReferenceGuard(store docstore.Store, log *zap.Logger) *ReferenceGuard {
	return &ReferenceGuard{store: store, log: log}
}

// ZoneInUse reports whether any live lab references zoneID.
func (g *ReferenceGuard) ZoneInUse(ctx context.Context, zoneID primitive.ObjectID) (bool, error) {
	return g.referenced(ctx, "zoneId", zoneID)
}

// SubZoneInUse reports whether any live lab references subZoneID.
func (g *ReferenceGuard) SubZoneInUse(ctx context.Context, subZoneID primitive.ObjectID) (bool, error) {
	return g.referenced(ctx, "subZoneId", subZoneID)
}

func (g *ReferenceGuard) referenced(ctx context.Context, field string, id primitive.ObjectID) (bool, error) {
	filter := liveLab()
	filter[field] = id
	used, err := docstore.Exists(ctx, g.store, docstore.Labs, filter)
	if err != nil {
		return false, storeFailure(g.log, docstore.Labs, "guard_"+field, err)
	}
	return used, nil
}

// Locate verifies that zoneID exists and that subZoneID is one of its
// subzones.
func (g *ReferenceGuard) Locate(ctx context.Context, zoneID, subZoneID primitive.ObjectID) error {
	ok, err := docstore.Exists(ctx, g.store, docstore.Zones, bson.M{"_id": zoneID})
	if err != nil {
		return storeFailure(g.log, docstore.Zones, "locate_zone", err)
	}
	if !ok {
		return notFound("Zone")
	}
	ok, err = docstore.Exists(ctx, g.store, docstore.Zones, bson.M{"_id": zoneID, "subZones._id": subZoneID})
	if err != nil {
		return storeFailure(g.log, docstore.Zones, "locate_subzone", err)
	}
	if !ok {
		return notFound("SubZone")
	}
	return nil
}
