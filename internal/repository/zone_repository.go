package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/iliyamo/lab-registry/internal/docstore"
	"github.com/iliyamo/lab-registry/internal/model"
)

var subZoneSpec = ChildSpec[model.SubZone]{
	Collection: docstore.Zones,
	Field:      "subZones",
	Parent:     "Zone",
	Child:      "SubZone",
	Policy:     SubZonePolicy,
	Touch:      true,
	ID:         func(s model.SubZone) primitive.ObjectID { return s.ID },
	Keys: func(s model.SubZone) Keys {
		return SubZonePolicy.Normalize(Keys{"subZoneName": s.SubZoneName})
	},
	Init: func(s *model.SubZone, id primitive.ObjectID, actor string, at time.Time) {
		s.ID = id
		s.SubZoneName = NormalizeName(s.SubZoneName)
		s.Stamps = model.Stamps{CreatedBy: actor, CreatedAt: at}
	},
}

// SubZonePatch renames a subzone.
type SubZonePatch struct {
	SubZoneName *string
}

func (p SubZonePatch) Fields() bson.M {
	set := bson.M{}
	for k, v := range p.Keys() {
		set[k] = v
	}
	return set
}

func (p SubZonePatch) Keys() Keys {
	if p.SubZoneName == nil {
		return Keys{}
	}
	return Keys{"subZoneName": NormalizeName(*p.SubZoneName)}
}

// ZoneRepo manages zones and their embedded subzones.
type ZoneRepo struct {
	store docstore.Store
	log   *zap.Logger
	guard *ReferenceGuard
	now   func() time.Time

	SubZones *Embedded[model.SubZone]
}

// NewZoneRepo wires the zone repository.
func NewZoneRepo(store docstore.Store, log *zap.Logger, guard *ReferenceGuard) *ZoneRepo {
	return &ZoneRepo{
		store:    store,
		log:      log,
		guard:    guard,
		now:      utcNow,
		SubZones: NewEmbedded(store, log, subZoneSpec),
	}
}

// Create stores a zone with no subzones. Zone names are globally unique.
func (r *ZoneRepo) Create(ctx context.Context, name, actor string) (*model.Zone, error) {
	name = NormalizeName(name)
	if err := r.checkName(ctx, name, nil); err != nil {
		return nil, err
	}
	zone := model.Zone{
		ID:       primitive.NewObjectID(),
		ZoneName: name,
		SubZones: []model.SubZone{},
		Stamps:   model.Stamps{CreatedBy: actor, CreatedAt: r.now()},
	}
	if err := r.store.InsertOne(ctx, docstore.Zones, zone); err != nil {
		if errors.Is(err, docstore.ErrDuplicateKey) {
			return nil, &DuplicateError{Fields: []string{"zoneName"}}
		}
		return nil, storeFailure(r.log, docstore.Zones, "create", err)
	}
	return &zone, nil
}

func (r *ZoneRepo) checkName(ctx context.Context, name string, self *primitive.ObjectID) error {
	if err := ZonePolicy.CheckRequired(Keys{"zoneName": name}, false); err != nil {
		return err
	}
	fields, err := globalCollisions(ctx, r.store, docstore.Zones, ZonePolicy, Keys{"zoneName": name}, nil, self)
	if err != nil {
		return storeFailure(r.log, docstore.Zones, "check_name", err)
	}
	if len(fields) > 0 {
		return &DuplicateError{Fields: fields}
	}
	return nil
}

// Get returns one zone with its subzones.
func (r *ZoneRepo) Get(ctx context.Context, id primitive.ObjectID) (*model.Zone, error) {
	var zone model.Zone
	err := r.store.FindOne(ctx, docstore.Zones, bson.M{"_id": id}, nil, &zone)
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, notFound("Zone")
	}
	if err != nil {
		return nil, storeFailure(r.log, docstore.Zones, "get", err)
	}
	return &zone, nil
}

// List returns all zones ordered by name.
func (r *ZoneRepo) List(ctx context.Context) ([]model.Zone, error) {
	zones := []model.Zone{}
	opts := &docstore.FindOptions{Sort: bson.D{{Key: "zoneName", Value: 1}}}
	if err := r.store.Find(ctx, docstore.Zones, bson.M{}, opts, &zones); err != nil {
		return nil, storeFailure(r.log, docstore.Zones, "list", err)
	}
	if zones == nil {
		zones = []model.Zone{}
	}
	return zones, nil
}

// Rename changes a zone's name, keeping it globally unique.
func (r *ZoneRepo) Rename(ctx context.Context, id primitive.ObjectID, name, actor string) (*model.Zone, error) {
	name = NormalizeName(name)
	if err := r.checkName(ctx, name, &id); err != nil {
		return nil, err
	}
	update := touch(bson.M{"$set": bson.M{"zoneName": name}}, "", actor, r.now())
	var zone model.Zone
	err := r.store.FindOneAndUpdate(ctx, docstore.Zones, bson.M{"_id": id}, update, nil, &zone)
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, notFound("Zone")
	}
	if err != nil {
		if errors.Is(err, docstore.ErrDuplicateKey) {
			return nil, &DuplicateError{Fields: []string{"zoneName"}}
		}
		return nil, storeFailure(r.log, docstore.Zones, "rename", err)
	}
	return &zone, nil
}

// Delete removes a zone unless a live lab still references it.
func (r *ZoneRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	used, err := r.guard.ZoneInUse(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return &ReferenceError{Reason: "Cannot delete zone: labs associated with this zone"}
	}
	n, err := r.store.DeleteOne(ctx, docstore.Zones, bson.M{"_id": id})
	if err != nil {
		return storeFailure(r.log, docstore.Zones, "delete", err)
	}
	if n == 0 {
		return notFound("Zone")
	}
	return nil
}

// RemoveSubZone removes a subzone unless a live lab still references it.
func (r *ZoneRepo) RemoveSubZone(ctx context.Context, zoneID, subZoneID primitive.ObjectID, actor string) error {
	used, err := r.guard.SubZoneInUse(ctx, subZoneID)
	if err != nil {
		return err
	}
	if used {
		return &ReferenceError{Reason: "Cannot delete subzone: labs associated with this subzone"}
	}
	return r.SubZones.Remove(ctx, zoneID, subZoneID, actor)
}
