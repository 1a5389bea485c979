package repository

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/iliyamo/lab-registry/internal/docstore"
	"github.com/iliyamo/lab-registry/internal/model"
)

type fixture struct {
	store *docstore.Memory
	labs  *LabRepo
	zones *ZoneRepo
	cats  *CategoryRepo
}

func newFixture() *fixture {
	store := docstore.NewMemory()
	log := zap.NewNop()
	guard := NewReferenceGuard(store, log)
	return &fixture{
		store: store,
		labs:  NewLabRepo(store, log, guard),
		zones: NewZoneRepo(store, log, guard),
		cats:  NewCategoryRepo(store, log),
	}
}

// location creates a zone with one subzone and returns both ids.
func (f *fixture) location(t *testing.T, zone, subZone string) (primitive.ObjectID, primitive.ObjectID) {
	t.Helper()
	ctx := context.Background()
	z, err := f.zones.Create(ctx, zone, "root")
	if err != nil {
		t.Fatalf("create zone %q: %v", zone, err)
	}
	sz, err := f.zones.SubZones.Add(ctx, z.ID, model.SubZone{SubZoneName: subZone}, "root")
	if err != nil {
		t.Fatalf("add subzone %q: %v", subZone, err)
	}
	return z.ID, sz.ID
}

func (f *fixture) lab(t *testing.T, labID string, zoneID, subZoneID primitive.ObjectID) *model.Lab {
	t.Helper()
	lab, err := f.labs.Create(context.Background(), model.Lab{
		LabName:   "Lab " + labID,
		LabID:     labID,
		Address:   "1 Main St",
		Contact1:  "0123456789",
		Email:     "lab" + labID + "@example.com",
		ZoneID:    zoneID,
		SubZoneID: subZoneID,
	}, "root")
	if err != nil {
		t.Fatalf("create lab %s: %v", labID, err)
	}
	return lab
}

func strp(s string) *string { return &s }
