package repository

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/lab-registry/internal/model"
)

func TestCreateLabSeedsDefaults(t *testing.T) {
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, " 100001 ", zoneID, subZoneID)

	if lab.LabID != "100001" {
		t.Fatalf("labId=%q; want trimmed", lab.LabID)
	}
	if !lab.IsActive || lab.IsDeleted {
		t.Fatalf("new lab must be active and live: %+v", lab)
	}
	if lab.LabIncentive != model.DefaultLabIncentive || lab.InvoicePrice != model.DefaultInvoicePrice {
		t.Fatalf("billing defaults not applied: %+v", lab)
	}
	if lab.Admins == nil || lab.Staffs == nil {
		t.Fatalf("child arrays must be empty, not nil")
	}
}

func TestCreateLabRejectsDuplicateLabID(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	f.lab(t, "100001", zoneID, subZoneID)

	_, err := f.labs.Create(ctx, model.Lab{LabName: "Other", LabID: "100001", Contact1: "1", ZoneID: zoneID, SubZoneID: subZoneID}, "root")
	var dup *DuplicateError
	if !errors.As(err, &dup) || len(dup.Fields) != 1 || dup.Fields[0] != "labId" {
		t.Fatalf("want labId duplicate, got %v", err)
	}
	if err.Error() != "Duplicate values found: labId already exists" {
		t.Fatalf("message=%q", err.Error())
	}
}

func TestCreateLabValidatesLocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, _ := f.location(t, "north", "sector a")
	_, otherSub := f.location(t, "south", "sector b")

	_, err := f.labs.Create(ctx, model.Lab{LabID: "100001", ZoneID: primitive.NewObjectID(), SubZoneID: otherSub}, "root")
	if !errors.Is(err, ErrNotFound) || err.Error() != "Zone not found" {
		t.Fatalf("want Zone not found, got %v", err)
	}
	_, err = f.labs.Create(ctx, model.Lab{LabID: "100001", ZoneID: zoneID, SubZoneID: otherSub}, "root")
	if !errors.Is(err, ErrNotFound) || err.Error() != "SubZone not found" {
		t.Fatalf("want SubZone not found, got %v", err)
	}
}

func TestUpdateLab(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)

	got, err := f.labs.Update(ctx, lab.ID, LabPatch{LabName: strp(" Central "), Email: strp("Desk@Lab.COM")}, "u1")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.LabName != "Central" || got.Email != "desk@lab.com" || got.LabID != "100001" {
		t.Fatalf("unexpected lab %+v", got)
	}
	if got.UpdatedBy != "u1" || got.UpdatedAt == nil {
		t.Fatalf("update not stamped: %+v", got)
	}

	if _, err := f.labs.Update(ctx, lab.ID, LabPatch{}, "u1"); !errors.Is(err, ErrUnmodified) {
		t.Fatalf("empty patch: want ErrUnmodified, got %v", err)
	}
	bad := primitive.NewObjectID()
	if _, err := f.labs.Update(ctx, lab.ID, LabPatch{SubZoneID: &bad}, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown subzone: want ErrNotFound, got %v", err)
	}
}

func TestSetLabActiveTwiceSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)

	for i := 0; i < 2; i++ {
		if err := f.labs.SetActive(ctx, lab.ID, false, "root"); err != nil {
			t.Fatalf("deactivate #%d: %v", i+1, err)
		}
	}
	got, err := f.labs.Get(ctx, lab.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsActive || got.DeactivatedBy != "root" {
		t.Fatalf("lab not deactivated: %+v", got)
	}
	if err := f.labs.SetActive(ctx, primitive.NewObjectID(), true, "root"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown lab: want ErrNotFound, got %v", err)
	}
}

func TestSoftDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)

	if err := f.labs.SoftDelete(ctx, lab.ID, "u1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := f.labs.Get(ctx, lab.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted lab still readable: %v", err)
	}
	if _, err := f.labs.FindByLabID(ctx, "100001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted lab found by labId: %v", err)
	}
	deleted, err := f.labs.ListDeleted(ctx)
	if err != nil || len(deleted) != 1 || deleted[0].DeletedBy != "u1" || deleted[0].DeletedAt == nil {
		t.Fatalf("list deleted=%+v err=%v", deleted, err)
	}

	restored, err := f.labs.Restore(ctx, lab.ID, "u2")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.IsDeleted || restored.DeletedAt != nil || restored.DeletedBy != "" {
		t.Fatalf("deletion metadata not cleared: %+v", restored)
	}
	if restored.RestoredBy != "u2" || restored.RestoredAt == nil {
		t.Fatalf("restore not stamped: %+v", restored)
	}
	if _, err := f.labs.FindByLabID(ctx, "100001"); err != nil {
		t.Fatalf("restored lab not found by labId: %v", err)
	}
	if _, err := f.labs.Restore(ctx, lab.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("restoring a live lab: want ErrNotFound, got %v", err)
	}
}

func TestRestoreRejectsReusedLabID(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	old := f.lab(t, "100001", zoneID, subZoneID)
	if err := f.labs.SoftDelete(ctx, old.ID, "root"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	// a deleted lab does not hold its labId
	f.lab(t, "100001", zoneID, subZoneID)

	_, err := f.labs.Restore(ctx, old.ID, "root")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
}

func TestRestoreRejectsMissingLocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)
	if err := f.labs.SoftDelete(ctx, lab.ID, "root"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := f.zones.Delete(ctx, zoneID); err != nil {
		t.Fatalf("delete zone: %v", err)
	}

	_, err := f.labs.Restore(ctx, lab.ID, "root")
	if !errors.Is(err, ErrConflict) || err.Error() != "Cannot restore lab: Zone not found" {
		t.Fatalf("want restore conflict, got %v", err)
	}
}

func TestRemoveLab(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)
	if err := f.labs.SoftDelete(ctx, lab.ID, "root"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := f.labs.Remove(ctx, lab.ID); err != nil {
		t.Fatalf("remove soft-deleted lab: %v", err)
	}
	if err := f.labs.Remove(ctx, lab.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove: want ErrNotFound, got %v", err)
	}
}

func TestSearchLabs(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	southID, southSub := f.location(t, "south", "sector b")
	f.lab(t, "100001", zoneID, subZoneID)
	f.lab(t, "100002", southID, southSub)

	byZone, err := f.labs.Search(ctx, SearchZoneID, southID.Hex())
	if err != nil || len(byZone) != 1 || byZone[0].LabID != "100002" {
		t.Fatalf("search by zone=%+v err=%v", byZone, err)
	}
	byEmail, err := f.labs.Search(ctx, SearchEmail, "LAB100001@example.com")
	if err != nil || len(byEmail) != 1 {
		t.Fatalf("search by email=%+v err=%v", byEmail, err)
	}
	byContact, err := f.labs.Search(ctx, SearchContact, "0123456789")
	if err != nil || len(byContact) != 2 {
		t.Fatalf("search by contact=%+v err=%v", byContact, err)
	}
	if _, err := f.labs.Search(ctx, SearchZoneID, "not-hex"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("bad id: want ErrInvalid, got %v", err)
	}
	if _, ok := ParseSearchField("password"); ok {
		t.Fatalf("password must not be searchable")
	}
}

func TestLabStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	southID, southSub := f.location(t, "south", "sector b")
	a := f.lab(t, "100001", zoneID, subZoneID)
	f.lab(t, "100002", zoneID, subZoneID)
	c := f.lab(t, "100003", southID, southSub)

	if err := f.labs.SetActive(ctx, a.ID, false, "root"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := f.labs.SoftDelete(ctx, c.ID, "root"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	stats, err := f.labs.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.Active != 1 || stats.Inactive != 1 || stats.Deleted != 1 {
		t.Fatalf("unexpected counts %+v", stats)
	}
	if len(stats.ByZone) != 1 || stats.ByZone[0].ZoneID != zoneID || stats.ByZone[0].Labs != 2 {
		t.Fatalf("unexpected per-zone counts %+v", stats.ByZone)
	}
}
