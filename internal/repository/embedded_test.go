package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/lab-registry/internal/model"
)

func TestAddAdminDuplicateIsScopedToLab(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	labA := f.lab(t, "100001", zoneID, subZoneID)
	labB := f.lab(t, "100002", zoneID, subZoneID)

	if _, err := f.labs.Admins.Add(ctx, labA.ID, model.Admin{Username: "alice", Email: "a@x.com"}, "root"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := f.labs.Admins.Add(ctx, labA.ID, model.Admin{Username: "alice", Email: "b@x.com"}, "root")
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("want DuplicateError, got %v", err)
	}
	if !reflect.DeepEqual(dup.Fields, []string{"username"}) {
		t.Fatalf("fields=%v; want [username]", dup.Fields)
	}
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("DuplicateError must match ErrDuplicate")
	}
	if err.Error() != "Duplicate values found: username already exists in this lab" {
		t.Fatalf("message=%q", err.Error())
	}

	if _, err := f.labs.Admins.Add(ctx, labB.ID, model.Admin{Username: "alice", Email: "a@x.com"}, "root"); err != nil {
		t.Fatalf("same admin in another lab: %v", err)
	}
}

func TestAddAdminReportsEveryCollidingField(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)

	if _, err := f.labs.Admins.Add(ctx, lab.ID, model.Admin{Username: "alice", Email: "a@x.com", Phone: "555-0100"}, "root"); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := f.labs.Admins.Add(ctx, lab.ID, model.Admin{Username: "alice", Email: "A@X.com", Phone: "555 0100"}, "root")
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("want DuplicateError, got %v", err)
	}
	if want := []string{"username", "email", "phone"}; !reflect.DeepEqual(dup.Fields, want) {
		t.Fatalf("fields=%v; want %v", dup.Fields, want)
	}
}

func TestAddAdminStoresNormalizedActiveChild(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)

	admin, err := f.labs.Admins.Add(ctx, lab.ID, model.Admin{Username: " alice ", Email: "Alice@Example.com", Phone: "(555) 0100"}, "u1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if admin.ID.IsZero() || admin.Username != "alice" || admin.Email != "alice@example.com" || admin.Phone != "5550100" {
		t.Fatalf("unexpected admin %+v", admin)
	}
	if !admin.IsActive || admin.CreatedBy != "u1" || admin.CreatedAt.IsZero() {
		t.Fatalf("admin not stamped: %+v", admin)
	}
}

func TestAddToMissingOrDeletedLab(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")

	_, err := f.labs.Admins.Add(ctx, primitive.NewObjectID(), model.Admin{Username: "alice"}, "root")
	if !errors.Is(err, ErrNotFound) || err.Error() != "Lab not found" {
		t.Fatalf("want Lab not found, got %v", err)
	}

	lab := f.lab(t, "100001", zoneID, subZoneID)
	if err := f.labs.SoftDelete(ctx, lab.ID, "root"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := f.labs.Admins.Add(ctx, lab.ID, model.Admin{Username: "alice"}, "root"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound on deleted lab, got %v", err)
	}
}

func TestUpdateAdminExcludesItselfFromDuplicateCheck(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)

	alice, err := f.labs.Admins.Add(ctx, lab.ID, model.Admin{Username: "alice", Email: "a@x.com"}, "root")
	if err != nil {
		t.Fatalf("add alice: %v", err)
	}
	if _, err := f.labs.Admins.Add(ctx, lab.ID, model.Admin{Username: "bob", Email: "b@x.com"}, "root"); err != nil {
		t.Fatalf("add bob: %v", err)
	}

	got, err := f.labs.Admins.Update(ctx, lab.ID, alice.ID, AdminPatch{Email: strp("A@x.com"), Phone: strp("777")}, "u2")
	if err != nil {
		t.Fatalf("update own email: %v", err)
	}
	if got.Email != "a@x.com" || got.Phone != "777" || got.UpdatedBy != "u2" || got.UpdatedAt == nil {
		t.Fatalf("unexpected post-image %+v", got)
	}

	_, err = f.labs.Admins.Update(ctx, lab.ID, alice.ID, AdminPatch{Username: strp("bob")}, "u2")
	var dup *DuplicateError
	if !errors.As(err, &dup) || !reflect.DeepEqual(dup.Fields, []string{"username"}) {
		t.Fatalf("want username duplicate, got %v", err)
	}
}

func TestUpdateUnknownAdminAndEmptyPatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)

	_, err := f.labs.Admins.Update(ctx, lab.ID, primitive.NewObjectID(), AdminPatch{Phone: strp("1")}, "root")
	if !errors.Is(err, ErrNotFound) || err.Error() != "Admin not found" {
		t.Fatalf("want Admin not found, got %v", err)
	}
	_, err = f.labs.Admins.Update(ctx, lab.ID, primitive.NewObjectID(), AdminPatch{}, "root")
	if !errors.Is(err, ErrUnmodified) {
		t.Fatalf("want ErrUnmodified for empty patch, got %v", err)
	}
}

func TestSetAdminActiveTwiceSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)
	admin, err := f.labs.Admins.Add(ctx, lab.ID, model.Admin{Username: "alice"}, "root")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := f.labs.Admins.SetActive(ctx, lab.ID, admin.ID, true, "root"); err != nil {
			t.Fatalf("activate #%d: %v", i+1, err)
		}
	}
	admins, err := f.labs.Admins.List(ctx, lab.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(admins) != 1 || !admins[0].IsActive {
		t.Fatalf("want one active admin, got %+v", admins)
	}
}

func TestDeactivateThenActivateClearsDeactivation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)
	staff, err := f.labs.Staffs.Add(ctx, lab.ID, model.Staff{Name: "Sam", Username: "sam"}, "root")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := f.labs.Staffs.SetActive(ctx, lab.ID, staff.ID, false, "u1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	staffs, _ := f.labs.Staffs.List(ctx, lab.ID)
	if staffs[0].IsActive || staffs[0].DeactivatedBy != "u1" || staffs[0].DeactivatedAt == nil {
		t.Fatalf("not deactivated: %+v", staffs[0])
	}

	if err := f.labs.Staffs.SetActive(ctx, lab.ID, staff.ID, true, "u2"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	staffs, _ = f.labs.Staffs.List(ctx, lab.ID)
	got := staffs[0]
	if !got.IsActive || got.ActivatedBy != "u2" || got.ActivatedAt == nil {
		t.Fatalf("not activated: %+v", got)
	}
	if got.DeactivatedBy != "" || got.DeactivatedAt != nil {
		t.Fatalf("stale deactivation metadata: %+v", got)
	}
}

func TestSetActiveUnknownChild(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)

	err := f.labs.Staffs.SetActive(ctx, lab.ID, primitive.NewObjectID(), false, "root")
	if !errors.Is(err, ErrNotFound) || err.Error() != "Staff not found" {
		t.Fatalf("want Staff not found, got %v", err)
	}
}

func TestRemoveAdminThenList(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)

	alice, _ := f.labs.Admins.Add(ctx, lab.ID, model.Admin{Username: "alice"}, "root")
	bob, _ := f.labs.Admins.Add(ctx, lab.ID, model.Admin{Username: "bob"}, "root")

	if err := f.labs.Admins.Remove(ctx, lab.ID, alice.ID, "root"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	admins, err := f.labs.Admins.List(ctx, lab.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(admins) != 1 || admins[0].ID != bob.ID {
		t.Fatalf("want only bob, got %+v", admins)
	}

	if err := f.labs.Admins.Remove(ctx, lab.ID, alice.ID, "root"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove: want ErrNotFound, got %v", err)
	}
	// the removed username is free again
	if _, err := f.labs.Admins.Add(ctx, lab.ID, model.Admin{Username: "alice"}, "root"); err != nil {
		t.Fatalf("re-add: %v", err)
	}
}

func TestListEmptyChildren(t *testing.T) {
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)

	staffs, err := f.labs.Staffs.List(context.Background(), lab.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if staffs == nil || len(staffs) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", staffs)
	}
}

func TestUpdateStaffAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)
	staff, err := f.labs.Staffs.Add(ctx, lab.ID, model.Staff{Name: "Sam", Username: "sam"}, "root")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if staff.Access == nil {
		t.Fatalf("access must default to an empty list")
	}

	got, err := f.labs.UpdateStaffAccess(ctx, lab.ID, staff.ID, []string{"reports", "billing"}, "root")
	if err != nil {
		t.Fatalf("update access: %v", err)
	}
	if !reflect.DeepEqual(got.Access, []string{"reports", "billing"}) {
		t.Fatalf("access=%v", got.Access)
	}
}

func TestSupportAdminLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)

	if _, err := f.labs.AddSupportAdmin(ctx, lab.ID, "hash", "root"); err != nil {
		t.Fatalf("add support admin: %v", err)
	}
	if _, err := f.labs.AddSupportAdmin(ctx, lab.ID, "hash", "root"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second support admin: want ErrDuplicate, got %v", err)
	}
	if err := f.labs.SetSupportAdminActive(ctx, lab.ID, false, "root"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	admins, _ := f.labs.Admins.List(ctx, lab.ID)
	if len(admins) != 1 || admins[0].IsActive {
		t.Fatalf("support admin still active: %+v", admins)
	}
	if err := f.labs.RemoveSupportAdmin(ctx, lab.ID, "root"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.labs.RemoveSupportAdmin(ctx, lab.ID, "root"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove: want ErrNotFound, got %v", err)
	}
}

func TestBlankUsernameIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)

	_, err := f.labs.Admins.Add(ctx, lab.ID, model.Admin{Username: "   ", Email: "a@x.com"}, "root")
	if !errors.Is(err, ErrInvalid) || err.Error() != "username must not be blank" {
		t.Fatalf("add blank: want ErrInvalid, got %v", err)
	}
	if _, err := f.labs.Staffs.Add(ctx, lab.ID, model.Staff{Name: "Sam", Username: ""}, "root"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("add empty staff username: want ErrInvalid, got %v", err)
	}

	alice, err := f.labs.Admins.Add(ctx, lab.ID, model.Admin{Username: "alice"}, "root")
	if err != nil {
		t.Fatalf("add alice: %v", err)
	}
	if _, err := f.labs.Admins.Update(ctx, lab.ID, alice.ID, AdminPatch{Username: strp(" ")}, "root"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("update to blank: want ErrInvalid, got %v", err)
	}
	// patches that leave the username alone are not checked for it
	if _, err := f.labs.Admins.Update(ctx, lab.ID, alice.ID, AdminPatch{Phone: strp("777")}, "root"); err != nil {
		t.Fatalf("update phone: %v", err)
	}
	admins, err := f.labs.Admins.List(ctx, lab.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(admins) != 1 || admins[0].Username != "alice" {
		t.Fatalf("admins=%+v; want only alice", admins)
	}
}

func TestChildWritesOnMissingLabNameTheLab(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	zoneID, subZoneID := f.location(t, "north", "sector a")
	lab := f.lab(t, "100001", zoneID, subZoneID)
	alice, err := f.labs.Admins.Add(ctx, lab.ID, model.Admin{Username: "alice"}, "root")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	missing := primitive.NewObjectID()
	if err := f.labs.Admins.SetActive(ctx, missing, alice.ID, false, "root"); !errors.Is(err, ErrNotFound) || err.Error() != "Lab not found" {
		t.Fatalf("set active on missing lab: want Lab not found, got %v", err)
	}
	if err := f.labs.Admins.Remove(ctx, missing, alice.ID, "root"); !errors.Is(err, ErrNotFound) || err.Error() != "Lab not found" {
		t.Fatalf("remove on missing lab: want Lab not found, got %v", err)
	}

	if err := f.labs.SoftDelete(ctx, lab.ID, "root"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := f.labs.Admins.SetActive(ctx, lab.ID, alice.ID, false, "root"); err == nil || err.Error() != "Lab not found" {
		t.Fatalf("set active on deleted lab: want Lab not found, got %v", err)
	}
	if err := f.labs.Admins.Remove(ctx, lab.ID, alice.ID, "root"); err == nil || err.Error() != "Lab not found" {
		t.Fatalf("remove on deleted lab: want Lab not found, got %v", err)
	}
}
