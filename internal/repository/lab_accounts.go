package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/lab-registry/internal/docstore"
	"github.com/iliyamo/lab-registry/internal/model"
)

var adminSpec = ChildSpec[model.Admin]{
	Collection: docstore.Labs,
	Field:      "admins",
	Parent:     "Lab",
	Child:      "Admin",
	Policy:     AdminPolicy,
	Live:       liveLab(),
	ID:         func(a model.Admin) primitive.ObjectID { return a.ID },
	Keys: func(a model.Admin) Keys {
		return AdminPolicy.Normalize(Keys{"username": a.Username, "email": a.Email, "phone": a.Phone})
	},
	Init: func(a *model.Admin, id primitive.ObjectID, actor string, at time.Time) {
		a.ID = id
		a.Username = NormalizeUsername(a.Username)
		a.Email = NormalizeEmail(a.Email)
		a.Phone = NormalizePhone(a.Phone)
		a.Activation = model.Activation{IsActive: true}
		a.Stamps = model.Stamps{CreatedBy: actor, CreatedAt: at}
	},
}

var staffSpec = ChildSpec[model.Staff]{
	Collection: docstore.Labs,
	Field:      "staffs",
	Parent:     "Lab",
	Child:      "Staff",
	Policy:     StaffPolicy,
	Live:       liveLab(),
	ID:         func(s model.Staff) primitive.ObjectID { return s.ID },
	Keys: func(s model.Staff) Keys {
		return StaffPolicy.Normalize(Keys{"username": s.Username, "email": s.Email, "phone": s.Phone})
	},
	Init: func(s *model.Staff, id primitive.ObjectID, actor string, at time.Time) {
		s.ID = id
		s.Name = strings.TrimSpace(s.Name)
		s.Username = NormalizeUsername(s.Username)
		s.Email = NormalizeEmail(s.Email)
		s.Phone = NormalizePhone(s.Phone)
		if s.Access == nil {
			s.Access = []string{}
		}
		s.Activation = model.Activation{IsActive: true}
		s.Stamps = model.Stamps{CreatedBy: actor, CreatedAt: at}
	},
}

// AdminPatch lists the admin fields that may be edited. Password must
// already be hashed.
type AdminPatch struct {
	Username *string
	Email    *string
	Phone    *string
	Password *string
}

func (p AdminPatch) Fields() bson.M {
	set := accountFields(p.Username, p.Email, p.Phone)
	if p.Password != nil {
		set["password"] = *p.Password
	}
	return set
}

func (p AdminPatch) Keys() Keys { return accountKeys(p.Username, p.Email, p.Phone) }

// StaffPatch lists the staff fields that may be edited.
type StaffPatch struct {
	Name     *string
	Username *string
	Email    *string
	Phone    *string
	Password *string
	Access   *[]string
}

func (p StaffPatch) Fields() bson.M {
	set := accountFields(p.Username, p.Email, p.Phone)
	if p.Name != nil {
		set["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Password != nil {
		set["password"] = *p.Password
	}
	if p.Access != nil {
		access := *p.Access
		if access == nil {
			access = []string{}
		}
		set["access"] = access
	}
	return set
}

func (p StaffPatch) Keys() Keys { return accountKeys(p.Username, p.Email, p.Phone) }

func accountFields(username, email, phone *string) bson.M {
	set := bson.M{}
	for name, v := range accountKeys(username, email, phone) {
		set[name] = v
	}
	return set
}

func accountKeys(username, email, phone *string) Keys {
	k := Keys{}
	if username != nil {
		k["username"] = NormalizeUsername(*username)
	}
	if email != nil {
		k["email"] = NormalizeEmail(*email)
	}
	if phone != nil {
		k["phone"] = NormalizePhone(*phone)
	}
	return k
}

// UpdateStaffAccess replaces a staff member's access list.
func (r *LabRepo) UpdateStaffAccess(ctx context.Context, labID, staffID primitive.ObjectID, access []string, actor string) (model.Staff, error) {
	return r.Staffs.Update(ctx, labID, staffID, StaffPatch{Access: &access}, actor)
}

var supportAdmin = bson.M{"username": model.SupportAdminUsername}

// AddSupportAdmin attaches the reserved support account to a lab.
func (r *LabRepo) AddSupportAdmin(ctx context.Context, labID primitive.ObjectID, passwordHash, actor string) (model.Admin, error) {
	return r.Admins.Add(ctx, labID, model.Admin{Username: model.SupportAdminUsername, Password: passwordHash}, actor)
}

// SetSupportAdminActive activates or deactivates the support account.
func (r *LabRepo) SetSupportAdminActive(ctx context.Context, labID primitive.ObjectID, active bool, actor string) error {
	return r.Admins.SetActiveWhere(ctx, labID, supportAdmin, active, actor)
}

// RemoveSupportAdmin detaches the support account from a lab.
func (r *LabRepo) RemoveSupportAdmin(ctx context.Context, labID primitive.ObjectID, actor string) error {
	return r.Admins.RemoveWhere(ctx, labID, supportAdmin, actor)
}
