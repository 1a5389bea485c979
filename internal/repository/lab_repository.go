package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/iliyamo/lab-registry/internal/docstore"
	"github.com/iliyamo/lab-registry/internal/model"
)

// SearchField is one of the lab fields that can be searched on.
type SearchField string

const (
	SearchLabID     SearchField = "labId"
	SearchEmail     SearchField = "email"
	SearchContact   SearchField = "contact"
	SearchZoneID    SearchField = "zoneId"
	SearchSubZoneID SearchField = "subZoneId"
)

// ParseSearchField accepts only the searchable lab fields.
func ParseSearchField(s string) (SearchField, bool) {
	switch f := SearchField(s); f {
	case SearchLabID, SearchEmail, SearchContact, SearchZoneID, SearchSubZoneID:
		return f, true
	}
	return "", false
}

// LabPatch lists the lab fields that may change after creation. labId is
// deliberately absent.
type LabPatch struct {
	LabName   *string
	Address   *string
	Contact1  *string
	Contact2  *string
	Email     *string
	ZoneID    *primitive.ObjectID
	SubZoneID *primitive.ObjectID
}

func (p LabPatch) fields() bson.M {
	set := bson.M{}
	if p.LabName != nil {
		set["labName"] = strings.TrimSpace(*p.LabName)
	}
	if p.Address != nil {
		set["address"] = strings.TrimSpace(*p.Address)
	}
	if p.Contact1 != nil {
		set["contact1"] = strings.TrimSpace(*p.Contact1)
	}
	if p.Contact2 != nil {
		set["contact2"] = strings.TrimSpace(*p.Contact2)
	}
	if p.Email != nil {
		set["email"] = NormalizeEmail(*p.Email)
	}
	if p.ZoneID != nil {
		set["zoneId"] = *p.ZoneID
	}
	if p.SubZoneID != nil {
		set["subZoneId"] = *p.SubZoneID
	}
	return set
}

// LabRepo manages labs and, through Admins and Staffs, their embedded
// accounts.
type LabRepo struct {
	store docstore.Store
	log   *zap.Logger
	guard *ReferenceGuard
	now   func() time.Time

	Admins *Embedded[model.Admin]
	Staffs *Embedded[model.Staff]
}

// NewLabRepo wires the lab repository and its child collections.
func NewLabRepo(store docstore.Store, log *zap.Logger, guard *ReferenceGuard) *LabRepo {
	return &LabRepo{
		store:  store,
		log:    log,
		guard:  guard,
		now:    utcNow,
		Admins: NewEmbedded(store, log, adminSpec),
		Staffs: NewEmbedded(store, log, staffSpec),
	}
}

// Create stores a new, active lab. The zone and subzone must exist and the
// labId must not be used by another non-deleted lab.
func (r *LabRepo) Create(ctx context.Context, lab model.Lab, actor string) (*model.Lab, error) {
	lab.LabName = strings.TrimSpace(lab.LabName)
	lab.LabID = NormalizeID(lab.LabID)
	lab.Email = NormalizeEmail(lab.Email)
	if err := LabPolicy.CheckRequired(Keys{"labId": lab.LabID}, false); err != nil {
		return nil, err
	}
	if err := r.guard.Locate(ctx, lab.ZoneID, lab.SubZoneID); err != nil {
		return nil, err
	}
	fields, err := globalCollisions(ctx, r.store, docstore.Labs, LabPolicy, Keys{"labId": lab.LabID}, liveLab(), nil)
	if err != nil {
		return nil, storeFailure(r.log, docstore.Labs, "check_lab_id", err)
	}
	if len(fields) > 0 {
		return nil, &DuplicateError{Fields: fields}
	}

	at := r.now()
	lab.ID = primitive.NewObjectID()
	lab.Admins = []model.Admin{}
	lab.Staffs = []model.Staff{}
	lab.LabIncentive = model.DefaultLabIncentive
	lab.InvoicePrice = model.DefaultInvoicePrice
	lab.HasWarning, lab.Warning = false, ""
	lab.TotalReceipt, lab.PayableAmount = 0, 0
	lab.Activation = model.Activation{IsActive: true}
	lab.IsDeleted = false
	lab.Stamps = model.Stamps{CreatedBy: actor, CreatedAt: at}
	if err := r.store.InsertOne(ctx, docstore.Labs, lab); err != nil {
		if errors.Is(err, docstore.ErrDuplicateKey) {
			return nil, &DuplicateError{Fields: []string{"labId"}}
		}
		return nil, storeFailure(r.log, docstore.Labs, "create", err)
	}
	return &lab, nil
}

// Get returns a non-deleted lab by id.
func (r *LabRepo) Get(ctx context.Context, id primitive.ObjectID) (*model.Lab, error) {
	filter := liveLab()
	filter["_id"] = id
	return r.findOne(ctx, filter, "Lab")
}

// FindByLabID returns the non-deleted lab carrying a business id.
func (r *LabRepo) FindByLabID(ctx context.Context, labID string) (*model.Lab, error) {
	filter := liveLab()
	filter["labId"] = NormalizeID(labID)
	return r.findOne(ctx, filter, "Lab")
}

func (r *LabRepo) findOne(ctx context.Context, filter bson.M, entity string) (*model.Lab, error) {
	var lab model.Lab
	err := r.store.FindOne(ctx, docstore.Labs, filter, nil, &lab)
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, notFound(entity)
	}
	if err != nil {
		return nil, storeFailure(r.log, docstore.Labs, "find_one", err)
	}
	return &lab, nil
}

// List returns every non-deleted lab, newest first.
func (r *LabRepo) List(ctx context.Context) ([]model.Lab, error) {
	return r.find(ctx, liveLab(), "list")
}

// ListDeleted returns soft-deleted labs, the candidates for Restore.
func (r *LabRepo) ListDeleted(ctx context.Context) ([]model.Lab, error) {
	return r.find(ctx, bson.M{"isDeleted": true}, "list_deleted")
}

// Search finds non-deleted labs by one field. contact matches either
// contact number; zone fields take a hex ObjectID.
func (r *LabRepo) Search(ctx context.Context, field SearchField, value string) ([]model.Lab, error) {
	filter := liveLab()
	value = strings.TrimSpace(value)
	switch field {
	case SearchLabID:
		filter["labId"] = NormalizeID(value)
	case SearchEmail:
		filter["email"] = NormalizeEmail(value)
	case SearchContact:
		filter["$or"] = bson.A{bson.M{"contact1": value}, bson.M{"contact2": value}}
	case SearchZoneID, SearchSubZoneID:
		id, err := primitive.ObjectIDFromHex(value)
		if err != nil {
			return nil, ErrInvalid
		}
		filter[string(field)] = id
	default:
		return nil, ErrInvalid
	}
	return r.find(ctx, filter, "search")
}

func (r *LabRepo) find(ctx context.Context, filter bson.M, op string) ([]model.Lab, error) {
	labs := []model.Lab{}
	opts := &docstore.FindOptions{Sort: bson.D{{Key: "createdAt", Value: -1}}}
	if err := r.store.Find(ctx, docstore.Labs, filter, opts, &labs); err != nil {
		return nil, storeFailure(r.log, docstore.Labs, op, err)
	}
	if labs == nil {
		labs = []model.Lab{}
	}
	return labs, nil
}

// Update applies patch to a non-deleted lab. When the location changes the
// resulting zone/subzone pair is validated.
func (r *LabRepo) Update(ctx context.Context, id primitive.ObjectID, patch LabPatch, actor string) (*model.Lab, error) {
	set := patch.fields()
	if len(set) == 0 {
		return nil, unmodified("Lab")
	}
	if patch.ZoneID != nil || patch.SubZoneID != nil {
		current, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		zoneID, subZoneID := current.ZoneID, current.SubZoneID
		if patch.ZoneID != nil {
			zoneID = *patch.ZoneID
		}
		if patch.SubZoneID != nil {
			subZoneID = *patch.SubZoneID
		}
		if err := r.guard.Locate(ctx, zoneID, subZoneID); err != nil {
			return nil, err
		}
	}

	filter := liveLab()
	filter["_id"] = id
	var lab model.Lab
	err := r.store.FindOneAndUpdate(ctx, docstore.Labs, filter, touch(bson.M{"$set": set}, "", actor, r.now()), nil, &lab)
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, notFound("Lab")
	}
	if err != nil {
		return nil, storeFailure(r.log, docstore.Labs, "update", err)
	}
	return &lab, nil
}

// SetActive moves a non-deleted lab between Active and Inactive.
func (r *LabRepo) SetActive(ctx context.Context, id primitive.ObjectID, active bool, actor string) error {
	filter := liveLab()
	filter["_id"] = id
	res, err := r.store.UpdateOne(ctx, docstore.Labs, filter, activation("", active, actor, r.now()))
	if err != nil {
		return storeFailure(r.log, docstore.Labs, "set_active", err)
	}
	if res.Matched == 0 {
		return notFound("Lab")
	}
	if res.Modified == 0 {
		lab, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		if lab.IsActive != active {
			return unmodified("Lab")
		}
	}
	return nil
}

// SoftDelete hides a lab from every read until it is restored.
func (r *LabRepo) SoftDelete(ctx context.Context, id primitive.ObjectID, actor string) error {
	filter := liveLab()
	filter["_id"] = id
	res, err := r.store.UpdateOne(ctx, docstore.Labs, filter, softDeletion(actor, r.now()))
	if err != nil {
		return storeFailure(r.log, docstore.Labs, "soft_delete", err)
	}
	if res.Matched == 0 {
		return notFound("Lab")
	}
	return nil
}

// Restore brings a soft-deleted lab back. Its labId must still be free and
// its zone and subzone must still exist.
func (r *LabRepo) Restore(ctx context.Context, id primitive.ObjectID, actor string) (*model.Lab, error) {
	deleted := bson.M{"_id": id, "isDeleted": true}
	lab, err := r.findOne(ctx, deleted, "Deleted lab")
	if err != nil {
		return nil, err
	}
	fields, err := globalCollisions(ctx, r.store, docstore.Labs, LabPolicy, Keys{"labId": lab.LabID}, liveLab(), &id)
	if err != nil {
		return nil, storeFailure(r.log, docstore.Labs, "check_lab_id", err)
	}
	if len(fields) > 0 {
		return nil, &DuplicateError{Fields: fields}
	}
	if err := r.guard.Locate(ctx, lab.ZoneID, lab.SubZoneID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &ReferenceError{Reason: "Cannot restore lab: " + err.Error()}
		}
		return nil, err
	}

	var restored model.Lab
	err = r.store.FindOneAndUpdate(ctx, docstore.Labs, deleted, restoration(actor, r.now()), nil, &restored)
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, notFound("Deleted lab")
	}
	if err != nil {
		return nil, storeFailure(r.log, docstore.Labs, "restore", err)
	}
	return &restored, nil
}

// Remove deletes a lab permanently, whether or not it is soft deleted.
func (r *LabRepo) Remove(ctx context.Context, id primitive.ObjectID) error {
	n, err := r.store.DeleteOne(ctx, docstore.Labs, bson.M{"_id": id})
	if err != nil {
		return storeFailure(r.log, docstore.Labs, "remove", err)
	}
	if n == 0 {
		return notFound("Lab")
	}
	return nil
}

// Stats counts labs by state and live labs by zone.
func (r *LabRepo) Stats(ctx context.Context) (*model.LabStats, error) {
	count := func(filter bson.M) (int64, error) {
		n, err := r.store.Count(ctx, docstore.Labs, filter)
		if err != nil {
			return 0, storeFailure(r.log, docstore.Labs, "stats", err)
		}
		return n, nil
	}
	var (
		stats model.LabStats
		err   error
	)
	if stats.Total, err = count(liveLab()); err != nil {
		return nil, err
	}
	active := liveLab()
	active["isActive"] = true
	if stats.Active, err = count(active); err != nil {
		return nil, err
	}
	stats.Inactive = stats.Total - stats.Active
	if stats.Deleted, err = count(bson.M{"isDeleted": true}); err != nil {
		return nil, err
	}

	var rows []struct {
		ZoneID primitive.ObjectID `bson:"zoneId"`
	}
	opts := &docstore.FindOptions{Projection: bson.M{"zoneId": 1}}
	if err := r.store.Find(ctx, docstore.Labs, liveLab(), opts, &rows); err != nil {
		return nil, storeFailure(r.log, docstore.Labs, "stats_by_zone", err)
	}
	perZone := map[primitive.ObjectID]int64{}
	for _, row := range rows {
		perZone[row.ZoneID]++
	}
	stats.ByZone = make([]model.ZoneCount, 0, len(perZone))
	for id, n := range perZone {
		stats.ByZone = append(stats.ByZone, model.ZoneCount{ZoneID: id, Labs: n})
	}
	sort.Slice(stats.ByZone, func(i, j int) bool {
		return stats.ByZone[i].ZoneID.Hex() < stats.ByZone[j].ZoneID.Hex()
	})
	return &stats, nil
}
