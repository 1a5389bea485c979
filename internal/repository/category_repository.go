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

var testSpec = ChildSpec[model.Test]{
	Collection: docstore.TestCategories,
	Field:      "tests",
	Parent:     "Category",
	Child:      "Test",
	Policy:     TestPolicy,
	Touch:      true,
	ID:         func(t model.Test) primitive.ObjectID { return t.ID },
	Keys: func(t model.Test) Keys {
		return TestPolicy.Normalize(Keys{"testName": t.TestName})
	},
	Init: func(t *model.Test, id primitive.ObjectID, actor string, at time.Time) {
		t.ID = id
		t.TestName = NormalizeName(t.TestName)
		t.Stamps = model.Stamps{CreatedBy: actor, CreatedAt: at}
	},
}

// TestPatch lists the editable test fields.
type TestPatch struct {
	TestName *string
	IsOnline *bool
}

func (p TestPatch) Fields() bson.M {
	set := bson.M{}
	if p.TestName != nil {
		set["testName"] = NormalizeName(*p.TestName)
	}
	if p.IsOnline != nil {
		set["isOnline"] = *p.IsOnline
	}
	return set
}

func (p TestPatch) Keys() Keys {
	if p.TestName == nil {
		return Keys{}
	}
	return Keys{"testName": NormalizeName(*p.TestName)}
}

// CategoryRepo manages test categories and the tests embedded in them.
type CategoryRepo struct {
	store docstore.Store
	log   *zap.Logger
	now   func() time.Time

	Tests *Embedded[model.Test]
}

// NewCategoryRepo wires the catalog repository.
func NewCategoryRepo(store docstore.Store, log *zap.Logger) *CategoryRepo {
	return &CategoryRepo{
		store: store,
		log:   log,
		now:   utcNow,
		Tests: NewEmbedded(store, log, testSpec),
	}
}

// Create stores an empty category. Category names are globally unique.
func (r *CategoryRepo) Create(ctx context.Context, name, actor string) (*model.TestCategory, error) {
	name = NormalizeName(name)
	if err := r.checkName(ctx, name, nil); err != nil {
		return nil, err
	}
	cat := model.TestCategory{
		ID:           primitive.NewObjectID(),
		CategoryName: name,
		Tests:        []model.Test{},
		Stamps:       model.Stamps{CreatedBy: actor, CreatedAt: r.now()},
	}
	if err := r.store.InsertOne(ctx, docstore.TestCategories, cat); err != nil {
		if errors.Is(err, docstore.ErrDuplicateKey) {
			return nil, &DuplicateError{Fields: []string{"categoryName"}}
		}
		return nil, storeFailure(r.log, docstore.TestCategories, "create", err)
	}
	return &cat, nil
}

func (r *CategoryRepo) checkName(ctx context.Context, name string, self *primitive.ObjectID) error {
	if err := CategoryPolicy.CheckRequired(Keys{"categoryName": name}, false); err != nil {
		return err
	}
	fields, err := globalCollisions(ctx, r.store, docstore.TestCategories, CategoryPolicy, Keys{"categoryName": name}, nil, self)
	if err != nil {
		return storeFailure(r.log, docstore.TestCategories, "check_name", err)
	}
	if len(fields) > 0 {
		return &DuplicateError{Fields: fields}
	}
	return nil
}

// Get returns one category with its tests.
func (r *CategoryRepo) Get(ctx context.Context, id primitive.ObjectID) (*model.TestCategory, error) {
	var cat model.TestCategory
	err := r.store.FindOne(ctx, docstore.TestCategories, bson.M{"_id": id}, nil, &cat)
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, notFound("Category")
	}
	if err != nil {
		return nil, storeFailure(r.log, docstore.TestCategories, "get", err)
	}
	return &cat, nil
}

// List returns every category ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]model.TestCategory, error) {
	cats := []model.TestCategory{}
	opts := &docstore.FindOptions{Sort: bson.D{{Key: "categoryName", Value: 1}}}
	if err := r.store.Find(ctx, docstore.TestCategories, bson.M{}, opts, &cats); err != nil {
		return nil, storeFailure(r.log, docstore.TestCategories, "list", err)
	}
	if cats == nil {
		cats = []model.TestCategory{}
	}
	return cats, nil
}

// Rename changes a category's name, keeping it globally unique.
func (r *CategoryRepo) Rename(ctx context.Context, id primitive.ObjectID, name, actor string) (*model.TestCategory, error) {
	name = NormalizeName(name)
	if err := r.checkName(ctx, name, &id); err != nil {
		return nil, err
	}
	update := touch(bson.M{"$set": bson.M{"categoryName": name}}, "", actor, r.now())
	var cat model.TestCategory
	err := r.store.FindOneAndUpdate(ctx, docstore.TestCategories, bson.M{"_id": id}, update, nil, &cat)
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, notFound("Category")
	}
	if err != nil {
		if errors.Is(err, docstore.ErrDuplicateKey) {
			return nil, &DuplicateError{Fields: []string{"categoryName"}}
		}
		return nil, storeFailure(r.log, docstore.TestCategories, "rename", err)
	}
	return &cat, nil
}

// Delete removes a category together with its tests.
func (r *CategoryRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	n, err := r.store.DeleteOne(ctx, docstore.TestCategories, bson.M{"_id": id})
	if err != nil {
		return storeFailure(r.log, docstore.TestCategories, "delete", err)
	}
	if n == 0 {
		return notFound("Category")
	}
	return nil
}
