package repository

import (
	"context"
	"errors"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/iliyamo/lab-registry/internal/docstore"
)

// ChildSpec describes one array of embedded children inside a parent
// collection, e.g. the admins of a lab.
type ChildSpec[C any] struct {
	Collection string
	Field      string
	Parent     string // parent noun for messages, e.g. "Lab"
	Child      string // child noun for messages, e.g. "Admin"
	Policy     Policy

	// Live is merged into every parent filter; labs use it to hide
	// soft-deleted documents.
	Live bson.M
	// Touch stamps updatedAt/updatedBy on the parent for child mutations.
	Touch bool

	ID   func(C) primitive.ObjectID
	Keys func(C) Keys
	// Init assigns the id and creation stamps of a new child and normalizes
	// its unique fields.
	Init func(c *C, id primitive.ObjectID, actor string, at time.Time)
}

// ChildPatch is a closed set of field changes for one child type.
type ChildPatch interface {
	// Fields returns the child fields to set, keyed by BSON name.
	Fields() bson.M
	// Keys returns the normalized unique values carried by the patch.
	Keys() Keys
}

// Embedded implements add, update, remove, activate and list for one child
// array. Each mutation is a single atomic write on the parent document.
type Embedded[C any] struct {
	spec  ChildSpec[C]
	store docstore.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewEmbedded binds spec to a store.
func NewEmbedded[C any](store docstore.Store, log *zap.Logger, spec ChildSpec[C]) *Embedded[C] {
	return &Embedded[C]{spec: spec, store: store, log: log, now: utcNow}
}

func (e *Embedded[C]) parentFilter(parentID primitive.ObjectID) bson.M {
	f := bson.M{"_id": parentID}
	for k, v := range e.spec.Live {
		f[k] = v
	}
	return f
}

func (e *Embedded[C]) path(field string) string { return e.spec.Field + "." + field }

func (e *Embedded[C]) projection() *docstore.FindOptions {
	return &docstore.FindOptions{Projection: bson.M{e.spec.Field: 1}}
}

// List returns the children of a parent, or an empty slice when it has none.
func (e *Embedded[C]) List(ctx context.Context, parentID primitive.ObjectID) ([]C, error) {
	var raw bson.Raw
	err := e.store.FindOne(ctx, e.spec.Collection, e.parentFilter(parentID), e.projection(), &raw)
	if errors.Is(err, docstore.ErrNoDocuments) {
		return nil, notFound(e.spec.Parent)
	}
	if err != nil {
		return nil, storeFailure(e.log, e.spec.Collection, "list_"+e.spec.Field, err)
	}
	children, err := childrenOf[C](raw, e.spec.Field)
	if err != nil {
		return nil, storeFailure(e.log, e.spec.Collection, "decode_"+e.spec.Field, err)
	}
	return children, nil
}

// Add appends child to the parent after checking the parent-scoped
// uniqueness rule. The push carries a $ne guard for every unique value, so a
// colliding child written concurrently makes it match nothing; that case is
// re-checked and reported as a duplicate.
func (e *Embedded[C]) Add(ctx context.Context, parentID primitive.ObjectID, child C, actor string) (C, error) {
	var zero C
	existing, err := e.List(ctx, parentID)
	if err != nil {
		return zero, err
	}
	at := e.now()
	e.spec.Init(&child, primitive.NewObjectID(), actor, at)
	keys := e.spec.Keys(child)
	if err := e.spec.Policy.CheckRequired(keys, false); err != nil {
		return zero, err
	}
	if fields := e.spec.Policy.FindCollision(keys, e.pool(existing, nil)); len(fields) > 0 {
		return zero, &DuplicateError{Fields: fields, Scope: lower(e.spec.Parent)}
	}

	filter := e.parentFilter(parentID)
	for name, v := range keys {
		if v != "" {
			filter[e.path(name)] = bson.M{"$ne": v}
		}
	}
	update := bson.M{"$push": bson.M{e.spec.Field: child}}
	if e.spec.Touch {
		touch(update, "", actor, at)
	}
	var raw bson.Raw
	err = e.store.FindOneAndUpdate(ctx, e.spec.Collection, filter, update, e.projection(), &raw)
	if errors.Is(err, docstore.ErrNoDocuments) {
		current, lerr := e.List(ctx, parentID)
		if lerr != nil {
			return zero, lerr
		}
		if fields := e.spec.Policy.FindCollision(keys, e.pool(current, nil)); len(fields) > 0 {
			return zero, &DuplicateError{Fields: fields, Scope: lower(e.spec.Parent)}
		}
		return zero, notFound(e.spec.Parent)
	}
	if err != nil {
		return zero, storeFailure(e.log, e.spec.Collection, "add_"+e.spec.Field, err)
	}
	return e.pick(raw, e.spec.ID(child), child), nil
}

// Update applies patch to one child. The duplicate check ignores the child
// being edited.
func (e *Embedded[C]) Update(ctx context.Context, parentID, childID primitive.ObjectID, patch ChildPatch, actor string) (C, error) {
	var zero C
	set := patch.Fields()
	if len(set) == 0 {
		return zero, unmodified(e.spec.Child)
	}
	if err := e.spec.Policy.CheckRequired(patch.Keys(), true); err != nil {
		return zero, err
	}
	existing, err := e.List(ctx, parentID)
	if err != nil {
		return zero, err
	}
	if !e.contains(existing, childID) {
		return zero, notFound(e.spec.Child)
	}
	if fields := e.spec.Policy.FindCollision(patch.Keys(), e.pool(existing, &childID)); len(fields) > 0 {
		return zero, &DuplicateError{Fields: fields, Scope: lower(e.spec.Parent)}
	}

	at := e.now()
	fields := bson.M{}
	for k, v := range set {
		fields[e.spec.Field+".$."+k] = v
	}
	update := touch(bson.M{"$set": fields}, e.spec.Field+".$.", actor, at)
	if e.spec.Touch {
		touch(update, "", actor, at)
	}
	filter := e.parentFilter(parentID)
	filter[e.path("_id")] = childID

	var raw bson.Raw
	err = e.store.FindOneAndUpdate(ctx, e.spec.Collection, filter, update, e.projection(), &raw)
	if errors.Is(err, docstore.ErrNoDocuments) {
		return zero, notFound(e.spec.Child)
	}
	if err != nil {
		return zero, storeFailure(e.log, e.spec.Collection, "update_"+e.spec.Field, err)
	}
	return e.pick(raw, childID, zero), nil
}

// Remove pulls the child with childID out of the parent.
func (e *Embedded[C]) Remove(ctx context.Context, parentID, childID primitive.ObjectID, actor string) error {
	return e.RemoveWhere(ctx, parentID, bson.M{"_id": childID}, actor)
}

// RemoveWhere pulls the child matching selector, a document of child fields.
func (e *Embedded[C]) RemoveWhere(ctx context.Context, parentID primitive.ObjectID, selector bson.M, actor string) error {
	filter := e.parentFilter(parentID)
	for k, v := range selector {
		filter[e.path(k)] = v
	}
	update := bson.M{"$pull": bson.M{e.spec.Field: selector}}
	if e.spec.Touch {
		touch(update, "", actor, e.now())
	}
	res, err := e.store.UpdateOne(ctx, e.spec.Collection, filter, update)
	if err != nil {
		return storeFailure(e.log, e.spec.Collection, "remove_"+e.spec.Field, err)
	}
	if res.Modified != 1 {
		return e.missing(ctx, parentID)
	}
	return nil
}

// SetActive moves the child with childID to the Active or Inactive state.
func (e *Embedded[C]) SetActive(ctx context.Context, parentID, childID primitive.ObjectID, active bool, actor string) error {
	return e.SetActiveWhere(ctx, parentID, bson.M{"_id": childID}, active, actor)
}

// SetActiveWhere is SetActive for the first child matching selector.
func (e *Embedded[C]) SetActiveWhere(ctx context.Context, parentID primitive.ObjectID, selector bson.M, active bool, actor string) error {
	filter := e.parentFilter(parentID)
	for k, v := range selector {
		filter[e.path(k)] = v
	}
	update := activation(e.spec.Field+".$.", active, actor, e.now())
	res, err := e.store.UpdateOne(ctx, e.spec.Collection, filter, update)
	if err != nil {
		return storeFailure(e.log, e.spec.Collection, "activate_"+e.spec.Field, err)
	}
	if res.Matched == 0 {
		return e.missing(ctx, parentID)
	}
	if res.Modified == 0 {
		// Repeating a transition within the same millisecond rewrites
		// identical values; that is success if the state already holds.
		held, err := e.inState(ctx, parentID, selector, active)
		if err != nil {
			return err
		}
		if !held {
			return unmodified(e.spec.Child)
		}
	}
	return nil
}

// missing reports which side of a filtered write did not match: the live
// parent, or the child within it.
func (e *Embedded[C]) missing(ctx context.Context, parentID primitive.ObjectID) error {
	live, err := docstore.Exists(ctx, e.store, e.spec.Collection, e.parentFilter(parentID))
	if err != nil {
		return storeFailure(e.log, e.spec.Collection, "find_"+e.spec.Field, err)
	}
	if !live {
		return notFound(e.spec.Parent)
	}
	return notFound(e.spec.Child)
}

func (e *Embedded[C]) inState(ctx context.Context, parentID primitive.ObjectID, selector bson.M, active bool) (bool, error) {
	var raw bson.Raw
	err := e.store.FindOne(ctx, e.spec.Collection, e.parentFilter(parentID), e.projection(), &raw)
	if errors.Is(err, docstore.ErrNoDocuments) {
		return false, notFound(e.spec.Parent)
	}
	if err != nil {
		return false, storeFailure(e.log, e.spec.Collection, "state_"+e.spec.Field, err)
	}
	children, err := childrenOf[bson.M](raw, e.spec.Field)
	if err != nil {
		return false, storeFailure(e.log, e.spec.Collection, "decode_"+e.spec.Field, err)
	}
	for _, child := range children {
		if selects(child, selector) {
			isActive, _ := child["isActive"].(bool)
			return isActive == active, nil
		}
	}
	return false, notFound(e.spec.Child)
}

func selects(child, selector bson.M) bool {
	for k, v := range selector {
		if !reflect.DeepEqual(child[k], v) {
			return false
		}
	}
	return true
}

func (e *Embedded[C]) pool(children []C, exclude *primitive.ObjectID) []Keys {
	out := make([]Keys, 0, len(children))
	for _, c := range children {
		if exclude != nil && e.spec.ID(c) == *exclude {
			continue
		}
		out = append(out, e.spec.Keys(c))
	}
	return out
}

func (e *Embedded[C]) contains(children []C, id primitive.ObjectID) bool {
	for _, c := range children {
		if e.spec.ID(c) == id {
			return true
		}
	}
	return false
}

// pick finds the child with id in a projected parent, falling back to def
// when the post-image cannot be decoded.
func (e *Embedded[C]) pick(raw bson.Raw, id primitive.ObjectID, def C) C {
	children, err := childrenOf[C](raw, e.spec.Field)
	if err != nil {
		e.log.Warn("decode post-image", zap.String("collection", e.spec.Collection), zap.String("field", e.spec.Field), zap.Error(err))
		return def
	}
	for _, c := range children {
		if e.spec.ID(c) == id {
			return c
		}
	}
	return def
}

func childrenOf[C any](raw bson.Raw, field string) ([]C, error) {
	out := []C{}
	val, err := raw.LookupErr(field)
	if err != nil || val.Type != bsontype.Array {
		return out, nil
	}
	if err := val.Unmarshal(&out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []C{}
	}
	return out, nil
}
