// Package docstore is the document database seam used by the repositories.
// It exposes the handful of single-document operations the registry needs,
// each of which is atomic on one document: reads with projection, inserts,
// conditional updates reporting matched/modified counts, find-and-update
// returning the post-image, and deletes. Filters and updates are plain BSON
// documents in MongoDB syntax.
package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// Collection names.
const (
	Labs           = "labs"
	Zones          = "labZone"
	TestCategories = "testCategories"
)

var (
	// ErrNoDocuments is returned by FindOne and FindOneAndUpdate when the
	// filter matched nothing.
	ErrNoDocuments = errors.New("docstore: no documents in result")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("docstore: duplicate key")
)

// FindOptions controls projection and ordering of reads. A nil *FindOptions
// returns whole documents in natural order.
type FindOptions struct {
	Projection bson.M
	Sort       bson.D
}

// UpdateResult reports how many documents a filter matched and how many were
// actually changed by the update.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// Store is implemented by the MongoDB adapter and the in-memory adapter.
// Decoding targets follow the bson package rules; passing *bson.Raw yields
// the raw document.
type Store interface {
	FindOne(ctx context.Context, coll string, filter bson.M, opts *FindOptions, out any) error
	Find(ctx context.Context, coll string, filter bson.M, opts *FindOptions, out any) error
	Count(ctx context.Context, coll string, filter bson.M) (int64, error)
	InsertOne(ctx context.Context, coll string, doc any) error
	UpdateOne(ctx context.Context, coll string, filter, update bson.M) (UpdateResult, error)
	FindOneAndUpdate(ctx context.Context, coll string, filter, update bson.M, opts *FindOptions, out any) error
	DeleteOne(ctx context.Context, coll string, filter bson.M) (int64, error)
	Ping(ctx context.Context) error
}

// Exists reports whether at least one document matches filter.
func Exists(ctx context.Context, s Store, coll string, filter bson.M) (bool, error) {
	n, err := s.Count(ctx, coll, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
