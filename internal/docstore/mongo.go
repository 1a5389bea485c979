package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo implements Store on a MongoDB database.
type Mongo struct {
	db *mongo.Database
}

// NewMongo wraps an already connected database handle.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

func (m *Mongo) FindOne(ctx context.Context, coll string, filter bson.M, opts *FindOptions, out any) error {
	o := options.FindOne()
	if opts != nil {
		if opts.Projection != nil {
			o.SetProjection(opts.Projection)
		}
		if opts.Sort != nil {
			o.SetSort(opts.Sort)
		}
	}
	return decodeSingle(m.db.Collection(coll).FindOne(ctx, filter, o), out)
}

func (m *Mongo) Find(ctx context.Context, coll string, filter bson.M, opts *FindOptions, out any) error {
	o := options.Find()
	if opts != nil {
		if opts.Projection != nil {
			o.SetProjection(opts.Projection)
		}
		if opts.Sort != nil {
			o.SetSort(opts.Sort)
		}
	}
	cur, err := m.db.Collection(coll).Find(ctx, filter, o)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

func (m *Mongo) Count(ctx context.Context, coll string, filter bson.M) (int64, error) {
	return m.db.Collection(coll).CountDocuments(ctx, filter)
}

func (m *Mongo) InsertOne(ctx context.Context, coll string, doc any) error {
	_, err := m.db.Collection(coll).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}

func (m *Mongo) UpdateOne(ctx context.Context, coll string, filter, update bson.M) (UpdateResult, error) {
	res, err := m.db.Collection(coll).UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return UpdateResult{}, ErrDuplicateKey
		}
		return UpdateResult{}, err
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (m *Mongo) FindOneAndUpdate(ctx context.Context, coll string, filter, update bson.M, opts *FindOptions, out any) error {
	o := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if opts != nil && opts.Projection != nil {
		o.SetProjection(opts.Projection)
	}
	err := decodeSingle(m.db.Collection(coll).FindOneAndUpdate(ctx, filter, update, o), out)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}

func (m *Mongo) DeleteOne(ctx context.Context, coll string, filter bson.M) (int64, error) {
	res, err := m.db.Collection(coll).DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the given indexes on coll. Existing indexes with the
// same definition are left alone by the server.
func (m *Mongo) EnsureIndexes(ctx context.Context, coll string, models []mongo.IndexModel) ([]string, error) {
	if len(models) == 0 {
		return nil, nil
	}
	return m.db.Collection(coll).Indexes().CreateMany(ctx, models)
}

func decodeSingle(res *mongo.SingleResult, out any) error {
	var err error
	if raw, ok := out.(*bson.Raw); ok {
		*raw, err = res.Raw()
	} else {
		err = res.Decode(out)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNoDocuments
	}
	return err
}
