package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ObserveFunc receives the outcome of every store call.
type ObserveFunc func(coll, op string, took time.Duration, err error)

type instrumented struct {
	next    Store
	observe ObserveFunc
}

// Instrument wraps s so that every call is reported to observe.
func Instrument(s Store, observe ObserveFunc) Store {
	if observe == nil {
		return s
	}
	return &instrumented{next: s, observe: observe}
}

func (s *instrumented) track(coll, op string, start time.Time, err error) {
	s.observe(coll, op, time.Since(start), err)
}

func (s *instrumented) FindOne(ctx context.Context, coll string, filter bson.M, opts *FindOptions, out any) (err error) {
	defer func(start time.Time) { s.track(coll, "find_one", start, err) }(time.Now())
	return s.next.FindOne(ctx, coll, filter, opts, out)
}

func (s *instrumented) Find(ctx context.Context, coll string, filter bson.M, opts *FindOptions, out any) (err error) {
	defer func(start time.Time) { s.track(coll, "find", start, err) }(time.Now())
	return s.next.Find(ctx, coll, filter, opts, out)
}

func (s *instrumented) Count(ctx context.Context, coll string, filter bson.M) (n int64, err error) {
	defer func(start time.Time) { s.track(coll, "count", start, err) }(time.Now())
	return s.next.Count(ctx, coll, filter)
}

func (s *instrumented) InsertOne(ctx context.Context, coll string, doc any) (err error) {
	defer func(start time.Time) { s.track(coll, "insert_one", start, err) }(time.Now())
	return s.next.InsertOne(ctx, coll, doc)
}

func (s *instrumented) UpdateOne(ctx context.Context, coll string, filter, update bson.M) (res UpdateResult, err error) {
	defer func(start time.Time) { s.track(coll, "update_one", start, err) }(time.Now())
	return s.next.UpdateOne(ctx, coll, filter, update)
}

func (s *instrumented) FindOneAndUpdate(ctx context.Context, coll string, filter, update bson.M, opts *FindOptions, out any) (err error) {
	defer func(start time.Time) { s.track(coll, "find_one_and_update", start, err) }(time.Now())
	return s.next.FindOneAndUpdate(ctx, coll, filter, update, opts, out)
}

func (s *instrumented) DeleteOne(ctx context.Context, coll string, filter bson.M) (n int64, err error) {
	defer func(start time.Time) { s.track(coll, "delete_one", start, err) }(time.Now())
	return s.next.DeleteOne(ctx, coll, filter)
}

func (s *instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
