package docstore

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type member struct {
	ID     primitive.ObjectID `bson:"_id"`
	Name   string             `bson:"name"`
	Active bool               `bson:"active"`
}

type team struct {
	ID      primitive.ObjectID `bson:"_id"`
	Title   string             `bson:"title"`
	Members []member           `bson:"members"`
}

func seedTeam(t *testing.T, s *Memory, title string, names ...string) team {
	t.Helper()
	tm := team{ID: primitive.NewObjectID(), Title: title, Members: []member{}}
	for _, n := range names {
		tm.Members = append(tm.Members, member{ID: primitive.NewObjectID(), Name: n, Active: true})
	}
	if err := s.InsertOne(context.Background(), "teams", tm); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return tm
}

func TestMemoryInsertRejectsDuplicateID(t *testing.T) {
	s := NewMemory()
	tm := seedTeam(t, s, "a")
	err := s.InsertOne(context.Background(), "teams", tm)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("want ErrDuplicateKey, got %v", err)
	}
}

func TestMemoryFindOneNoDocuments(t *testing.T) {
	s := NewMemory()
	var out team
	err := s.FindOne(context.Background(), "teams", bson.M{"_id": primitive.NewObjectID()}, nil, &out)
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("want ErrNoDocuments, got %v", err)
	}
}

func TestMemoryPositionalSetAndModifiedCount(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	tm := seedTeam(t, s, "a", "x", "y")
	target := tm.Members[1].ID

	filter := bson.M{"_id": tm.ID, "members._id": target}
	res, err := s.UpdateOne(ctx, "teams", filter, bson.M{"$set": bson.M{"members.$.active": false}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Matched != 1 || res.Modified != 1 {
		t.Fatalf("want 1/1, got %+v", res)
	}

	// same value again: matched but not modified
	res, err = s.UpdateOne(ctx, "teams", filter, bson.M{"$set": bson.M{"members.$.active": false}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Matched != 1 || res.Modified != 0 {
		t.Fatalf("want 1/0, got %+v", res)
	}

	var got team
	if err := s.FindOne(ctx, "teams", bson.M{"_id": tm.ID}, nil, &got); err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.Members[0].Active || got.Members[1].Active {
		t.Fatalf("positional update hit the wrong element: %+v", got.Members)
	}
}

func TestMemoryUnmatchedChildFilter(t *testing.T) {
	s := NewMemory()
	tm := seedTeam(t, s, "a", "x")
	res, err := s.UpdateOne(context.Background(), "teams",
		bson.M{"_id": tm.ID, "members._id": primitive.NewObjectID()},
		bson.M{"$set": bson.M{"members.$.active": false}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Matched != 0 {
		t.Fatalf("want no match, got %+v", res)
	}
}

func TestMemoryGuardedPush(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	tm := seedTeam(t, s, "a", "x")

	var raw bson.Raw
	err := s.FindOneAndUpdate(ctx, "teams",
		bson.M{"_id": tm.ID, "members.name": bson.M{"$ne": "x"}},
		bson.M{"$push": bson.M{"members": member{ID: primitive.NewObjectID(), Name: "x"}}},
		nil, &raw)
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("colliding push should match nothing, got %v", err)
	}

	err = s.FindOneAndUpdate(ctx, "teams",
		bson.M{"_id": tm.ID, "members.name": bson.M{"$ne": "z"}},
		bson.M{"$push": bson.M{"members": member{ID: primitive.NewObjectID(), Name: "z"}}},
		&FindOptions{Projection: bson.M{"members": 1}}, &raw)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	var members []member
	if err := raw.Lookup("members").Unmarshal(&members); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(members) != 2 || members[1].Name != "z" {
		t.Fatalf("unexpected members %+v", members)
	}
	if _, err := raw.LookupErr("title"); err == nil {
		t.Fatal("projection should drop title")
	}
}

func TestMemoryPullAndUnset(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	tm := seedTeam(t, s, "a", "x", "y")

	res, err := s.UpdateOne(ctx, "teams", bson.M{"_id": tm.ID},
		bson.M{"$pull": bson.M{"members": bson.M{"_id": tm.Members[0].ID}}})
	if err != nil || res.Modified != 1 {
		t.Fatalf("pull: %+v %v", res, err)
	}
	res, err = s.UpdateOne(ctx, "teams", bson.M{"_id": tm.ID},
		bson.M{"$pull": bson.M{"members": bson.M{"_id": tm.Members[0].ID}}})
	if err != nil || res.Modified != 0 {
		t.Fatalf("second pull should not modify: %+v %v", res, err)
	}

	if _, err := s.UpdateOne(ctx, "teams", bson.M{"_id": tm.ID}, bson.M{"$unset": bson.M{"title": ""}}); err != nil {
		t.Fatalf("unset: %v", err)
	}
	n, err := s.Count(ctx, "teams", bson.M{"title": bson.M{"$exists": false}})
	if err != nil || n != 1 {
		t.Fatalf("want unset title, count=%d err=%v", n, err)
	}
}

func TestMemoryFindSortAndOr(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	seedTeam(t, s, "charlie")
	seedTeam(t, s, "alpha")
	seedTeam(t, s, "bravo")

	var out []team
	err := s.Find(ctx, "teams",
		bson.M{"$or": bson.A{bson.M{"title": "alpha"}, bson.M{"title": "charlie"}}},
		&FindOptions{Sort: bson.D{{Key: "title", Value: 1}}}, &out)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(out) != 2 || out[0].Title != "alpha" || out[1].Title != "charlie" {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestMemoryDeleteOne(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	tm := seedTeam(t, s, "a")
	n, err := s.DeleteOne(ctx, "teams", bson.M{"_id": tm.ID})
	if err != nil || n != 1 {
		t.Fatalf("delete: %d %v", n, err)
	}
	n, err = s.DeleteOne(ctx, "teams", bson.M{"_id": tm.ID})
	if err != nil || n != 0 {
		t.Fatalf("second delete: %d %v", n, err)
	}
}
