package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process Store. Documents are kept as BSON maps produced by
// the bson codec, so decoding into model structs behaves exactly as it does
// against MongoDB. It understands the subset of query and update syntax the
// repositories use: equality, $ne, $in, $nin, $exists, $or, $and and $nor in
// filters (dotted paths traverse arrays), and $set, $unset, $push and $pull
// in updates, including the positional $ operator.
//
// Every operation runs under one lock, which gives at least the
// single-document atomicity MongoDB offers. Unique indexes are not emulated.
type Memory struct {
	mu    sync.RWMutex
	colls map[string][]bson.M
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{colls: make(map[string][]bson.M)}
}

func (m *Memory) FindOne(_ context.Context, coll string, filter bson.M, opts *FindOptions, out any) error {
	f, err := toDoc(filter)
	if err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.matching(coll, f, opts)
	if len(docs) == 0 {
		return ErrNoDocuments
	}
	return decode(project(docs[0], opts), out)
}

func (m *Memory) Find(_ context.Context, coll string, filter bson.M, opts *FindOptions, out any) error {
	f, err := toDoc(filter)
	if err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.matching(coll, f, opts)
	arr := make(bson.A, 0, len(docs))
	for _, d := range docs {
		arr = append(arr, project(d, opts))
	}
	b, err := bson.Marshal(bson.D{{Key: "docs", Value: arr}})
	if err != nil {
		return err
	}
	return bson.Raw(b).Lookup("docs").Unmarshal(out)
}

func (m *Memory) Count(_ context.Context, coll string, filter bson.M) (int64, error) {
	f, err := toDoc(filter)
	if err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.matching(coll, f, nil))), nil
}

func (m *Memory) InsertOne(_ context.Context, coll string, doc any) error {
	d, err := toDoc(doc)
	if err != nil {
		return err
	}
	if _, ok := d["_id"]; !ok {
		d["_id"] = primitive.NewObjectID()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.colls[coll] {
		if equal(existing["_id"], d["_id"]) {
			return ErrDuplicateKey
		}
	}
	m.colls[coll] = append(m.colls[coll], d)
	return nil
}

func (m *Memory) UpdateOne(_ context.Context, coll string, filter, update bson.M) (UpdateResult, error) {
	f, u, err := toDocs(filter, update)
	if err != nil {
		return UpdateResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.first(coll, f)
	if i < 0 {
		return UpdateResult{}, nil
	}
	modified, err := m.apply(coll, i, f, u)
	if err != nil {
		return UpdateResult{}, err
	}
	res := UpdateResult{Matched: 1}
	if modified {
		res.Modified = 1
	}
	return res, nil
}

func (m *Memory) FindOneAndUpdate(_ context.Context, coll string, filter, update bson.M, opts *FindOptions, out any) error {
	f, u, err := toDocs(filter, update)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.first(coll, f)
	if i < 0 {
		return ErrNoDocuments
	}
	if _, err := m.apply(coll, i, f, u); err != nil {
		return err
	}
	return decode(project(m.colls[coll][i], opts), out)
}

func (m *Memory) DeleteOne(_ context.Context, coll string, filter bson.M) (int64, error) {
	f, err := toDoc(filter)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.first(coll, f)
	if i < 0 {
		return 0, nil
	}
	docs := m.colls[coll]
	m.colls[coll] = append(docs[:i:i], docs[i+1:]...)
	return 1, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) first(coll string, filter bson.M) int {
	for i, d := range m.colls[coll] {
		if matches(d, filter) {
			return i
		}
	}
	return -1
}

func (m *Memory) matching(coll string, filter bson.M, opts *FindOptions) []bson.M {
	var out []bson.M
	for _, d := range m.colls[coll] {
		if matches(d, filter) {
			out = append(out, d)
		}
	}
	if opts != nil && len(opts.Sort) > 0 {
		key := strings.Split(opts.Sort[0].Key, ".")
		desc := false
		if n, ok := number(opts.Sort[0].Value); ok && n < 0 {
			desc = true
		}
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(firstOf(resolve(out[i], key)), firstOf(resolve(out[j], key)))
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	return out
}

// apply runs update against a copy of document i and swaps the copy in when
// anything changed. A failed update leaves the stored document untouched.
func (m *Memory) apply(coll string, i int, filter, update bson.M) (bool, error) {
	before := m.colls[coll][i]
	after := normalize(before).(bson.M)
	if err := applyUpdate(after, filter, update); err != nil {
		return false, err
	}
	if reflect.DeepEqual(before, after) {
		return false, nil
	}
	m.colls[coll][i] = after
	return true, nil
}

func toDocs(filter, update bson.M) (bson.M, bson.M, error) {
	f, err := toDoc(filter)
	if err != nil {
		return nil, nil, err
	}
	u, err := toDoc(update)
	if err != nil {
		return nil, nil, err
	}
	return f, u, nil
}

// toDoc round-trips v through the bson codec so every value takes its
// stored form (time.Time becomes a DateTime, structs become maps).
func toDoc(v any) (bson.M, error) {
	if v == nil {
		return bson.M{}, nil
	}
	if m, ok := v.(bson.M); ok && m == nil {
		return bson.M{}, nil
	}
	b, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: marshal: %w", err)
	}
	var out bson.M
	if err := bson.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("docstore: unmarshal: %w", err)
	}
	return normalize(out).(bson.M), nil
}

func decode(doc bson.M, out any) error {
	b, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	if raw, ok := out.(*bson.Raw); ok {
		*raw = bson.Raw(b)
		return nil
	}
	return bson.Unmarshal(b, out)
}

// normalize deep-copies v and converts every embedded document to bson.M and
// every array to bson.A.
func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(bson.M, len(t))
		for k, x := range t {
			out[k] = normalize(x)
		}
		return out
	case map[string]any:
		out := make(bson.M, len(t))
		for k, x := range t {
			out[k] = normalize(x)
		}
		return out
	case bson.D:
		out := make(bson.M, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make(bson.A, len(t))
		for i, x := range t {
			out[i] = normalize(x)
		}
		return out
	case []any:
		out := make(bson.A, len(t))
		for i, x := range t {
			out[i] = normalize(x)
		}
		return out
	}
	return v
}

func project(doc bson.M, opts *FindOptions) bson.M {
	if opts == nil || len(opts.Projection) == 0 {
		return doc
	}
	include := false
	for k, v := range opts.Projection {
		if k != "_id" && truthy(v) {
			include = true
		}
	}
	out := bson.M{}
	if include {
		out["_id"] = doc["_id"]
		for k, v := range opts.Projection {
			if !truthy(v) {
				continue
			}
			top := strings.SplitN(k, ".", 2)[0]
			if x, ok := doc[top]; ok {
				out[top] = x
			}
		}
		if v, ok := opts.Projection["_id"]; ok && !truthy(v) {
			delete(out, "_id")
		}
		return out
	}
	for k, v := range doc {
		out[k] = v
	}
	for k := range opts.Projection {
		delete(out, k)
	}
	return out
}
