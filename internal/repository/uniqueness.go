package repository

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/net/idna"

	"github.com/iliyamo/lab-registry/internal/docstore"
)

// Scope says where a uniqueness rule applies.
type Scope int

const (
	// ScopeGlobal rules apply across a whole collection.
	ScopeGlobal Scope = iota
	// ScopeParent rules apply among the children of one parent document.
	ScopeParent
)

// Keys maps a unique field name to its normalized value. Empty values never
// collide.
type Keys map[string]string

// UniqueField is one field of a uniqueness rule and the normalizer applied to
// its values before storage and comparison.
type UniqueField struct {
	Name      string
	Normalize func(string) string
}

// Policy is the uniqueness rule for one entity type. Required names the
// fields that must be non-empty after normalization; an empty value would
// never collide and so could repeat.
type Policy struct {
	Entity   string
	Scope    Scope
	Fields   []UniqueField
	Required []string
}

var (
	LabPolicy      = Policy{Entity: "lab", Scope: ScopeGlobal, Fields: []UniqueField{{"labId", NormalizeID}}, Required: []string{"labId"}}
	ZonePolicy     = Policy{Entity: "zone", Scope: ScopeGlobal, Fields: []UniqueField{{"zoneName", NormalizeName}}, Required: []string{"zoneName"}}
	CategoryPolicy = Policy{Entity: "category", Scope: ScopeGlobal, Fields: []UniqueField{{"categoryName", NormalizeName}}, Required: []string{"categoryName"}}

	AdminPolicy   = Policy{Entity: "admin", Scope: ScopeParent, Fields: accountUniqueFields, Required: []string{"username"}}
	StaffPolicy   = Policy{Entity: "staff", Scope: ScopeParent, Fields: accountUniqueFields, Required: []string{"username"}}
	SubZonePolicy = Policy{Entity: "subzone", Scope: ScopeParent, Fields: []UniqueField{{"subZoneName", NormalizeName}}, Required: []string{"subZoneName"}}
	TestPolicy    = Policy{Entity: "test", Scope: ScopeParent, Fields: []UniqueField{{"testName", NormalizeName}}, Required: []string{"testName"}}
)

var accountUniqueFields = []UniqueField{
	{"username", NormalizeUsername},
	{"email", NormalizeEmail},
	{"phone", NormalizePhone},
}

// Normalize returns a copy of k with every known field normalized. Fields the
// policy does not list are dropped.
func (p Policy) Normalize(k Keys) Keys {
	out := make(Keys, len(p.Fields))
	for _, f := range p.Fields {
		if v, ok := k[f.Name]; ok {
			out[f.Name] = f.Normalize(v)
		}
	}
	return out
}

// CheckRequired returns a *BlankError when a required field of candidate is
// empty. With partial set, as for patches, absent fields are not checked.
func (p Policy) CheckRequired(candidate Keys, partial bool) error {
	var blank []string
	for _, name := range p.Required {
		v, ok := candidate[name]
		if partial && !ok {
			continue
		}
		if v == "" {
			blank = append(blank, name)
		}
	}
	if len(blank) > 0 {
		return &BlankError{Fields: blank}
	}
	return nil
}

// FindCollision returns, in policy order, every field of candidate whose
// value is already used by some member of pool. Callers updating a record
// pass a pool that excludes it.
func (p Policy) FindCollision(candidate Keys, pool []Keys) []string {
	var fields []string
	for _, f := range p.Fields {
		v := candidate[f.Name]
		if v == "" {
			continue
		}
		for _, other := range pool {
			if other[f.Name] == v {
				fields = append(fields, f.Name)
				break
			}
		}
	}
	return fields
}

// globalCollisions checks each field of candidate against coll. live narrows
// the search (e.g. to non-deleted labs) and exclude skips the record being
// updated.
func globalCollisions(ctx context.Context, store docstore.Store, coll string, p Policy, candidate Keys, live bson.M, exclude *primitive.ObjectID) ([]string, error) {
	var fields []string
	for _, f := range p.Fields {
		v := candidate[f.Name]
		if v == "" {
			continue
		}
		filter := bson.M{f.Name: v}
		for k, cond := range live {
			filter[k] = cond
		}
		if exclude != nil {
			filter["_id"] = bson.M{"$ne": *exclude}
		}
		taken, err := docstore.Exists(ctx, store, coll, filter)
		if err != nil {
			return nil, err
		}
		if taken {
			fields = append(fields, f.Name)
		}
	}
	return fields, nil
}

// NormalizeName upper-cases a display name and collapses inner whitespace.
func NormalizeName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// NormalizeID trims a business identifier; it is otherwise compared exactly.
func NormalizeID(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeUsername trims a username. Usernames are case-sensitive.
func NormalizeUsername(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail lower-cases an address and converts an internationalized
// domain to its ASCII form, so "A@Bücher.de" and "a@xn--bcher-kva.de" collide.
func NormalizeEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return s
	}
	local, domain := s[:at], s[at+1:]
	if ascii, err := idna.Lookup.ToASCII(domain); err == nil {
		domain = ascii
	}
	return local + "@" + domain
}

// NormalizePhone drops spaces, dashes, dots and parentheses.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')', '\t':
			return -1
		}
		return r
	}, s)
}
