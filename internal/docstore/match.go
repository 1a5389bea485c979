package docstore

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func matches(doc bson.M, filter bson.M) bool {
	for key, cond := range filter {
		switch key {
		case "$or":
			ok := false
			for _, sub := range asList(cond) {
				if m, isDoc := sub.(bson.M); isDoc && matches(doc, m) {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
		case "$and":
			for _, sub := range asList(cond) {
				if m, isDoc := sub.(bson.M); !isDoc || !matches(doc, m) {
					return false
				}
			}
		case "$nor":
			for _, sub := range asList(cond) {
				if m, isDoc := sub.(bson.M); isDoc && matches(doc, m) {
					return false
				}
			}
		default:
			if !matchValues(resolve(doc, strings.Split(key, ".")), cond) {
				return false
			}
		}
	}
	return true
}

// resolve collects the values found at path, descending into every element
// when it meets an array, as MongoDB does for dotted paths.
func resolve(v any, path []string) []any {
	if len(path) == 0 {
		return []any{v}
	}
	switch t := v.(type) {
	case bson.M:
		child, ok := t[path[0]]
		if !ok {
			return nil
		}
		return resolve(child, path[1:])
	case bson.A:
		var out []any
		for _, el := range t {
			out = append(out, resolve(el, path)...)
		}
		return out
	}
	return nil
}

func matchValues(vals []any, cond any) bool {
	ops, ok := operators(cond)
	if !ok {
		return eqAny(vals, cond)
	}
	for op, arg := range ops {
		switch op {
		case "$eq":
			if !eqAny(vals, arg) {
				return false
			}
		case "$ne":
			if eqAny(vals, arg) {
				return false
			}
		case "$in":
			if !inAny(vals, arg) {
				return false
			}
		case "$nin":
			if inAny(vals, arg) {
				return false
			}
		case "$exists":
			if (len(vals) > 0) != truthy(arg) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func operators(cond any) (bson.M, bool) {
	m, ok := cond.(bson.M)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func eqAny(vals []any, x any) bool {
	if x == nil && len(vals) == 0 {
		return true
	}
	for _, v := range vals {
		if equal(v, x) {
			return true
		}
		if arr, ok := v.(bson.A); ok {
			for _, el := range arr {
				if equal(el, x) {
					return true
				}
			}
		}
	}
	return false
}

func inAny(vals []any, list any) bool {
	for _, x := range asList(list) {
		if eqAny(vals, x) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	if x, ok := number(a); ok {
		y, ok := number(b)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func truthy(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	n, ok := number(v)
	return ok && n != 0
}

func asList(v any) []any {
	switch t := v.(type) {
	case bson.A:
		return t
	case []any:
		return t
	}
	return nil
}

func firstOf(vals []any) any {
	if len(vals) == 0 {
		return nil
	}
	return vals[0]
}

// compare orders scalars of the same kind; nil sorts first and values of
// different kinds compare equal.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
		}
		return 0
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case primitive.DateTime:
		if y, ok := b.(primitive.DateTime); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
		}
	case primitive.ObjectID:
		if y, ok := b.(primitive.ObjectID); ok {
			return strings.Compare(x.Hex(), y.Hex())
		}
	}
	return 0
}

func applyUpdate(doc, filter, update bson.M) error {
	for op, arg := range update {
		fields, ok := arg.(bson.M)
		if !ok {
			return fmt.Errorf("docstore: %s expects a document", op)
		}
		for path, v := range fields {
			var err error
			switch op {
			case "$set":
				err = setPath(doc, filter, path, v)
			case "$unset":
				err = unsetPath(doc, filter, path)
			case "$push":
				err = push(doc, path, v)
			case "$pull":
				err = pull(doc, path, v)
			default:
				err = fmt.Errorf("docstore: unsupported update operator %s", op)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func setPath(doc, filter bson.M, path string, v any) error {
	parts := strings.Split(path, ".")
	var cur any = doc
	for i, p := range parts {
		last := i == len(parts)-1
		switch node := cur.(type) {
		case bson.M:
			if last {
				node[p] = v
				return nil
			}
			next, ok := node[p]
			if !ok || next == nil {
				next = bson.M{}
				node[p] = next
			}
			cur = next
		case bson.A:
			idx, err := elemIndex(doc, filter, parts[:i], p, len(node))
			if err != nil {
				return err
			}
			if last {
				node[idx] = v
				return nil
			}
			cur = node[idx]
		default:
			return fmt.Errorf("docstore: cannot set %q", path)
		}
	}
	return nil
}

func unsetPath(doc, filter bson.M, path string) error {
	parts := strings.Split(path, ".")
	var cur any = doc
	for i, p := range parts {
		last := i == len(parts)-1
		switch node := cur.(type) {
		case bson.M:
			if last {
				delete(node, p)
				return nil
			}
			next, ok := node[p]
			if !ok {
				return nil
			}
			cur = next
		case bson.A:
			idx, err := elemIndex(doc, filter, parts[:i], p, len(node))
			if err != nil {
				return err
			}
			if last {
				node[idx] = nil
				return nil
			}
			cur = node[idx]
		default:
			return nil
		}
	}
	return nil
}

// elemIndex resolves an array path segment: either a numeric index or the
// positional operator, which selects the first element matched by the
// filter's conditions on that array.
func elemIndex(doc, filter bson.M, arrayPath []string, seg string, n int) (int, error) {
	if seg != "$" {
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= n {
			return 0, fmt.Errorf("docstore: bad array index %q", seg)
		}
		return idx, nil
	}
	array := strings.Join(arrayPath, ".")
	prefix := array + "."
	sub := bson.M{}
	for k, cond := range filter {
		if strings.HasPrefix(k, prefix) {
			sub[strings.TrimPrefix(k, prefix)] = cond
		}
	}
	if len(sub) > 0 {
		vals := resolve(doc, arrayPath)
		if len(vals) == 1 {
			if arr, ok := vals[0].(bson.A); ok {
				for i, el := range arr {
					if m, ok := el.(bson.M); ok && matches(m, sub) {
						return i, nil
					}
				}
			}
		}
	}
	return 0, fmt.Errorf("docstore: positional operator did not find the match needed from the query on %q", array)
}

func parentOf(doc bson.M, path string) (bson.M, string) {
	parts := strings.Split(path, ".")
	parent := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := parent[p].(bson.M)
		if !ok {
			next = bson.M{}
			parent[p] = next
		}
		parent = next
	}
	return parent, parts[len(parts)-1]
}

func push(doc bson.M, path string, v any) error {
	parent, key := parentOf(doc, path)
	switch cur := parent[key].(type) {
	case nil:
		parent[key] = bson.A{v}
	case bson.A:
		parent[key] = append(cur, v)
	default:
		return fmt.Errorf("docstore: cannot push to non-array field %q", path)
	}
	return nil
}

func pull(doc bson.M, path string, cond any) error {
	parent, key := parentOf(doc, path)
	arr, ok := parent[key].(bson.A)
	if !ok {
		return nil
	}
	kept := make(bson.A, 0, len(arr))
	for _, el := range arr {
		if !pulled(el, cond) {
			kept = append(kept, el)
		}
	}
	parent[key] = kept
	return nil
}

func pulled(el, cond any) bool {
	if c, ok := cond.(bson.M); ok {
		if _, isOps := operators(c); !isOps {
			m, isDoc := el.(bson.M)
			return isDoc && matches(m, c)
		}
	}
	return matchValues([]any{el}, cond)
}
