package repository

import (
	"reflect"
	"testing"
)

func TestNormalizers(t *testing.T) {
	cases := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"name", NormalizeName, "  sector   a ", "SECTOR A"},
		{"id", NormalizeID, " 000123 ", "000123"},
		{"username", NormalizeUsername, " Alice ", "Alice"},
		{"email", NormalizeEmail, " A.User@Example.COM ", "a.user@example.com"},
		{"email idn", NormalizeEmail, "info@Bücher.de", "info@xn--bcher-kva.de"},
		{"email no at", NormalizeEmail, "NotAnEmail", "notanemail"},
		{"phone", NormalizePhone, "+1 (555) 010-20.30", "+15550102030"},
	}
	for _, c := range cases {
		if got := c.fn(c.in); got != c.want {
			t.Fatalf("%s(%q)=%q; want %q", c.name, c.in, got, c.want)
		}
	}
}

func TestFindCollisionReportsFieldsInPolicyOrder(t *testing.T) {
	pool := []Keys{
		{"username": "alice", "email": "a@x.com", "phone": "111"},
		{"username": "bob", "email": "b@x.com", "phone": "222"},
	}
	got := AdminPolicy.FindCollision(Keys{"phone": "222", "username": "alice", "email": "new@x.com"}, pool)
	want := []string{"username", "phone"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("collision=%v; want %v", got, want)
	}
}

func TestFindCollisionIgnoresEmptyValues(t *testing.T) {
	pool := []Keys{{"username": "alice", "email": "", "phone": ""}}
	if got := AdminPolicy.FindCollision(Keys{"username": "carol", "email": "", "phone": ""}, pool); len(got) != 0 {
		t.Fatalf("collision=%v; want none", got)
	}
}

func TestPolicyNormalizeDropsUnknownFields(t *testing.T) {
	got := ZonePolicy.Normalize(Keys{"zoneName": " north ", "other": "x"})
	want := Keys{"zoneName": "NORTH"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalize=%v; want %v", got, want)
	}
}

func TestDuplicateErrorMessage(t *testing.T) {
	err := &DuplicateError{Fields: []string{"username", "email"}, Scope: "lab"}
	want := "Duplicate values found: username, email already exists in this lab"
	if err.Error() != want {
		t.Fatalf("message=%q; want %q", err.Error(), want)
	}
	global := &DuplicateError{Fields: []string{"labId"}}
	if global.Error() != "Duplicate values found: labId already exists" {
		t.Fatalf("message=%q", global.Error())
	}
}
