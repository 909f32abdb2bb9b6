package metadata

import (
	"reflect"
	"testing"

	"github.com/thisisjab/queryspec/fault"
)

type address struct {
	City string
	Zip  string
}

type person struct {
	Name    string
	Age     int
	Home    address
	Work    *address
	Tags    map[string]string
	Details map[string]any

	secret string //nolint:unused
}

func TestResolveAndLoad(t *testing.T) {
	p := person{
		Name: "Ada",
		Age:  36,
		Home: address{City: "London"},
		Work: &address{City: "Cambridge"},
		Tags: map[string]string{"team": "engine"},
		Details: map[string]any{
			"shift": map[string]any{"start": "09:00"},
		},
	}

	tests := map[string]any{
		"Name":                "Ada",
		"Age":                 36,
		"Home.City":           "London",
		"Work.City":           "Cambridge",
		"Tags.team":           "engine",
		"Details.shift.start": "09:00",
	}

	for path, expected := range tests {
		acc, err := Resolve(reflect.TypeOf(p), path)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", path, err)
		}

		got, ok := acc.Load(p)
		if !ok {
			t.Fatalf("Load(%q) reported a broken path", path)
		}
		if got != expected {
			t.Fatalf("Load(%q) = %v, want %v", path, got, expected)
		}
	}
}

func TestResolveFailures(t *testing.T) {
	tests := []string{
		"",
		"  ",
		"Missing",
		"Name.City", // string has no members
		"Home.Missing",
		"Home..City",
		"secret", // unexported
	}

	for _, path := range tests {
		if _, err := Resolve(reflect.TypeOf(person{}), path); fault.CodeOf(err) != fault.PropertyNotFoundCode {
			t.Fatalf("Resolve(%q) error = %v, want property_not_found", path, err)
		}
	}
}

func TestLoadBrokenPaths(t *testing.T) {
	p := person{Name: "Ada"} // Work, Tags, Details all nil

	tests := []string{"Work.City", "Tags.team", "Details.shift.start"}
	for _, path := range tests {
		acc, err := Resolve(reflect.TypeOf(p), path)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", path, err)
		}
		if v, ok := acc.Load(p); ok {
			t.Fatalf("Load(%q) = %v, want broken path", path, v)
		}
	}
}

type badge struct {
	Code string
}

type staff struct {
	*badge
	Name string
}

func TestLoadPromotedFieldThroughNilEmbedded(t *testing.T) {
	acc, err := Resolve(reflect.TypeOf(staff{}), "Code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A nil embedded pointer makes the path broken, not a panic.
	if v, ok := acc.Load(staff{Name: "Ada"}); ok {
		t.Fatalf("Load(Code) = %v, want broken path", v)
	}

	got, ok := acc.Load(staff{badge: &badge{Code: "b-1"}})
	if !ok || got != "b-1" {
		t.Fatalf("Load(Code) = %v, %v, want b-1", got, ok)
	}
}

func TestStorePromotedFieldAllocatesEmbedded(t *testing.T) {
	acc, err := Resolve(reflect.TypeOf(staff{}), "Code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var s staff
	if err := acc.Store(&s, "b-2"); err != nil {
		t.Fatalf("Store error: %v", err)
	}
	if s.badge == nil || s.Code != "b-2" {
		t.Fatalf("Store did not allocate the embedded pointer, got %+v", s)
	}
}

func TestResolveTerminalType(t *testing.T) {
	tests := map[string]string{
		"Name":      "string",
		"Age":       "int",
		"Home.City": "string",
		"Tags.team": "string",
	}
	for path, expected := range tests {
		acc, err := Resolve(reflect.TypeOf(person{}), path)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", path, err)
		}
		if acc.Type() == nil || acc.Type().String() != expected {
			t.Fatalf("Resolve(%q).Type() = %v, want %s", path, acc.Type(), expected)
		}
	}

	// Interface-valued terrain resolves dynamically.
	acc, err := Resolve(reflect.TypeOf(person{}), "Details.anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.Type() != nil {
		t.Fatalf("dynamic path should have nil type, got %v", acc.Type())
	}
}

func TestResolveCachesAccessors(t *testing.T) {
	first, err := Resolve(reflect.TypeOf(person{}), "Home.City")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Resolve(reflect.TypeOf(person{}), "Home.City")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatal("expected the cached accessor instance on the second lookup")
	}
}

func TestStore(t *testing.T) {
	var p person

	acc, err := Resolve(reflect.TypeOf(p), "Work.City")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := acc.Store(&p, "Berlin"); err != nil {
		t.Fatalf("Store error: %v", err)
	}
	if p.Work == nil || p.Work.City != "Berlin" {
		t.Fatalf("Store did not allocate and assign, got %+v", p.Work)
	}

	ageAcc, err := Resolve(reflect.TypeOf(p), "Age")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ageAcc.Store(&p, int64(41)); err != nil {
		t.Fatalf("Store with convertible type error: %v", err)
	}
	if p.Age != 41 {
		t.Fatalf("Age = %d, want 41", p.Age)
	}

	if err := ageAcc.Store(&p, "not a number"); fault.CodeOf(err) != fault.TypeConversionCode {
		t.Fatalf("expected type_conversion, got %v", err)
	}
	if err := ageAcc.Store(p, 1); fault.CodeOf(err) != fault.BadInputCode {
		t.Fatalf("expected bad_input for non-pointer target, got %v", err)
	}
}
