package coerce

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/thisisjab/queryspec/fault"
)

type severity uint8

const (
	severityLow severity = iota + 1
	severityHigh
)

func TestLiteral(t *testing.T) {
	id := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")

	tests := []struct {
		text     string
		target   any
		expected any
	}{
		{"hello", "", "hello"},
		{"42", int(0), 42},
		{"-42", int64(0), int64(-42)},
		{"42", uint16(0), uint16(42)},
		{"12.5", float64(0), 12.5},
		{"true", false, true},
		{"False", false, false},
		{"2", severityLow, severityHigh},
		{"2021-04-17", time.Time{}, time.Date(2021, 4, 17, 0, 0, 0, 0, time.UTC)},
		{"2022-02-12T12:00:00", time.Time{}, time.Date(2022, 2, 12, 12, 0, 0, 0, time.UTC)},
		{"2022-02-12T10:10:10Z", time.Time{}, time.Date(2022, 2, 12, 10, 10, 10, 0, time.UTC)},
		{"f47ac10b-58cc-4372-a567-0e02b2c3d479", uuid.UUID{}, id},
	}

	for _, tt := range tests {
		got, err := Literal(tt.text, reflect.TypeOf(tt.target))
		if err != nil {
			t.Fatalf("Literal(%q, %T) error: %v", tt.text, tt.target, err)
		}
		if !reflect.DeepEqual(got, tt.expected) {
			t.Fatalf("Literal(%q, %T) = %v (%T), want %v", tt.text, tt.target, got, got, tt.expected)
		}
	}
}

func TestLiteralPointerTargets(t *testing.T) {
	got, err := Literal("7", reflect.TypeOf((*int)(nil)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := got.(*int)
	if !ok || p == nil || *p != 7 {
		t.Fatalf("Literal(7, *int) = %v", got)
	}

	got, err = Literal("null", reflect.TypeOf((*int)(nil)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p := got.(*int); p != nil {
		t.Fatalf("Literal(null, *int) = %v, want typed nil", p)
	}
}

func TestLiteralFailures(t *testing.T) {
	tests := []struct {
		text   string
		target any
	}{
		{"abc", int(0)},
		{"12.5", int(0)},
		{"-1", uint(0)},
		{"yes", false},
		{"not-a-date", time.Time{}},
		{"not-a-uuid", uuid.UUID{}},
		{"null", int(0)},
		{"1", struct{ X int }{}},
	}

	for _, tt := range tests {
		if _, err := Literal(tt.text, reflect.TypeOf(tt.target)); fault.CodeOf(err) != fault.TypeConversionCode {
			t.Fatalf("Literal(%q, %T) error = %v, want type_conversion", tt.text, tt.target, err)
		}
	}
}

func TestLiteralDynamicTarget(t *testing.T) {
	tests := map[string]any{
		"null":  nil,
		"true":  true,
		"false": false,
		"42":    int64(42),
		"12.5":  12.5,
		"hello": "hello",
	}

	for text, expected := range tests {
		got, err := Literal(text, nil)
		if err != nil {
			t.Fatalf("Literal(%q, nil) error: %v", text, err)
		}
		if got != expected {
			t.Fatalf("Literal(%q, nil) = %v (%T), want %v", text, got, got, expected)
		}
	}
}
