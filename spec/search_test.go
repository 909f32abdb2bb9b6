package spec

import (
	"testing"

	"github.com/thisisjab/queryspec/ast"
	"github.com/thisisjab/queryspec/fault"
)

func TestSearchCompileGrouping(t *testing.T) {
	b := NewSearchBuilder[book]().
		Add("Title", "sea", 0).
		Add("Author", "wolf", 1).
		Add("Title", "wave", 0)

	// OR within a group in add order, AND across groups ascending.
	expected := `((Title.Contains("sea") || Title.Contains("wave")) && Author.Contains("wolf"))`
	if got := b.Compile().Source(); got != expected {
		t.Fatalf("Compile().Source() = %s, want %s", got, expected)
	}
}

func TestSearchCompileEmpty(t *testing.T) {
	if expr := NewSearchBuilder[book]().Compile(); expr != nil {
		t.Fatalf("empty builder compiled to %v, want nil", expr)
	}
}

func TestSearchGroupOrderIsAscending(t *testing.T) {
	b := NewSearchBuilder[book]().
		Add("Title", "b", 5).
		Add("Author", "a", 2)

	expected := `(Author.Contains("a") && Title.Contains("b"))`
	if got := b.Compile().Source(); got != expected {
		t.Fatalf("Compile().Source() = %s, want %s", got, expected)
	}
}

func TestSearchMatches(t *testing.T) {
	b := NewSearchBuilder[book]().
		Add("Title", "Wave", 0).
		Add("Title", "Orla", 0).
		Add("Author", "Woolf", 1)

	pred := b.Compile()

	if !ast.Matches(pred, book{Title: "The Waves", Author: "Woolf"}) {
		t.Fatal("expected match")
	}
	if !ast.Matches(pred, book{Title: "Orlando", Author: "Woolf"}) {
		t.Fatal("expected match")
	}
	// Group 1 fails, so the whole predicate fails.
	if ast.Matches(pred, book{Title: "The Waves", Author: "Austen"}) {
		t.Fatal("unexpected match")
	}
}

func TestSearchAddValidation(t *testing.T) {
	mustPanicCode(t, fault.PropertyNotFoundCode, func() {
		NewSearchBuilder[book]().Add("Missing", "x", 0)
	})
	// Substring search requires a string property.
	mustPanicCode(t, fault.PropertyNotFoundCode, func() {
		NewSearchBuilder[book]().Add("Pages", "3", 0)
	})
	mustPanicCode(t, fault.BadInputCode, func() {
		NewSearchBuilder[book]().AddDescriptor(nil)
	})
}

func TestSearchRemove(t *testing.T) {
	b := NewSearchBuilder[book]().
		Add("Title", "a", 0).
		Add("Title", "b", 0)

	b.Remove("Title", "a", 0)
	if b.Len() != 1 || b.At(0).Term != "b" {
		t.Fatalf("unexpected descriptors: %+v", b.Descriptors())
	}

	b.Remove("Title", "a", 0) // absent, no-op
	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", b.Len())
	}
}
