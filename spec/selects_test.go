package spec

import (
	"testing"

	"github.com/thisisjab/queryspec/fault"
)

type bookSummary struct {
	Title string
	Year  int
	By    string
}

func TestSelectDefaultDestination(t *testing.T) {
	b := NewSelectBuilder[book, bookSummary]().Add("Title")
	if d := b.At(0); d.Destination != "Title" {
		t.Fatalf("Destination = %q, want Title", d.Destination)
	}
}

func TestSelectDefaultDestinationRequiresMember(t *testing.T) {
	mustPanicCode(t, fault.BadInputCode, func() {
		// bookSummary has no Author member, so the destination cannot
		// be defaulted.
		NewSelectBuilder[book, bookSummary]().Add("Author")
	})
}

func TestSelectAddValidation(t *testing.T) {
	mustPanicCode(t, fault.PropertyNotFoundCode, func() {
		NewSelectBuilder[book, bookSummary]().Add("Missing")
	})
	mustPanicCode(t, fault.PropertyNotFoundCode, func() {
		NewSelectBuilder[book, bookSummary]().AddAs("Title", "Missing")
	})
	mustPanicCode(t, fault.TypeConversionCode, func() {
		// string into int
		NewSelectBuilder[book, bookSummary]().AddAs("Title", "Year")
	})
	mustPanicCode(t, fault.BadInputCode, func() {
		NewSelectBuilder[book, bookSummary]().AddDescriptor(nil)
	})
}

func TestSelectCompileProjection(t *testing.T) {
	b := NewSelectBuilder[book, bookSummary]().
		Add("Title").
		Add("Year").
		AddAs("Author", "By")

	project, err := b.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := project(book{Title: "Orlando", Author: "Woolf", Pages: 333, Year: 1928})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := bookSummary{Title: "Orlando", Year: 1928, By: "Woolf"}
	if got != expected {
		t.Fatalf("projection = %+v, want %+v", got, expected)
	}
}

func TestSelectCompileDynamicResult(t *testing.T) {
	b := NewSelectBuilder[book, map[string]any]().
		Add("Title").
		AddAs("Author", "by")

	project, err := b.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := project(book{Title: "Emma", Author: "Austen"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["Title"] != "Emma" || got["by"] != "Austen" {
		t.Fatalf("projection = %v", got)
	}
}

func TestSelectCompileEmpty(t *testing.T) {
	// Identical types: identity.
	identity, err := NewSelectBuilder[book, book]().Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := book{Title: "Emma"}
	if got, _ := identity(in); got != in {
		t.Fatalf("identity projection = %+v", got)
	}

	// Dynamic result type: no projection at all.
	project, err := NewSelectBuilder[book, map[string]any]().Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if project != nil {
		t.Fatal("expected nil projection for empty dynamic select")
	}

	// Differing concrete types: ambiguous.
	_, err = NewSelectBuilder[book, bookSummary]().Compile()
	if fault.CodeOf(err) != fault.BadInputCode {
		t.Fatalf("error = %v, want bad_input", err)
	}
}

func TestSelectRemove(t *testing.T) {
	b := NewSelectBuilder[book, bookSummary]().
		Add("Title").
		Add("Year")

	b.Remove("Title")
	if b.Len() != 1 || b.At(0).Source != "Year" {
		t.Fatalf("unexpected descriptors: %+v", b.Descriptors())
	}
}
