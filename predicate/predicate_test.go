package predicate

import (
	"reflect"
	"testing"

	"github.com/thisisjab/queryspec/ast"
	"github.com/thisisjab/queryspec/fault"
)

type employee struct {
	Name   string
	Age    int
	Salary float64
}

func TestCompile(t *testing.T) {
	target := reflect.TypeOf(employee{})

	expr, err := Compile(target, "Age", ast.GreaterThan, "30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmp, ok := expr.(*ast.Comparison)
	if !ok {
		t.Fatalf("expected comparison node, got %T", expr)
	}
	if cmp.Path != "Age" || cmp.Op != ast.GreaterThan || cmp.Value != 30 {
		t.Fatalf("unexpected node: %+v", cmp)
	}
}

func TestCompileStringMethod(t *testing.T) {
	target := reflect.TypeOf(employee{})

	expr, err := Compile(target, "Name", ast.StartsWith, "J")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mc, ok := expr.(*ast.MethodCall)
	if !ok {
		t.Fatalf("expected method call node, got %T", expr)
	}
	if mc.Path != "Name" || mc.Op != ast.StartsWith || mc.Term != "J" {
		t.Fatalf("unexpected node: %+v", mc)
	}
}

func TestCompileFailures(t *testing.T) {
	target := reflect.TypeOf(employee{})

	tests := []struct {
		name    string
		path    string
		op      ast.ComparisonOperator
		literal string
		code    fault.Code
	}{
		{"empty path", "", ast.EqualTo, "1", fault.BadInputCode},
		{"unknown property", "Missing", ast.EqualTo, "1", fault.PropertyNotFoundCode},
		{"bad literal", "Age", ast.EqualTo, "abc", fault.TypeConversionCode},
		{"contains on int", "Age", ast.Contains, "3", fault.PropertyNotFoundCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(target, tt.path, tt.op, tt.literal)
			if fault.CodeOf(err) != tt.code {
				t.Fatalf("Compile(%q) error = %v, want code %s", tt.path, err, tt.code)
			}
		})
	}
}

func TestCompileDynamicTarget(t *testing.T) {
	expr, err := Compile(nil, "anything.goes", ast.EqualTo, "12.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmp := expr.(*ast.Comparison)
	if cmp.Value != 12.5 {
		t.Fatalf("dynamic literal = %v, want 12.5", cmp.Value)
	}

	if _, err := Compile(nil, "anything", ast.EndsWith, "x"); err != nil {
		t.Fatalf("string method on dynamic target: %v", err)
	}
}

func TestAlwaysTrue(t *testing.T) {
	b, ok := AlwaysTrue().(*ast.Bool)
	if !ok || !b.Value {
		t.Fatalf("AlwaysTrue() = %#v", AlwaysTrue())
	}
}

func TestField(t *testing.T) {
	sel, err := Field[employee]("Name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Path() != "Name" {
		t.Fatalf("Path() = %q", sel.Path())
	}

	expr, err := sel.Compare(ast.EqualTo, "Jane")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.(*ast.Comparison).Value != "Jane" {
		t.Fatalf("unexpected value: %v", expr)
	}
}

func TestFieldRejectsNonMemberAccess(t *testing.T) {
	invalid := []string{
		"",
		"Name.ToLower()",
		"Name ",
		"Items[0]",
		"Name.",
		".Name",
		"1Name",
		"a + b",
	}

	for _, path := range invalid {
		if _, err := Field[employee](path); fault.CodeOf(err) != fault.BadInputCode {
			t.Fatalf("Field(%q) error = %v, want bad_input", path, err)
		}
	}
}

func TestFieldUnknownProperty(t *testing.T) {
	if _, err := Field[employee]("Nope"); fault.CodeOf(err) != fault.PropertyNotFoundCode {
		t.Fatalf("error = %v, want property_not_found", err)
	}
}
