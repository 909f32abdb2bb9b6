package ast

// Expr is the interface that all nodes in a compiled filter expression
// implement. It uses a private marker method to ensure only types defined
// in this package can be used as nodes, creating a controlled "sum type"
// behavior.
type Expr interface {
	exprNode()

	// Canonical renders the node as a lambda body, e.g. `(x.Id == "2")`.
	// Wrap with Lambda to get the full `x => ...` form.
	Canonical() string

	// Source renders the node as filter grammar text, e.g. `(Id == "2")`.
	// The grammar parser derives an equivalent tree back from this text,
	// so Source and the parser must stay in lockstep.
	Source() string

	// Eval evaluates the node against a single entity. Logical and
	// comparison nodes produce a bool; arithmetic nodes produce a number.
	Eval(entity any) (any, error)
}

// ComparisonOperator defines the relationship between a property and a
// literal in a filter descriptor.
type ComparisonOperator uint8

const (
	// EqualTo checks if the property is equal to the value.
	EqualTo ComparisonOperator = iota
	// NotEqualTo checks if the property is not equal to the value.
	NotEqualTo
	// GreaterThan checks if the property is strictly greater than the value.
	GreaterThan
	// GreaterOrEqual checks if the property is greater than or equal to the value.
	GreaterOrEqual
	// LessThan checks if the property is strictly less than the value.
	LessThan
	// LessOrEqual checks if the property is less than or equal to the value.
	LessOrEqual
	// Contains checks if a string property contains the value as a substring.
	Contains
	// StartsWith checks if a string property starts with the value.
	StartsWith
	// EndsWith checks if a string property ends with the value.
	EndsWith
)

// IsStringMethod reports whether the operator compiles to a string-method
// node instead of a relational comparison node.
func (op ComparisonOperator) IsStringMethod() bool {
	switch op {
	case Contains, StartsWith, EndsWith:
		return true
	default:
		return false
	}
}

func (op ComparisonOperator) String() string {
	switch op {
	case EqualTo:
		return "=="
	case NotEqualTo:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterOrEqual:
		return ">="
	case LessThan:
		return "<"
	case LessOrEqual:
		return "<="
	case Contains:
		return "Contains"
	case StartsWith:
		return "StartsWith"
	case EndsWith:
		return "EndsWith"
	}
	return "unknown"
}

// LogicalOperator joins two boolean sub-expressions.
type LogicalOperator uint8

const (
	AndAlso LogicalOperator = iota
	OrElse
)

func (op LogicalOperator) String() string {
	if op == OrElse {
		return "OrElse"
	}
	return "AndAlso"
}

// ArithmeticOperator combines a property with a numeric operand.
type ArithmeticOperator uint8

const (
	Add ArithmeticOperator = iota
	Subtract
	Multiply
	Divide
	Modulo
)

func (op ArithmeticOperator) String() string {
	switch op {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	}
	return "unknown"
}

// Comparison is a leaf node comparing a property against an already-coerced
// literal value. Only the six relational operators appear here; the string
// methods compile to MethodCall nodes instead.
type Comparison struct {
	// Path is the dotted property path into the entity, e.g. "Address.City".
	Path string

	// Op is one of EqualTo..LessOrEqual.
	Op ComparisonOperator

	// Value is the literal, already coerced to the property's type.
	Value any
}

func (n *Comparison) exprNode() {}

// Logical is a binary conjunction or disjunction. Compound filters fold
// into a left-leaning chain of Logical nodes in operator scan order.
type Logical struct {
	Op    LogicalOperator
	Left  Expr
	Right Expr
}

func (n *Logical) exprNode() {}

// MethodCall is a leaf node applying a substring test to a string property.
type MethodCall struct {
	Path string
	Op   ComparisonOperator // Contains, StartsWith or EndsWith
	Term string
}

func (n *MethodCall) exprNode() {}

// Arithmetic combines a property with a second property or a numeric
// constant. It evaluates to a number, so it never satisfies a predicate
// on its own; the grammar accepts it as a term for round-trip fidelity.
type Arithmetic struct {
	Path string
	Op   ArithmeticOperator

	// OperandPath names the right-hand property; empty when the operand
	// is the numeric constant in OperandValue.
	OperandPath  string
	OperandValue any
}

func (n *Arithmetic) exprNode() {}

// Bool is a constant boolean node. A nil filter descriptor compiles to
// Bool{Value: true} by policy.
type Bool struct {
	Value bool
}

func (n *Bool) exprNode() {}
