package token

const (
	ILLEGAL TokenType = iota
	EOF

	// Identifiers + literals
	IDENT
	INT
	DECIMAL
	STRING
	NULL
	TRUE
	FALSE

	// Delimiters
	LPAREN
	RPAREN

	// Comparison operators
	EQUAL
	NOTEQUAL
	LESS
	LESSEQUAL
	GREATER
	GREATEREQUAL

	// Logical operators
	AND
	ANDAND
	OR
	OROR

	// Arithmetic operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
)

type TokenType int

type Token struct {
	Type    TokenType
	Literal string
}

// IsLogicalOperator reports whether the token joins two filter terms.
func (t Token) IsLogicalOperator() bool {
	switch t.Type {
	case AND, ANDAND, OR, OROR:
		return true
	default:
		return false
	}
}

// IsComparisonOperator reports whether the token compares a property
// against a literal.
func (t Token) IsComparisonOperator() bool {
	switch t.Type {
	case EQUAL, NOTEQUAL, LESS, LESSEQUAL, GREATER, GREATEREQUAL:
		return true
	default:
		return false
	}
}

// IsArithmeticOperator reports whether the token is one of + - * / %.
func (t Token) IsArithmeticOperator() bool {
	switch t.Type {
	case PLUS, MINUS, STAR, SLASH, PERCENT:
		return true
	default:
		return false
	}
}
