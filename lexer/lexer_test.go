package lexer

import (
	"testing"

	"github.com/thisisjab/queryspec/token"
)

func TestNextToken(t *testing.T) {
	input := `==!=<><=>=&&&|||()+-*/%
	null
	true
	false
	Name == "John Doe"
	Age >= 21
	Score != 43.555
	Id == a1
	Name.Contains("oh")
	Total - 19
	Escaped == "say \"hi\""
	Metadata.user_id.region == 2
	`
	l := New(input)

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.EQUAL, "=="},
		{token.NOTEQUAL, "!="},
		{token.LESS, "<"},
		{token.GREATER, ">"},
		{token.LESSEQUAL, "<="},
		{token.GREATEREQUAL, ">="},
		{token.ANDAND, "&&"},
		{token.AND, "&"},
		{token.OROR, "||"},
		{token.OR, "|"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.PLUS, "+"},
		{token.MINUS, "-"},
		{token.STAR, "*"},
		{token.SLASH, "/"},
		{token.PERCENT, "%"},
		{token.NULL, "null"},
		{token.TRUE, "true"},
		{token.FALSE, "false"},
		{token.IDENT, "Name"},
		{token.EQUAL, "=="},
		{token.STRING, "John Doe"},
		{token.IDENT, "Age"},
		{token.GREATEREQUAL, ">="},
		{token.INT, "21"},
		{token.IDENT, "Score"},
		{token.NOTEQUAL, "!="},
		{token.DECIMAL, "43.555"},
		{token.IDENT, "Id"},
		{token.EQUAL, "=="},
		{token.IDENT, "a1"},
		{token.IDENT, "Name.Contains"},
		{token.LPAREN, "("},
		{token.STRING, "oh"},
		{token.RPAREN, ")"},
		{token.IDENT, "Total"},
		{token.MINUS, "-"},
		{token.INT, "19"},
		{token.IDENT, "Escaped"},
		{token.EQUAL, "=="},
		{token.STRING, `say "hi"`},
		{token.IDENT, "Metadata.user_id.region"},
		{token.EQUAL, "=="},
		{token.INT, "2"},
		{token.EOF, ""},
	}

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("#%d - expected type `%d`, got `%d` (literal %q)", i, tt.expectedType, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("#%d - expected literal `%s`, got `%s`", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextTokenUnterminatedStringIsIllegal(t *testing.T) {
	l := New(`Name == "abc`)

	tests := []token.TokenType{token.IDENT, token.EQUAL, token.ILLEGAL, token.EOF}
	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Type != expected {
			t.Fatalf("#%d - expected type `%d`, got `%d` (literal %q)", i, expected, tok.Type, tok.Literal)
		}
	}
}

func TestNextTokenSingleEqualsIsIllegal(t *testing.T) {
	l := New("Name = 2")

	tests := []token.TokenType{token.IDENT, token.ILLEGAL, token.INT, token.EOF}
	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Type != expected {
			t.Fatalf("#%d - expected type `%d`, got `%d` (literal %q)", i, expected, tok.Type, tok.Literal)
		}
	}
}
