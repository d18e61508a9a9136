package token

import (
	"fmt"

	"minic/pkg/value"
)

type TokenType string

const (
	// Special
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Literals
	INT   = "INT"
	FLOAT = "FLOAT"

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"

	LT     = "<"
	GT     = ">"
	EQ     = "=="
	NOT_EQ = "!="
	LTE    = "<="
	GTE    = ">="

	// Delimiters
	LPAREN = "("
	RPAREN = ")"
)

// Token is a lexeme with its eagerly parsed literal (INT and FLOAT only)
// and its source position. Line and Column are 1-based; Length counts runes.
type Token struct {
	Type   TokenType   `yaml:"type"`
	Lexeme string      `yaml:"lexeme,omitempty"`
	Value  value.Value `yaml:"value,omitempty"`
	Line   int         `yaml:"line"`
	Column int         `yaml:"column"`
	Length int         `yaml:"length"`
}

func (t Token) String() string {
	if t.Value.IsValid() {
		return fmt.Sprintf("Token(%s, %q = %s, %d:%d)", t.Type, t.Lexeme, t.Value, t.Line, t.Column)
	}
	return fmt.Sprintf("Token(%s, %q, %d:%d)", t.Type, t.Lexeme, t.Line, t.Column)
}

// Pos formats the token position as line:column.
func (t Token) Pos() string {
	return fmt.Sprintf("%d:%d", t.Line, t.Column)
}
