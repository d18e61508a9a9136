package compiler

import "minic/pkg/token"

type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // -X +X
	PrecCall                  // f(X)
	PrecPrimary
	PrecTop
)

// next is the binding strength of a left-associative operator's right operand.
func (p Precedence) next() Precedence {
	if p >= PrecTop {
		return PrecTop
	}
	return p + 1
}

type (
	prefixParseFn func(*Compiler) error
	infixParseFn  func(*Compiler) error
)

type parseRule struct {
	prefix     prefixParseFn
	infix      infixParseFn
	precedence Precedence
}

// rules is written once in init and only read afterwards, so concurrent
// compilations can share it.
var rules map[token.TokenType]parseRule

func init() {
	rules = map[token.TokenType]parseRule{
		token.INT:      {prefix: (*Compiler).number},
		token.FLOAT:    {prefix: (*Compiler).number},
		token.LPAREN:   {prefix: (*Compiler).grouping},
		token.MINUS:    {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		token.PLUS:     {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		token.ASTERISK: {infix: (*Compiler).binary, precedence: PrecFactor},
		token.SLASH:    {infix: (*Compiler).binary, precedence: PrecFactor},
		token.EQ:       {infix: (*Compiler).binary, precedence: PrecEquality},
		token.NOT_EQ:   {infix: (*Compiler).binary, precedence: PrecEquality},
		token.GT:       {infix: (*Compiler).binary, precedence: PrecComparison},
		token.GTE:      {infix: (*Compiler).binary, precedence: PrecComparison},
		token.LT:       {infix: (*Compiler).binary, precedence: PrecComparison},
		token.LTE:      {infix: (*Compiler).binary, precedence: PrecComparison},
	}
}

// getRule returns the empty rule for kinds with no entry (RPAREN, ASSIGN,
// ILLEGAL, EOF).
func getRule(t token.TokenType) parseRule {
	return rules[t]
}
