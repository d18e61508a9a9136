package compiler

import (
	"errors"
	"fmt"
	"math"

	"minic/pkg/opcode"
	"minic/pkg/token"
	"minic/pkg/value"
)

var (
	ErrExpectedExpression  = errors.New("expected expression")
	ErrUnterminatedGroup   = errors.New("expect ')' after expression")
	ErrUnexpectedCharacter = errors.New("unexpected character")
	ErrTooManyConstants    = errors.New("too many constants")
	ErrMissingEOF          = errors.New("token stream is not terminated by EOF")
)

// Error is a fatal parse error. Compilation stops at the first one and no
// bytecode is produced.
type Error struct {
	Token token.Token
	Err   error
}

func (e *Error) Error() string {
	if e.Token.Type == token.EOF {
		return fmt.Sprintf("%s: %s at end", e.Token.Pos(), e.Err)
	}
	return fmt.Sprintf("%s: %s at %q", e.Token.Pos(), e.Err, e.Token.Lexeme)
}

func (e *Error) Unwrap() error { return e.Err }

var binaryOps = map[token.TokenType]opcode.Opcode{
	token.PLUS:     opcode.OpAdd,
	token.MINUS:    opcode.OpSub,
	token.ASTERISK: opcode.OpMul,
	token.SLASH:    opcode.OpDiv,
	token.EQ:       opcode.OpEqual,
	token.NOT_EQ:   opcode.OpNotEqual,
	token.GT:       opcode.OpGreaterThan,
	token.GTE:      opcode.OpGreaterEqual,
	token.LT:       opcode.OpLessThan,
	token.LTE:      opcode.OpLessEqual,
}

// Compiler is a single-pass Pratt parser that emits bytecode directly
// while it consumes tokens. No syntax tree is built.
type Compiler struct {
	tokens  []token.Token
	current int

	instructions opcode.Instructions
	constants    []value.Value
	positions    []Position
}

type Bytecode struct {
	Instructions opcode.Instructions
	Constants    []value.Value
	Positions    []Position
}

// Position maps the instruction at Offset to the source token that
// produced it.
type Position struct {
	Offset int
	Line   int
	Column int
}

func New() *Compiler {
	return &Compiler{
		instructions: opcode.Instructions{},
		constants:    []value.Value{},
	}
}

// Compile consumes the whole token sequence, compiling every top-level
// expression back to back, then appends a single OpReturn.
func (c *Compiler) Compile(tokens []token.Token) error {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		return &Error{Err: ErrMissingEOF}
	}
	c.tokens = tokens
	c.current = 0

	if c.peek().Type == token.EOF {
		return &Error{Token: c.peek(), Err: ErrExpectedExpression}
	}

	for c.peek().Type != token.EOF {
		if err := c.expression(); err != nil {
			return err
		}
	}

	c.emit(c.peek(), opcode.OpReturn)
	return nil
}

func (c *Compiler) Bytecode() *Bytecode {
	return &Bytecode{
		Instructions: c.instructions,
		Constants:    c.constants,
		Positions:    c.positions,
	}
}

func (c *Compiler) expression() error {
	return c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(precedence Precedence) error {
	tok := c.advance()
	if tok.Type == token.ILLEGAL {
		return &Error{Token: tok, Err: ErrUnexpectedCharacter}
	}

	prefix := getRule(tok.Type).prefix
	if prefix == nil {
		return &Error{Token: tok, Err: ErrExpectedExpression}
	}
	if err := prefix(c); err != nil {
		return err
	}

	for precedence <= getRule(c.peek().Type).precedence {
		c.advance()
		infix := getRule(c.previous().Type).infix
		if infix == nil {
			return &Error{Token: c.previous(), Err: ErrExpectedExpression}
		}
		if err := infix(c); err != nil {
			return err
		}
	}

	return nil
}

func (c *Compiler) number() error {
	tok := c.previous()
	if !tok.Value.IsValid() {
		return &Error{Token: tok, Err: ErrExpectedExpression}
	}
	return c.emitConstant(tok, tok.Value)
}

func (c *Compiler) grouping() error {
	if err := c.expression(); err != nil {
		return err
	}
	return c.consume(token.RPAREN, ErrUnterminatedGroup)
}

func (c *Compiler) unary() error {
	operator := c.previous()

	if err := c.parsePrecedence(PrecUnary); err != nil {
		return err
	}

	// Unary plus is a no-op.
	if operator.Type == token.MINUS {
		c.emit(operator, opcode.OpNegate)
	}
	return nil
}

func (c *Compiler) binary() error {
	operator := c.previous()
	rule := getRule(operator.Type)

	if err := c.parsePrecedence(rule.precedence.next()); err != nil {
		return err
	}

	op, ok := binaryOps[operator.Type]
	if !ok {
		return &Error{Token: operator, Err: ErrExpectedExpression}
	}
	c.emit(operator, op)
	return nil
}

func (c *Compiler) consume(t token.TokenType, err error) error {
	if c.peek().Type == t {
		c.advance()
		return nil
	}
	return &Error{Token: c.peek(), Err: err}
}

// advance never moves past EOF.
func (c *Compiler) advance() token.Token {
	tok := c.tokens[c.current]
	if tok.Type != token.EOF {
		c.current++
	}
	return tok
}

func (c *Compiler) peek() token.Token {
	return c.tokens[c.current]
}

func (c *Compiler) previous() token.Token {
	if c.current == 0 {
		return c.tokens[0]
	}
	return c.tokens[c.current-1]
}

func (c *Compiler) emitConstant(tok token.Token, v value.Value) error {
	if len(c.constants) > math.MaxUint16 {
		return &Error{Token: tok, Err: ErrTooManyConstants}
	}
	c.emit(tok, opcode.OpConstant, c.addConstant(v))
	return nil
}

func (c *Compiler) addConstant(v value.Value) int {
	c.constants = append(c.constants, v)
	return len(c.constants) - 1
}

func (c *Compiler) emit(tok token.Token, op opcode.Opcode, operands ...int) int {
	ins := opcode.Make(op, operands...)
	pos := c.addInstruction(ins)
	c.positions = append(c.positions, Position{Offset: pos, Line: tok.Line, Column: tok.Column})
	return pos
}

func (c *Compiler) addInstruction(ins []byte) int {
	posNewInstruction := len(c.instructions)
	c.instructions = append(c.instructions, ins...)
	return posNewInstruction
}
