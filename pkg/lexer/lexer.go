package lexer

import (
	"errors"
	"fmt"
	"strconv"

	"minic/pkg/token"
	"minic/pkg/value"
)

var (
	ErrTwoDecimals = errors.New("found two decimals in a float")
	ErrNumberRange = errors.New("number literal out of range")
)

// Error is a fatal lexical error. Scanning stops at the first one.
type Error struct {
	Line   int
	Column int
	Lexeme string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s: %q", e.Line, e.Column, e.Err, e.Lexeme)
}

func (e *Error) Unwrap() error { return e.Err }

type Option func(*Lexer)

// Strict makes the lexer emit ILLEGAL tokens for characters it does not
// recognize instead of skipping them.
func Strict(strict bool) Option {
	return func(l *Lexer) { l.strict = strict }
}

type Lexer struct {
	input        []rune
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int
	column       int // column of ch

	strict bool
}

func New(input string, opts ...Option) *Lexer {
	l := &Lexer{
		input: []rune(input),
		line:  1,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.readChar()
	return l
}

// Scan tokenizes the whole input. The result always ends with EOF.
func Scan(input string, opts ...Option) ([]token.Token, error) {
	l := New(input, opts...)
	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition += 1
	l.column += 1
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

// NextToken returns the next token. After EOF has been returned every
// further call returns EOF again.
func (l *Lexer) NextToken() (token.Token, error) {
	for {
		if l.atEnd() {
			return token.Token{Type: token.EOF, Line: l.line, Column: l.column}, nil
		}

		switch l.ch {
		case '\n':
			l.readChar()
			l.line++
			l.column = 1
			continue
		case '+':
			return l.single(token.PLUS), nil
		case '-':
			return l.single(token.MINUS), nil
		case '*':
			return l.single(token.ASTERISK), nil
		case '/':
			return l.single(token.SLASH), nil
		case '(':
			return l.single(token.LPAREN), nil
		case ')':
			return l.single(token.RPAREN), nil
		case '>':
			return l.lookahead(token.GT, token.GTE), nil
		case '<':
			return l.lookahead(token.LT, token.LTE), nil
		case '=':
			return l.lookahead(token.ASSIGN, token.EQ), nil
		case '!':
			if l.peekChar() == '=' {
				return l.lookahead(token.ILLEGAL, token.NOT_EQ), nil
			}
		default:
			if isDigit(l.ch) {
				return l.readNumber()
			}
		}

		if l.strict && !isWhitespace(l.ch) {
			return l.single(token.ILLEGAL), nil
		}
		l.readChar()
	}
}

func (l *Lexer) single(t token.TokenType) token.Token {
	tok := token.Token{Type: t, Lexeme: string(l.ch), Line: l.line, Column: l.column, Length: 1}
	l.readChar()
	return tok
}

// lookahead emits double when the next char is '=' and single otherwise.
func (l *Lexer) lookahead(single, double token.TokenType) token.Token {
	if l.peekChar() != '=' {
		return l.single(single)
	}
	tok := token.Token{Type: double, Lexeme: string(l.ch) + "=", Line: l.line, Column: l.column, Length: 2}
	l.readChar()
	l.readChar()
	return tok
}

func (l *Lexer) readNumber() (token.Token, error) {
	start := l.position
	column := l.column
	isFloat := false

	for isDigit(l.ch) || l.ch == '.' {
		if l.ch == '.' {
			if isFloat {
				return token.Token{}, &Error{
					Line:   l.line,
					Column: column,
					Lexeme: string(l.input[start : l.position+1]),
					Err:    ErrTwoDecimals,
				}
			}
			isFloat = true
		}
		l.readChar()
	}

	lexeme := string(l.input[start:l.position])
	tok := token.Token{Lexeme: lexeme, Line: l.line, Column: column, Length: l.position - start}

	if isFloat {
		// Out of range floats saturate to ±Inf or 0.
		f, err := strconv.ParseFloat(lexeme, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return token.Token{}, &Error{Line: l.line, Column: column, Lexeme: lexeme, Err: ErrNumberRange}
		}
		tok.Type = token.FLOAT
		tok.Value = value.Float(f)
		return tok, nil
	}

	i, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return token.Token{}, &Error{Line: l.line, Column: column, Lexeme: lexeme, Err: ErrNumberRange}
	}
	tok.Type = token.INT
	tok.Value = value.Integer(i)
	return tok, nil
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}
