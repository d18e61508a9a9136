package lexer

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"minic/pkg/token"
	"minic/pkg/value"
)

func TestNextToken(t *testing.T) {
	input := `(5 + 10) * 2.5
>= <= > < == != = / -`

	tests := []struct {
		expectedType   token.TokenType
		expectedLexeme string
		expectedLine   int
		expectedColumn int
	}{
		{token.LPAREN, "(", 1, 1},
		{token.INT, "5", 1, 2},
		{token.PLUS, "+", 1, 4},
		{token.INT, "10", 1, 6},
		{token.RPAREN, ")", 1, 8},
		{token.ASTERISK, "*", 1, 10},
		{token.FLOAT, "2.5", 1, 12},
		{token.GTE, ">=", 2, 1},
		{token.LTE, "<=", 2, 4},
		{token.GT, ">", 2, 7},
		{token.LT, "<", 2, 9},
		{token.EQ, "==", 2, 11},
		{token.NOT_EQ, "!=", 2, 14},
		{token.ASSIGN, "=", 2, 17},
		{token.SLASH, "/", 2, 19},
		{token.MINUS, "-", 2, 21},
		{token.EOF, "", 2, 22},
	}

	l := New(input)

	for i, tt := range tests {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %s", i, err)
		}

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q, lexeme=%q",
				i, tt.expectedType, tok.Type, tok.Lexeme)
		}

		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q",
				i, tt.expectedLexeme, tok.Lexeme)
		}

		if tok.Line != tt.expectedLine || tok.Column != tt.expectedColumn {
			t.Fatalf("tests[%d] - position wrong. expected=%d:%d, got=%s",
				i, tt.expectedLine, tt.expectedColumn, tok.Pos())
		}

		if tok.Length != len([]rune(tt.expectedLexeme)) {
			t.Fatalf("tests[%d] - length wrong. expected=%d, got=%d",
				i, len([]rune(tt.expectedLexeme)), tok.Length)
		}
	}
}

func TestEOFIsSticky(t *testing.T) {
	l := New("1")
	for i := 0; i < 3; i++ {
		if _, err := l.NextToken(); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if tok.Type != token.EOF {
		t.Fatalf("expected EOF, got %q", tok.Type)
	}
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected value.Value
	}{
		{"0", value.Integer(0)},
		{"42", value.Integer(42)},
		{"9223372036854775807", value.Integer(9223372036854775807)},
		{"3.14", value.Float(3.14)},
		{"2.0", value.Float(2)},
		{"7.", value.Float(7)},
		{"3517484393530.0", value.Float(3517484393530)},
		{strings.Repeat("9", 400) + ".0", value.Float(math.Inf(1))},
		{"0." + strings.Repeat("0", 400) + "1", value.Float(0)},
	}

	for _, tt := range tests {
		tokens, err := Scan(tt.input)
		if err != nil {
			t.Fatalf("input %q: unexpected error: %s", tt.input, err)
		}
		if len(tokens) != 2 {
			t.Fatalf("input %q: expected 2 tokens, got %d", tt.input, len(tokens))
		}
		if !tokens[0].Value.Equal(tt.expected) {
			t.Errorf("input %q: wrong value. want=%#v, got=%#v",
				tt.input, tt.expected, tokens[0].Value)
		}
		if tokens[0].Lexeme != tt.input {
			t.Errorf("input %q: lexeme wrong. got=%q", tt.input, tokens[0].Lexeme)
		}
	}
}

func TestLexicalErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected error
		lexeme   string
		line     int
		column   int
	}{
		{"1.2.3", ErrTwoDecimals, "1.2.", 1, 1},
		{"4 + 10..", ErrTwoDecimals, "10..", 1, 5},
		{"1\n  2.5.", ErrTwoDecimals, "2.5.", 2, 3},
		{"99999999999999999999", ErrNumberRange, "99999999999999999999", 1, 1},
	}

	for _, tt := range tests {
		_, err := Scan(tt.input)
		if !errors.Is(err, tt.expected) {
			t.Errorf("input %q: expected %q, got %v", tt.input, tt.expected, err)
			continue
		}

		var lexErr *Error
		if !errors.As(err, &lexErr) {
			t.Errorf("input %q: error is not *lexer.Error. got=%T", tt.input, err)
			continue
		}
		if lexErr.Lexeme != tt.lexeme {
			t.Errorf("input %q: wrong lexeme. want=%q, got=%q", tt.input, tt.lexeme, lexErr.Lexeme)
		}
		if lexErr.Line != tt.line || lexErr.Column != tt.column {
			t.Errorf("input %q: wrong position. want=%d:%d, got=%d:%d",
				tt.input, tt.line, tt.column, lexErr.Line, lexErr.Column)
		}
	}
}

func TestSkippedCharacters(t *testing.T) {
	tests := []struct {
		input    string
		expected []token.TokenType
	}{
		{"1 ! 2", []token.TokenType{token.INT, token.INT, token.EOF}},
		{"!", []token.TokenType{token.EOF}},
		{"$1 @ 2#", []token.TokenType{token.INT, token.INT, token.EOF}},
		{"\t1\r\n+\t2", []token.TokenType{token.INT, token.PLUS, token.INT, token.EOF}},
		{"", []token.TokenType{token.EOF}},
	}

	for _, tt := range tests {
		tokens, err := Scan(tt.input)
		if err != nil {
			t.Fatalf("input %q: unexpected error: %s", tt.input, err)
		}
		testTokenTypes(t, tt.input, tt.expected, tokens)
	}
}

func TestStrictMode(t *testing.T) {
	tokens, err := Scan("1 $ 2 !", Strict(true))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	testTokenTypes(t, "1 $ 2 !", []token.TokenType{
		token.INT, token.ILLEGAL, token.INT, token.ILLEGAL, token.EOF,
	}, tokens)

	if tokens[1].Lexeme != "$" || tokens[1].Column != 3 {
		t.Errorf("wrong ILLEGAL token. got=%s", tokens[1])
	}
}

func TestColumnsCountRunes(t *testing.T) {
	tokens, err := Scan("é 1")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if tokens[0].Type != token.INT || tokens[0].Column != 3 {
		t.Fatalf("expected INT at column 3, got %s", tokens[0])
	}
}

func TestLongExpression(t *testing.T) {
	input := "93367-76920+596894-231722-8350-3517484393530.0-65+710"

	tokens, err := Scan(input)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	testTokenTypes(t, input, []token.TokenType{
		token.INT, token.MINUS, token.INT, token.PLUS, token.INT, token.MINUS,
		token.INT, token.MINUS, token.INT, token.MINUS, token.FLOAT, token.MINUS,
		token.INT, token.PLUS, token.INT, token.EOF,
	}, tokens)

	last := tokens[len(tokens)-2]
	if last.Column != 51 || last.Length != 3 {
		t.Errorf("wrong position for last literal. got=%s length=%d", last.Pos(), last.Length)
	}
}

func TestGoldenTokens(t *testing.T) {
	tests := []struct {
		input  string
		golden string
	}{
		{" 20.0 + 30.0 - 3 ", "float_and_int.yaml"},
	}

	for _, tt := range tests {
		tokens, err := Scan(tt.input)
		if err != nil {
			t.Fatalf("input %q: unexpected error: %s", tt.input, err)
		}

		expected := readGolden(t, tt.golden)
		if len(tokens) != len(expected) {
			t.Fatalf("input %q: wrong number of tokens. want=%d, got=%d",
				tt.input, len(expected), len(tokens))
		}

		for i := range expected {
			if !sameToken(expected[i], tokens[i]) {
				t.Errorf("input %q: token %d differs.\nwant=%s\ngot =%s",
					tt.input, i, expected[i], tokens[i])
			}
		}
	}
}

func readGolden(t *testing.T, name string) []token.Token {
	t.Helper()

	file, err := os.Open(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("open golden file: %s", err)
	}
	defer file.Close()

	var tokens []token.Token
	if err := yaml.NewDecoder(file).Decode(&tokens); err != nil {
		t.Fatalf("decode golden file %s: %s", name, err)
	}
	return tokens
}

func sameToken(a, b token.Token) bool {
	return a.Type == b.Type &&
		a.Lexeme == b.Lexeme &&
		a.Value.Equal(b.Value) &&
		a.Line == b.Line &&
		a.Column == b.Column &&
		a.Length == b.Length
}

func testTokenTypes(t *testing.T, input string, expected []token.TokenType, tokens []token.Token) {
	t.Helper()

	if len(tokens) != len(expected) {
		t.Fatalf("input %q: wrong number of tokens. want=%d, got=%d (%v)",
			input, len(expected), len(tokens), tokens)
	}
	for i, want := range expected {
		if tokens[i].Type != want {
			t.Errorf("input %q: token %d wrong. want=%q, got=%q", input, i, want, tokens[i].Type)
		}
	}
}
