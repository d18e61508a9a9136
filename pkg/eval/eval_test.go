package eval

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"minic/pkg/compiler"
	"minic/pkg/lexer"
	"minic/pkg/opcode"
	"minic/pkg/value"
	"minic/pkg/vm"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		input    string
		expected value.Value
	}{
		// integer division truncates
		{"7 / 2", value.Integer(3)},
		{"-7 / 2", value.Integer(-3)},
		// left associativity
		{"10 - 3 - 2", value.Integer(5)},
		{"100 / 10 / 5", value.Integer(2)},
		// unary binds tighter than binary
		{"-2 * 3", value.Integer(-6)},
		{"-2 - -3", value.Integer(1)},
		// parentheses are transparent
		{"(((4)))", value.Integer(4)},
		{"(1 + 2) * 3", value.Integer(9)},
		// mixed operands widen to float
		{"1 + 2.5", value.Float(3.5)},
		{" 20.0 + 30.0 - 3 ", value.Float(47)},
		{"93367-76920+596894-231722-8350-3517484393530.0-65+710", value.Float(-3517484019616)},
		// comparisons
		{"5 == 5", value.TRUE},
		{"5 != 5", value.FALSE},
		{"3 < 4", value.TRUE},
		{"(1 < 2) == (2 < 3)", value.TRUE},
		// literals evaluate to themselves
		{"42", value.Integer(42)},
		{"0.25", value.Float(0.25)},
		// float literals beyond float64 saturate
		{"-" + strings.Repeat("9", 400) + ".0 + 1", value.Float(math.Inf(-1))},
	}

	for _, tt := range tests {
		result, err := Evaluate(tt.input)
		if err != nil {
			t.Errorf("input %q: unexpected error: %s", tt.input, err)
			continue
		}
		if !result.Equal(tt.expected) {
			t.Errorf("input %q: wrong result. want=%#v, got=%#v", tt.input, tt.expected, result)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		input    string
		stage    error
		expected error
	}{
		{"1 / 0", ErrRuntime, vm.ErrDivisionByZero},
		{"-(1 == 1)", ErrRuntime, vm.ErrInvalidOperand},
		{"(1 + 2", ErrSyntax, compiler.ErrUnterminatedGroup},
		{"", ErrSyntax, compiler.ErrExpectedExpression},
		{"  \n ", ErrSyntax, compiler.ErrExpectedExpression},
		{"1.2.3", ErrSyntax, lexer.ErrTwoDecimals},
		{"1 +", ErrSyntax, compiler.ErrExpectedExpression},
	}

	for _, tt := range tests {
		result, err := Evaluate(tt.input)
		if err == nil {
			t.Errorf("input %q: expected an error, got %s", tt.input, result)
			continue
		}
		if !errors.Is(err, tt.stage) {
			t.Errorf("input %q: error %q is not a %q", tt.input, err, tt.stage)
		}
		if !errors.Is(err, tt.expected) {
			t.Errorf("input %q: error %q does not wrap %q", tt.input, err, tt.expected)
		}
		if result.IsValid() {
			t.Errorf("input %q: expected no value alongside the error, got %s", tt.input, result)
		}
	}
}

func TestStrictOption(t *testing.T) {
	result, err := Evaluate("1 + $2")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !result.Equal(value.Integer(3)) {
		t.Fatalf("wrong result. got=%#v", result)
	}

	_, err = Evaluate("1 + $2", WithStrict(true))
	if !errors.Is(err, compiler.ErrUnexpectedCharacter) {
		t.Fatalf("expected ErrUnexpectedCharacter, got %v", err)
	}
}

func TestManyTopLevelExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected value.Value
	}{
		{strings.Repeat("1\n", vm.StackSize+1), value.Integer(1)},
		{strings.Repeat("2 ", vm.StackSize*2) + "3.5", value.Float(3.5)},
	}

	for _, tt := range tests {
		result, err := Evaluate(tt.input)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if !result.Equal(tt.expected) {
			t.Errorf("wrong result. want=%#v, got=%#v", tt.expected, result)
		}
	}
}

func TestCompileDoesNotRun(t *testing.T) {
	bytecode, err := Compile("1 / 0")
	if err != nil {
		t.Fatalf("compile error: %s", err)
	}

	expected := []opcode.Opcode{opcode.OpConstant, opcode.OpConstant, opcode.OpDiv, opcode.OpReturn}
	offsets := []int{0, 3, 6, 7}
	for i, op := range expected {
		if got := opcode.Opcode(bytecode.Instructions[offsets[i]]); got != op {
			t.Errorf("instruction %d wrong. want=%s, got=%s", i, op, got)
		}
	}

	if _, err := Run(bytecode); !errors.Is(err, vm.ErrDivisionByZero) {
		t.Errorf("expected a division error when run, got %v", err)
	}
}

func TestStage(t *testing.T) {
	_, syntaxErr := Evaluate("(")
	_, runtimeErr := Evaluate("1/0")

	tests := []struct {
		err      error
		expected string
	}{
		{syntaxErr, "syntax"},
		{runtimeErr, "runtime"},
		{errors.New("other"), ""},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := Stage(tt.err); got != tt.expected {
			t.Errorf("Stage(%v) = %q, want %q", tt.err, got, tt.expected)
		}
	}
}

func TestConcurrentEvaluation(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 32)

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := Evaluate("(1 + 2) * 3 - 4 / 2")
			if err != nil {
				errs <- err
				return
			}
			if !result.Equal(value.Integer(7)) {
				errs <- errors.New("wrong result: " + result.String())
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
