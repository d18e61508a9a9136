package eval

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"minic/pkg/compiler"
	"minic/pkg/lexer"
	"minic/pkg/token"
	"minic/pkg/value"
	"minic/pkg/vm"
)

var (
	// ErrSyntax marks lexical and parse errors. No bytecode exists when it
	// is returned.
	ErrSyntax = errors.New("syntax error")
	// ErrRuntime marks errors raised while executing well-formed bytecode.
	ErrRuntime = errors.New("runtime error")
)

var log = commonlog.GetLogger("minic.eval")

type Option func(*options)

type options struct {
	strict bool
}

// WithStrict rejects unrecognized characters instead of skipping them.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Tokens scans source into its token sequence, terminated by EOF.
func Tokens(source string, opts ...Option) ([]token.Token, error) {
	o := newOptions(opts)

	tokens, err := lexer.Scan(source, lexer.Strict(o.strict))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	return tokens, nil
}

// Compile scans and parses source into bytecode without running it.
func Compile(source string, opts ...Option) (*compiler.Bytecode, error) {
	tokens, err := Tokens(source, opts...)
	if err != nil {
		return nil, err
	}

	comp := compiler.New()
	if err := comp.Compile(tokens); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	bytecode := comp.Bytecode()
	log.Debugf("compiled %d tokens into %d bytes of bytecode and %d constants",
		len(tokens), len(bytecode.Instructions), len(bytecode.Constants))
	return bytecode, nil
}

// Run executes bytecode on a fresh machine.
func Run(bytecode *compiler.Bytecode) (value.Value, error) {
	machine := vm.New(bytecode)
	result, err := machine.Run()
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	return result, nil
}

// Evaluate runs the whole pipeline: scan, compile, execute. Every call
// builds fresh stages, so it is safe for concurrent use.
func Evaluate(source string, opts ...Option) (value.Value, error) {
	bytecode, err := Compile(source, opts...)
	if err != nil {
		return value.Value{}, err
	}
	return Run(bytecode)
}

// Stage names the pipeline stage that produced err: "syntax", "runtime",
// or "" when err came from neither.
func Stage(err error) string {
	switch {
	case errors.Is(err, ErrSyntax):
		return "syntax"
	case errors.Is(err, ErrRuntime):
		return "runtime"
	default:
		return ""
	}
}
