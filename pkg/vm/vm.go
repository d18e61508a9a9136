package vm

import (
	"errors"
	"fmt"
	"sort"

	"minic/pkg/compiler"
	"minic/pkg/opcode"
	"minic/pkg/value"
)

// StackSize is the preallocated stack depth. The stack grows past it
// when a program needs more.
const StackSize = 2048

var (
	ErrDivisionByZero  = errors.New("division by zero")
	ErrInvalidOperand  = errors.New("invalid operand")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrCorruptBytecode = errors.New("corrupt bytecode")
)

// Error is a fatal runtime error raised by the instruction at Offset.
// Line and Column are 0 when the bytecode carries no position for it.
type Error struct {
	Offset int
	Line   int
	Column int
	Op     opcode.Opcode
	Err    error
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%04d %s: %s", e.Offset, e.Op, e.Err)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type VM struct {
	constants    []value.Value
	instructions opcode.Instructions
	positions    []compiler.Position

	stack []value.Value
	sp    int // Always points to the next value. Top of stack is stack[sp-1]

	ip int

	trace TraceFunc
}

// TraceFunc observes the stack after each executed instruction.
type TraceFunc func(offset int, op opcode.Opcode, stack []value.Value)

// Trace installs fn to be called after every instruction.
func (vm *VM) Trace(fn TraceFunc) {
	vm.trace = fn
}

func New(bytecode *compiler.Bytecode) *VM {
	return &VM{
		constants:    bytecode.Constants,
		instructions: bytecode.Instructions,
		positions:    bytecode.Positions,

		stack: make([]value.Value, StackSize),
		sp:    0,
	}
}

// StackTop returns the zero Value when the stack is empty.
func (vm *VM) StackTop() value.Value {
	if vm.sp == 0 {
		return value.Value{}
	}
	return vm.stack[vm.sp-1]
}

// Run executes the instructions until OpReturn or the end of the stream and
// yields the value on top of the stack. The stack is left as it is.
func (vm *VM) Run() (value.Value, error) {
	ins := vm.instructions

	for vm.ip < len(ins) {
		ip := vm.ip
		op := opcode.Opcode(ins[ip])

		switch op {
		case opcode.OpConstant:
			if ip+2 >= len(ins) {
				return value.Value{}, vm.fail(ip, op, fmt.Errorf("%w: truncated operand", ErrCorruptBytecode))
			}
			constIndex := int(opcode.ReadUint16(ins[ip+1:]))
			vm.ip += 3

			if constIndex >= len(vm.constants) {
				return value.Value{}, vm.fail(ip, op,
					fmt.Errorf("%w: constant %d out of range", ErrCorruptBytecode, constIndex))
			}
			vm.push(vm.constants[constIndex])

		case opcode.OpNegate:
			vm.ip++
			if err := vm.executeMinusOperator(); err != nil {
				return value.Value{}, vm.fail(ip, op, err)
			}

		case opcode.OpReturn:
			if vm.sp == 0 {
				return value.Value{}, vm.fail(ip, op, ErrStackUnderflow)
			}
			vm.traceStep(ip, op)
			return vm.StackTop(), nil

		default:
			if !op.IsBinary() {
				return value.Value{}, vm.fail(ip, op,
					fmt.Errorf("%w: opcode %d undefined", ErrCorruptBytecode, byte(op)))
			}
			vm.ip++
			if err := vm.executeBinaryOperation(op); err != nil {
				return value.Value{}, vm.fail(ip, op, err)
			}
		}

		vm.traceStep(ip, op)
	}

	if vm.sp == 0 {
		return value.Value{}, &Error{Offset: len(ins), Op: opcode.OpReturn, Err: ErrStackUnderflow}
	}
	return vm.StackTop(), nil
}

func (vm *VM) traceStep(offset int, op opcode.Opcode) {
	if vm.trace != nil {
		vm.trace(offset, op, vm.stack[:vm.sp])
	}
}

func (vm *VM) fail(offset int, op opcode.Opcode, err error) error {
	e := &Error{Offset: offset, Op: op, Err: err}

	i := sort.Search(len(vm.positions), func(i int) bool {
		return vm.positions[i].Offset >= offset
	})
	if i < len(vm.positions) && vm.positions[i].Offset == offset {
		e.Line = vm.positions[i].Line
		e.Column = vm.positions[i].Column
	}
	return e
}

func (vm *VM) push(v value.Value) {
	if vm.sp < len(vm.stack) {
		vm.stack[vm.sp] = v
	} else {
		vm.stack = append(vm.stack, v)
	}
	vm.sp++
}

func (vm *VM) pop() (value.Value, error) {
	if vm.sp == 0 {
		return value.Value{}, ErrStackUnderflow
	}
	v := vm.stack[vm.sp-1]
	vm.sp--
	return v, nil
}

func (vm *VM) executeMinusOperator() error {
	operand, err := vm.pop()
	if err != nil {
		return err
	}

	switch operand.Kind() {
	case value.KindInteger:
		vm.push(value.Integer(-operand.Int()))
	case value.KindFloat:
		vm.push(value.Float(-operand.Float()))
	default:
		return fmt.Errorf("%w: cannot negate %s", ErrInvalidOperand, operand.Kind())
	}
	return nil
}

type kindPair [2]value.Kind

var (
	intInt     = kindPair{value.KindInteger, value.KindInteger}
	floatFloat = kindPair{value.KindFloat, value.KindFloat}
	intFloat   = kindPair{value.KindInteger, value.KindFloat}
	floatInt   = kindPair{value.KindFloat, value.KindInteger}
	boolBool   = kindPair{value.KindBool, value.KindBool}
	boolInt    = kindPair{value.KindBool, value.KindInteger}
	boolFloat  = kindPair{value.KindBool, value.KindFloat}
	intBool    = kindPair{value.KindInteger, value.KindBool}
	floatBool  = kindPair{value.KindFloat, value.KindBool}
)

func (vm *VM) executeBinaryOperation(op opcode.Opcode) error {
	right, err := vm.pop()
	if err != nil {
		return err
	}
	left, err := vm.pop()
	if err != nil {
		return err
	}

	var result value.Value

	switch (kindPair{left.Kind(), right.Kind()}) {
	case intInt:
		result, err = executeIntegerOperation(op, left.Int(), right.Int())
	case floatFloat:
		result, err = executeFloatOperation(op, left.Float(), right.Float())
	case intFloat:
		result, err = executeFloatOperation(op, float64(left.Int()), right.Float())
	case floatInt:
		result, err = executeFloatOperation(op, left.Float(), float64(right.Int()))
	case boolBool:
		if op != opcode.OpEqual {
			err = invalidOperands(op, left, right)
			break
		}
		result = value.Bool(left.Bool() == right.Bool())
	case boolInt, boolFloat, intBool, floatBool:
		err = invalidOperands(op, left, right)
	default:
		err = fmt.Errorf("%w: operand of kind %s %s", ErrCorruptBytecode, left.Kind(), right.Kind())
	}
	if err != nil {
		return err
	}

	vm.push(result)
	return nil
}

func invalidOperands(op opcode.Opcode, left, right value.Value) error {
	def, _ := opcode.Lookup(byte(op))
	return fmt.Errorf("%w: %s %s %s", ErrInvalidOperand, left.Kind(), def.Symbol, right.Kind())
}

// Integer arithmetic wraps on overflow and division truncates toward zero.
func executeIntegerOperation(op opcode.Opcode, left, right int64) (value.Value, error) {
	switch op {
	case opcode.OpAdd:
		return value.Integer(left + right), nil
	case opcode.OpSub:
		return value.Integer(left - right), nil
	case opcode.OpMul:
		return value.Integer(left * right), nil
	case opcode.OpDiv:
		if right == 0 {
			return value.Value{}, ErrDivisionByZero
		}
		return value.Integer(left / right), nil
	case opcode.OpEqual:
		return value.Bool(left == right), nil
	case opcode.OpNotEqual:
		return value.Bool(left != right), nil
	case opcode.OpGreaterThan:
		return value.Bool(left > right), nil
	case opcode.OpGreaterEqual:
		return value.Bool(left >= right), nil
	case opcode.OpLessThan:
		return value.Bool(left < right), nil
	case opcode.OpLessEqual:
		return value.Bool(left <= right), nil
	default:
		return value.Value{}, fmt.Errorf("%w: unknown integer operator: %s", ErrCorruptBytecode, op)
	}
}

func executeFloatOperation(op opcode.Opcode, left, right float64) (value.Value, error) {
	switch op {
	case opcode.OpAdd:
		return value.Float(left + right), nil
	case opcode.OpSub:
		return value.Float(left - right), nil
	case opcode.OpMul:
		return value.Float(left * right), nil
	case opcode.OpDiv:
		return value.Float(left / right), nil
	case opcode.OpEqual:
		return value.Bool(left == right), nil
	case opcode.OpNotEqual:
		return value.Bool(left != right), nil
	case opcode.OpGreaterThan:
		return value.Bool(left > right), nil
	case opcode.OpGreaterEqual:
		return value.Bool(left >= right), nil
	case opcode.OpLessThan:
		return value.Bool(left < right), nil
	case opcode.OpLessEqual:
		return value.Bool(left <= right), nil
	default:
		return value.Value{}, fmt.Errorf("%w: unknown float operator: %s", ErrCorruptBytecode, op)
	}
}
