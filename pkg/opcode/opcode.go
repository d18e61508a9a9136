package opcode

import (
	"bytes"
	"fmt"
)

type Opcode byte

type Instructions []byte

const (
	// OpConstant pushes a constant from the constant pool
	OpConstant Opcode = iota
	// OpAdd adds the top two elements of the stack
	OpAdd
	// OpSub subtracts the top two elements of the stack
	OpSub
	// OpMul multiplies the top two elements of the stack
	OpMul
	// OpDiv divides the top two elements of the stack
	OpDiv
	// OpEqual compares the top two elements for equality
	OpEqual
	// OpNotEqual compares the top two elements for inequality
	OpNotEqual
	// OpGreaterThan compares the top two elements for greater than
	OpGreaterThan
	// OpGreaterEqual compares the top two elements for greater or equal
	OpGreaterEqual
	// OpLessThan compares the top two elements for less than
	OpLessThan
	// OpLessEqual compares the top two elements for less or equal
	OpLessEqual
	// OpNegate negates the top element of the stack
	OpNegate
	// OpReturn stops execution and yields the top element of the stack
	OpReturn
)

type Definition struct {
	Name          string
	Symbol        string
	OperandWidths []int
}

var definitions = map[Opcode]*Definition{
	OpConstant:     {"OpConstant", "", []int{2}},
	OpAdd:          {"OpAdd", "+", []int{}},
	OpSub:          {"OpSub", "-", []int{}},
	OpMul:          {"OpMul", "*", []int{}},
	OpDiv:          {"OpDiv", "/", []int{}},
	OpEqual:        {"OpEqual", "==", []int{}},
	OpNotEqual:     {"OpNotEqual", "!=", []int{}},
	OpGreaterThan:  {"OpGreaterThan", ">", []int{}},
	OpGreaterEqual: {"OpGreaterEqual", ">=", []int{}},
	OpLessThan:     {"OpLessThan", "<", []int{}},
	OpLessEqual:    {"OpLessEqual", "<=", []int{}},
	OpNegate:       {"OpNegate", "-", []int{}},
	OpReturn:       {"OpReturn", "return", []int{}},
}

func Lookup(op byte) (*Definition, error) {
	def, ok := definitions[Opcode(op)]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return def, nil
}

func Make(op Opcode, operands ...int) []byte {
	def, ok := definitions[op]
	if !ok {
		return []byte{}
	}

	instructionLen := 1
	for _, w := range def.OperandWidths {
		instructionLen += w
	}

	instruction := make([]byte, instructionLen)
	instruction[0] = byte(op)

	offset := 1
	for i, o := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 2:
			instruction[offset] = byte(o >> 8)
			instruction[offset+1] = byte(o)
		case 1:
			instruction[offset] = byte(o)
		}
		offset += width
	}

	return instruction
}

func ReadOperands(def *Definition, ins []byte) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0

	for i, width := range def.OperandWidths {
		switch width {
		case 2:
			operands[i] = int(ReadUint16(ins[offset:]))
		case 1:
			operands[i] = int(ReadUint8(ins[offset:]))
		}
		offset += width
	}

	return operands, offset
}

func ReadUint16(ins []byte) uint16 {
	return uint16(ins[0])<<8 | uint16(ins[1])
}

func ReadUint8(ins []byte) uint8 {
	return uint8(ins[0])
}

// IsBinary reports whether op pops two operands and pushes one result.
func (op Opcode) IsBinary() bool {
	return op >= OpAdd && op <= OpLessEqual
}

func (op Opcode) String() string {
	def, ok := definitions[op]
	if !ok {
		return fmt.Sprintf("Opcode(%d)", op)
	}
	return def.Name
}

// String disassembles the instructions, one per line, prefixed by offset.
func (ins Instructions) String() string {
	var out bytes.Buffer

	i := 0
	for i < len(ins) {
		def, err := Lookup(ins[i])
		if err != nil {
			fmt.Fprintf(&out, "%04d ERROR: %s\n", i, err)
			i++
			continue
		}

		if i+1+operandsWidth(def) > len(ins) {
			fmt.Fprintf(&out, "%04d ERROR: truncated %s\n", i, def.Name)
			break
		}

		operands, read := ReadOperands(def, ins[i+1:])
		fmt.Fprintf(&out, "%04d %s\n", i, fmtInstruction(def, operands))

		i += 1 + read
	}

	return out.String()
}

func operandsWidth(def *Definition) int {
	w := 0
	for _, width := range def.OperandWidths {
		w += width
	}
	return w
}

func fmtInstruction(def *Definition, operands []int) string {
	switch len(operands) {
	case 0:
		return def.Name
	case 1:
		return fmt.Sprintf("%s %d", def.Name, operands[0])
	}
	return fmt.Sprintf("ERROR: unhandled operand count for %s\n", def.Name)
}
