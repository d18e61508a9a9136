package main

import (
	"fmt"
	"io"
	"sort"

	"minic/pkg/compiler"
	"minic/pkg/opcode"
)

type BytecodeInsights struct {
	Size          int
	Constants     int
	Instructions  int
	Opcodes       []OpcodeCount
	MaxStackDepth int
}

type OpcodeCount struct {
	Op    opcode.Opcode
	Count int
}

// analyzeBytecode walks the instruction stream once, counting opcodes and
// tracking the deepest operand stack the program can reach.
func analyzeBytecode(bytecode *compiler.Bytecode) BytecodeInsights {
	insights := BytecodeInsights{
		Size:      len(bytecode.Instructions),
		Constants: len(bytecode.Constants),
	}

	counts := map[opcode.Opcode]int{}
	depth := 0
	ins := bytecode.Instructions
	for i := 0; i < len(ins); {
		def, err := opcode.Lookup(ins[i])
		if err != nil {
			break
		}
		op := opcode.Opcode(ins[i])
		counts[op]++
		insights.Instructions++

		depth += stackEffect(op)
		if depth > insights.MaxStackDepth {
			insights.MaxStackDepth = depth
		}

		for _, w := range def.OperandWidths {
			i += w
		}
		i++
	}

	for op, n := range counts {
		insights.Opcodes = append(insights.Opcodes, OpcodeCount{Op: op, Count: n})
	}
	sort.Slice(insights.Opcodes, func(i, j int) bool {
		if insights.Opcodes[i].Count != insights.Opcodes[j].Count {
			return insights.Opcodes[i].Count > insights.Opcodes[j].Count
		}
		return insights.Opcodes[i].Op < insights.Opcodes[j].Op
	})

	return insights
}

func stackEffect(op opcode.Opcode) int {
	switch {
	case op == opcode.OpConstant:
		return 1
	case op.IsBinary():
		return -1
	default:
		return 0
	}
}

func printInsights(out io.Writer, insights BytecodeInsights) {
	fmt.Fprintf(out, "Bytecode (%d bytes, %d instructions, %d constants)\n",
		insights.Size, insights.Instructions, insights.Constants)
	fmt.Fprintf(out, "  · Max stack depth: %d\n", insights.MaxStackDepth)

	fmt.Fprintf(out, "Opcodes (%d)\n", len(insights.Opcodes))
	for _, oc := range insights.Opcodes {
		fmt.Fprintf(out, "  · %-16s %d\n", oc.Op, oc.Count)
	}
}
