package main

import (
	"fmt"
	"os"

	"minic/pkg/compiler"
	"minic/pkg/eval"
	"minic/pkg/opcode"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: inspect_bytecode '<expr>'")
		os.Exit(1)
	}

	input := os.Args[1]
	bytecode, err := eval.Compile(input)
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("Constants (%d):\n", len(bytecode.Constants))
	for i, c := range bytecode.Constants {
		fmt.Printf("  [%d] %s\n", i, c.GoString())
	}
	fmt.Println()

	encoded, err := bytecode.MarshalBinary()
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("Snapshot: %d bytes (format v%d)\n\n", len(encoded), compiler.FormatVersion)

	positions := map[int]string{}
	for _, p := range bytecode.Positions {
		positions[p.Offset] = fmt.Sprintf("%d:%d", p.Line, p.Column)
	}

	fmt.Printf("Instructions (%d bytes):\n", len(bytecode.Instructions))
	ins := bytecode.Instructions
	i := 0
	for i < len(ins) {
		def, err := opcode.Lookup(ins[i])
		if err != nil {
			fmt.Printf("%04d ERROR: %s\n", i, err)
			i++
			continue
		}

		operands, read := opcode.ReadOperands(def, ins[i+1:])
		fmt.Printf("%04d %s", i, def.Name)

		for _, op := range operands {
			fmt.Printf(" %d", op)
		}
		if def.Symbol != "" {
			fmt.Printf("  (%s)", def.Symbol)
		}
		if pos, ok := positions[i]; ok {
			fmt.Printf("  @%s", pos)
		}
		fmt.Println()

		// Print hex dump for this instruction
		fmt.Printf("     Raw: ")
		for k := 0; k < 1+read; k++ {
			fmt.Printf("%02x ", ins[i+k])
		}
		fmt.Println()

		i += 1 + read
	}
}
