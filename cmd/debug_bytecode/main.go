package main

import (
	"fmt"
	"os"

	"minic/pkg/compiler"
	"minic/pkg/opcode"
)

// debug_bytecode decodes a file written by 'minic compile' and dumps it.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: debug_bytecode <file.mbc>")
		os.Exit(1)
	}

	content, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Printf("Error reading file: %s\n", err)
		os.Exit(1)
	}

	bytecode := &compiler.Bytecode{}
	if err := bytecode.UnmarshalBinary(content); err != nil {
		fmt.Printf("Decoding failed: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("Format v%d, %d bytes on disk\n\n", compiler.FormatVersion, len(content))

	fmt.Printf("Constants (%d):\n", len(bytecode.Constants))
	for i, c := range bytecode.Constants {
		fmt.Printf("  [%d] %s\n", i, c.GoString())
	}

	fmt.Printf("\nInstructions (%d bytes):\n", len(bytecode.Instructions))
	fmt.Print(bytecode.Instructions.String())

	fmt.Printf("\nPositions (%d):\n", len(bytecode.Positions))
	instructions := bytecode.Instructions
	for _, p := range bytecode.Positions {
		name := "?"
		if p.Offset < len(instructions) {
			name = opcode.Opcode(instructions[p.Offset]).String()
		}
		fmt.Printf("  %04d %-16s %d:%d\n", p.Offset, name, p.Line, p.Column)
	}
}
