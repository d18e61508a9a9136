package main

import (
	"fmt"
	"os"
	"strings"

	"minic/pkg/eval"
	"minic/pkg/opcode"
	"minic/pkg/value"
	"minic/pkg/vm"
)

func main() {
	input := " 20.0 + 30.0 - 3 "
	if len(os.Args) > 1 {
		input = os.Args[1]
	}

	bytecode, err := eval.Compile(input)
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("Constants: %d\n", len(bytecode.Constants))
	for i, c := range bytecode.Constants {
		fmt.Printf("  [%d] = %s\n", i, c.GoString())
	}

	fmt.Printf("\nInstructions (%d bytes):\n", len(bytecode.Instructions))
	for i := 0; i < len(bytecode.Instructions); i++ {
		fmt.Printf("%02d: %02x\n", i, bytecode.Instructions[i])
	}

	fmt.Println("\nTrace:")
	machine := vm.New(bytecode)
	machine.Trace(func(offset int, op opcode.Opcode, stack []value.Value) {
		items := make([]string, len(stack))
		for i, v := range stack {
			items[i] = v.String()
		}
		fmt.Printf("%04d %-16s [%s]\n", offset, op, strings.Join(items, ", "))
	})

	result, err := machine.Run()
	if err != nil {
		fmt.Printf("\nerror: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nResult: %s (%s)\n", result, result.Kind())
}
