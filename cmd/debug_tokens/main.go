package main

import (
	"errors"
	"fmt"
	"os"

	"minic/pkg/lexer"
	"minic/pkg/token"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: debug_tokens [--strict] '<expr>'")
		os.Exit(1)
	}

	args := os.Args[1:]
	strict := args[0] == "--strict"
	if strict {
		args = args[1:]
	}
	if len(args) == 0 {
		fmt.Println("Usage: debug_tokens [--strict] '<expr>'")
		os.Exit(1)
	}

	input := args[0]
	l := lexer.New(input, lexer.Strict(strict))

	fmt.Printf("Input: %q\n\n", input)
	fmt.Println("Tokens:")
	fmt.Println("-------")

	for {
		tok, err := l.NextToken()
		if err != nil {
			var lexErr *lexer.Error
			if errors.As(err, &lexErr) {
				fmt.Printf("%-15s %-20s (line %d, col %d)\n", "ERROR", fmt.Sprintf("'%s'", lexErr.Lexeme), lexErr.Line, lexErr.Column)
			}
			fmt.Printf("\nerror: %s\n", err)
			os.Exit(1)
		}

		literal := ""
		if tok.Value.IsValid() {
			literal = tok.Value.GoString()
		}
		fmt.Printf("%-15s %-20s (line %d, col %d, len %d) %s\n",
			tok.Type, fmt.Sprintf("'%s'", tok.Lexeme), tok.Line, tok.Column, tok.Length, literal)

		if tok.Type == token.EOF {
			break
		}
	}
}
