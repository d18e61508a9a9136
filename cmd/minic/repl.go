package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"minic/pkg/version"
)

// startREPL evaluates one line at a time. Errors are reported and the
// loop continues; end of input ends the session.
func (s *session) startREPL(in io.Reader, out io.Writer) int {
	scanner := bufio.NewScanner(in)

	fmt.Fprintf(out, "minic %s REPL\n", version.Version)
	fmt.Fprintln(out, "Type an expression and press Enter. Ctrl-D exits.")

	for {
		fmt.Fprint(out, s.cfg.REPL.Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return 0
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		result, err := s.evaluate(line)
		if err != nil {
			printError(out, err)
			continue
		}
		io.WriteString(out, result.String())
		io.WriteString(out, "\n")
	}
}
