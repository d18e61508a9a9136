package main

import (
	"bytes"
	"strings"
	"testing"

	"minic/pkg/config"
)

func TestREPL(t *testing.T) {
	cfg := config.Default()
	cfg.REPL.Prompt = "> "
	s := &session{cfg: cfg}

	in := strings.NewReader("1 + 2\n\n1 / 0\n(1\n7 / 2.0\n")
	var out bytes.Buffer

	if code := s.startREPL(in, &out); code != 0 {
		t.Fatalf("wrong exit code: %d", code)
	}

	output := out.String()
	for _, want := range []string{
		"> 3\n",
		"division by zero",
		"expect ')' after expression",
		"> 3.5\n",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("REPL output missing %q:\n%s", want, output)
		}
	}
}

func TestPrintBytecode(t *testing.T) {
	s := &session{cfg: config.Default()}
	bytecode, err := s.compileSource("2.5 * 2")
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	printBytecode(&out, bytecode)

	expected := `Constants (2):
  [0] FLOAT 2.5
  [1] INTEGER 2

Instructions (8 bytes):
0000 OpConstant 0
0003 OpConstant 1
0006 OpMul
0007 OpReturn
`
	if out.String() != expected {
		t.Errorf("wrong disassembly.\nwant=%q\ngot =%q", expected, out.String())
	}
}
