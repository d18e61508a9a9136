package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/tliron/commonlog"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"minic/pkg/compiler"
	"minic/pkg/config"
	"minic/pkg/eval"
	"minic/pkg/history"
	"minic/pkg/server"
	"minic/pkg/value"
	"minic/pkg/version"

	_ "github.com/tliron/commonlog/simple"
)

const sourceExt = ".minic"

var log = commonlog.GetLogger("minic.cli")

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
	commonlog.Configure(cfg.Log.Verbosity, cfg.LogPath())

	s := &session{cfg: cfg}
	code := run(s, os.Args[1:])
	s.close()
	os.Exit(code)
}

func run(s *session, args []string) int {
	if len(args) == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return s.startREPL(os.Stdin, os.Stdout)
		}
		return s.evalReader(os.Stdin)
	}

	command := args[0]

	// Handle flags
	switch command {
	case "--version", "-v", "version":
		printVersion()
		return 0
	case "--help", "-h", "help":
		printHelp()
		return 0
	}

	// If the first argument ends with .minic, treat it as a file to run
	if strings.HasSuffix(command, sourceExt) {
		return s.runFile(command)
	}

	switch command {
	case "repl":
		return s.startREPL(os.Stdin, os.Stdout)
	case "run":
		if len(args) < 2 {
			return usage("minic run <file>")
		}
		return s.runFile(args[1])
	case "eval":
		if len(args) < 2 {
			return usage("minic eval '<expr>'")
		}
		return s.evalCode(strings.Join(args[1:], " "))
	case "tokens":
		asYAML := len(args) > 1 && args[1] == "--yaml"
		if asYAML {
			args = args[1:]
		}
		if len(args) < 2 {
			return usage("minic tokens [--yaml] '<expr>'")
		}
		return s.printTokens(args[1], asYAML)
	case "disasm":
		if len(args) < 2 {
			return usage("minic disasm '<expr>'")
		}
		return s.disassemble(args[1])
	case "inspect":
		if len(args) < 2 {
			return usage("minic inspect <file>")
		}
		return s.inspectFile(args[1])
	case "compile":
		if len(args) < 3 {
			return usage("minic compile <file> <out>")
		}
		return s.compileFile(args[1], args[2])
	case "exec":
		if len(args) < 2 {
			return usage("minic exec <bytecode-file>")
		}
		return s.execFile(args[1])
	case "serve":
		return s.serve()
	case "history":
		return s.printHistory(args[1:])
	case "hash-password":
		if len(args) < 2 {
			return usage("minic hash-password <password>")
		}
		return hashPassword(args[1])
	case "uninstall":
		return uninstallMinic()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printHelp()
		return 1
	}
}

func usage(line string) int {
	fmt.Println("Usage: " + line)
	return 1
}

// session carries configuration and the lazily opened history store
// through one CLI invocation.
type session struct {
	cfg   *config.Config
	store *history.Store
}

func (s *session) options() []eval.Option {
	return []eval.Option{eval.WithStrict(s.cfg.Scanner.Strict)}
}

func (s *session) compileSource(source string) (*compiler.Bytecode, error) {
	return eval.Compile(source, s.options()...)
}

// historyStore opens the store on first use. It returns nil when history
// is disabled or cannot be opened.
func (s *session) historyStore() *history.Store {
	if s.store != nil || !s.cfg.History.Enabled {
		return s.store
	}
	store, err := history.Open(s.cfg.History.Path)
	if err != nil {
		log.Warningf("history disabled: %v", err)
		s.cfg.History.Enabled = false
		return nil
	}
	s.store = store
	return store
}

func (s *session) close() {
	if s.store != nil {
		s.store.Close()
	}
}

// evaluate runs source and records the outcome when history is enabled.
func (s *session) evaluate(source string) (value.Value, error) {
	result, err := eval.Evaluate(source, s.options()...)

	if store := s.historyStore(); store != nil {
		entry := history.Entry{Source: source}
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Result = result.String()
			entry.Kind = result.Kind().String()
		}
		if err := store.Record(context.Background(), entry); err != nil {
			log.Warningf("recording history: %v", err)
		}
	}
	return result, err
}

func (s *session) evalCode(code string) int {
	result, err := s.evaluate(code)
	if err != nil {
		printError(os.Stderr, err)
		return 1
	}
	fmt.Println(result)
	return 0
}

func (s *session) evalReader(r io.Reader) int {
	data, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		return 1
	}
	return s.evalCode(string(data))
}

func (s *session) runFile(filename string) int {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		return 1
	}
	return s.evalCode(string(data))
}

func (s *session) printTokens(source string, asYAML bool) int {
	tokens, err := eval.Tokens(source, s.options()...)
	if err != nil {
		printError(os.Stderr, err)
		return 1
	}

	if asYAML {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		if err := enc.Encode(tokens); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding tokens: %v\n", err)
			return 1
		}
		return 0
	}

	for _, tok := range tokens {
		fmt.Printf("%-8s %-20s %s\n", tok.Type, fmt.Sprintf("'%s'", tok.Lexeme), tok.Pos())
	}
	return 0
}

func (s *session) disassemble(source string) int {
	bytecode, err := s.compileSource(source)
	if err != nil {
		printError(os.Stderr, err)
		return 1
	}
	printBytecode(os.Stdout, bytecode)
	return 0
}

func printBytecode(out io.Writer, bytecode *compiler.Bytecode) {
	fmt.Fprintf(out, "Constants (%d):\n", len(bytecode.Constants))
	for i, c := range bytecode.Constants {
		fmt.Fprintf(out, "  [%d] %s %s\n", i, c.Kind(), c)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Instructions (%d bytes):\n", len(bytecode.Instructions))
	io.WriteString(out, bytecode.Instructions.String())
}

func (s *session) inspectFile(filename string) int {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		return 1
	}

	bytecode, err := s.compileSource(string(data))
	if err != nil {
		printError(os.Stderr, err)
		return 1
	}

	printInsights(os.Stdout, analyzeBytecode(bytecode))
	return 0
}

func (s *session) compileFile(filename, out string) int {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		return 1
	}

	bytecode, err := s.compileSource(string(data))
	if err != nil {
		printError(os.Stderr, err)
		return 1
	}

	encoded, err := bytecode.MarshalBinary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding bytecode: %v\n", err)
		return 1
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		return 1
	}

	fmt.Printf("✓ Wrote %s (%d bytes)\n", out, len(encoded))
	return 0
}

func (s *session) execFile(filename string) int {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		return 1
	}

	bytecode := &compiler.Bytecode{}
	if err := bytecode.UnmarshalBinary(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading bytecode: %v\n", err)
		return 1
	}

	result, err := eval.Run(bytecode)
	if err != nil {
		printError(os.Stderr, err)
		return 1
	}
	fmt.Println(result)
	return 0
}

func (s *session) serve() int {
	var opts []server.Option
	opts = append(opts, server.WithStrict(s.cfg.Scanner.Strict))
	if store := s.historyStore(); store != nil {
		opts = append(opts, server.WithRecorder(store))
	}

	srv, err := server.New(s.cfg.Server, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("📡 Serving on http://%s (POST /eval, GET /ws)\n", s.cfg.Server.Addr)
	if !s.cfg.Server.AuthEnabled() {
		fmt.Println("   Authentication is disabled")
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}
	return 0
}

func (s *session) printHistory(args []string) int {
	if !s.cfg.History.Enabled {
		fmt.Println("History is disabled. Set [history] enabled = true or MINIC_HISTORY=1.")
		return 1
	}
	store := s.historyStore()
	if store == nil {
		return 1
	}

	ctx := context.Background()
	if len(args) > 0 && args[0] == "clear" {
		n, err := store.Clear(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			return 1
		}
		fmt.Printf("✓ Removed %d entries\n", n)
		return 0
	}

	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return usage("minic history [n | clear]")
		}
		limit = n
	}

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		outcome := e.Result
		if e.Failed() {
			outcome = "error: " + e.Error
		}
		sid := e.Session
		if len(sid) > 8 {
			sid = sid[:8]
		}
		fmt.Printf("%5d  %s  %-8s  %s => %s\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"),
			sid, strings.TrimSpace(e.Source), outcome)
	}
	return 0
}

func hashPassword(password string) int {
	hash, err := server.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}
	fmt.Println(hash)
	return 0
}

func printError(out io.Writer, err error) {
	fmt.Fprintf(out, "error: %s\n", err)
}

func printVersion() {
	fmt.Printf("minic %s\n", version.Version)
	fmt.Printf("Build Date: %s\n", version.BuildDate)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
}

func printHelp() {
	fmt.Println("minic: arithmetic and comparison expression evaluator")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  minic                        REPL on a terminal, otherwise evaluate stdin")
	fmt.Println("  minic <file.minic>           Evaluate a file (shortcut for 'minic run')")
	fmt.Println("  minic run <file>             Evaluate a file")
	fmt.Println("  minic eval '<expr>'          Evaluate an expression")
	fmt.Println("  minic repl                   Start the interactive REPL")
	fmt.Println("  minic tokens [--yaml] '<e>'  Print the token stream")
	fmt.Println("  minic disasm '<expr>'        Print constants and instructions")
	fmt.Println("  minic inspect <file>         Summarize opcodes and stack depth")
	fmt.Println("  minic compile <file> <out>   Write bytecode to a file")
	fmt.Println("  minic exec <bytecode-file>   Run a compiled bytecode file")
	fmt.Println("  minic serve                  Serve POST /eval and GET /ws")
	fmt.Println("  minic history [n | clear]    Show or clear recent evaluations")
	fmt.Println("  minic hash-password <pw>     Print a bcrypt hash for [server] password-hash")
	fmt.Println("  minic uninstall              Remove the globally installed binary")
	fmt.Println("  minic version                Display build metadata")
	fmt.Println("  minic help                   Show this help message")
	fmt.Println()
	fmt.Println("Global flags:")
	fmt.Println("  --help, -h                   Show help")
	fmt.Println("  --version, -v                Show version")
}

func uninstallMinic() int {
	binaryName := "minic"
	if runtime.GOOS == "windows" {
		binaryName += ".exe"
	}

	var candidatePaths []string
	if existingPath, err := exec.LookPath("minic"); err == nil {
		candidatePaths = append(candidatePaths, existingPath)
	}

	switch runtime.GOOS {
	case "windows":
		candidatePaths = append(candidatePaths,
			filepath.Join(os.Getenv("LOCALAPPDATA"), "Programs", "minic", binaryName),
			filepath.Join(os.Getenv("ProgramFiles"), "minic", binaryName),
		)
	default:
		candidatePaths = append(candidatePaths,
			"/usr/local/bin/"+binaryName,
			"/usr/bin/"+binaryName,
			filepath.Join(os.Getenv("HOME"), "go", "bin", "minic"),
		)
	}

	removed := false
	for _, path := range candidatePaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			if err := os.Remove(path); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to remove %s: %v\n", path, err)
				return 1
			}
			fmt.Printf("✓ Removed %s\n", path)
			removed = true
		}
	}

	if !removed {
		fmt.Println("No installed minic binary was found in common locations.")
		return 0
	}

	fmt.Println("minic uninstalled successfully.")
	return 0
}
