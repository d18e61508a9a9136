package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"minic/pkg/config"
)

type options struct {
	targetDir  string
	version    string
	dryRun     bool
	initConfig bool
}

func main() {
	var opts options
	flag.StringVar(&opts.targetDir, "path", "", "Custom install directory")
	flag.StringVar(&opts.version, "version", "", "Version to stamp into the binary")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Print the build command and destination without installing")
	flag.BoolVar(&opts.initConfig, "init-config", false, "Write a default "+config.FileName+" into the working directory")
	flag.Parse()

	repoRoot, err := os.Getwd()
	if err != nil {
		exitWithError("unable to determine working directory", err)
	}

	if opts.initConfig {
		if err := writeDefaultConfig(filepath.Join(repoRoot, config.FileName)); err != nil {
			exitWithError("unable to write configuration", err)
		}
	}

	if err := install(repoRoot, opts); err != nil {
		exitWithError("installation failed", err)
	}
}

func install(repoRoot string, opts options) error {
	binaryName := "minic"
	if runtime.GOOS == "windows" {
		binaryName += ".exe"
	}

	targetDir := opts.targetDir
	if targetDir == "" {
		targetDir = defaultInstallDir()
	}
	destPath := filepath.Join(targetDir, binaryName)

	buildDir, err := os.MkdirTemp("", "minic-build-")
	if err != nil {
		return fmt.Errorf("creating build directory: %w", err)
	}
	defer os.RemoveAll(buildDir)

	buildOutput := filepath.Join(buildDir, binaryName)
	args := []string{"build", "-ldflags", versionFlags(repoRoot, opts.version), "-o", buildOutput, "./cmd/minic"}

	if opts.dryRun {
		fmt.Printf("go %s\n", strings.Join(args, " "))
		fmt.Printf("install -> %s\n", destPath)
		return nil
	}

	fmt.Println("🚧 Building minic CLI...")
	buildCmd := exec.Command("go", args...)
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	buildCmd.Dir = repoRoot
	if err := buildCmd.Run(); err != nil {
		return fmt.Errorf("go build: %w", err)
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", targetDir, err)
	}

	fmt.Printf("📦 Installing to %s\n", destPath)
	if err := copyFile(buildOutput, destPath); err != nil {
		return fmt.Errorf("copying binary (try running with elevated permissions): %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(destPath, 0o755); err != nil {
			return fmt.Errorf("setting executable bit: %w", err)
		}
	}

	fmt.Println("✅ minic installed successfully!")
	fmt.Println("Run 'minic --help' to verify the CLI is available in your PATH.")
	return nil
}

// versionFlags stamps build metadata into minic/pkg/version. The git commit
// is omitted outside a repository.
func versionFlags(repoRoot, version string) string {
	flags := []string{
		"-X minic/pkg/version.BuildDate=" + time.Now().UTC().Format(time.RFC3339),
	}
	if version != "" {
		flags = append(flags, "-X minic/pkg/version.Version="+version)
	}

	gitCmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	gitCmd.Dir = repoRoot
	if out, err := gitCmd.Output(); err == nil {
		flags = append(flags, "-X minic/pkg/version.GitCommit="+strings.TrimSpace(string(out)))
	}

	return strings.Join(flags, " ")
}

// writeDefaultConfig refuses to overwrite an existing file.
func writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("⚠️  %s already exists, leaving it alone\n", path)
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg := config.Default()
	cfg.History.Enabled = true

	var buf bytes.Buffer
	buf.WriteString("# minic configuration. MINIC_* environment variables override these values.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}

	fmt.Printf("📝 Wrote %s\n", path)
	return nil
}

func defaultInstallDir() string {
	switch runtime.GOOS {
	case "windows":
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, "Programs", "minic")
		}
		return filepath.Join(os.TempDir(), "minic")
	default:
		return "/usr/local/bin"
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Sync()
}

func exitWithError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "❌ %s: %v\n", msg, err)
	os.Exit(1)
}
