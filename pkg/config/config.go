// Package config loads minic.toml and the MINIC_* environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	FileName    = "minic.toml"
	EnvFileName = ".env"
)

// Config is the merged configuration. Values come from, in increasing
// priority: defaults, minic.toml, .env, the process environment.
type Config struct {
	REPL    REPL    `toml:"repl"`
	Scanner Scanner `toml:"scanner"`
	History History `toml:"history"`
	Server  Server  `toml:"server"`
	Log     Log     `toml:"log"`

	// Dir is the directory the configuration was loaded from.
	Dir string `toml:"-"`
}

type REPL struct {
	Prompt string `toml:"prompt"`
}

type Scanner struct {
	Strict bool `toml:"strict"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Server struct {
	Addr         string `toml:"addr"`
	JWTSecret    string `toml:"jwt-secret"`
	PasswordHash string `toml:"password-hash"`
	TokenTTL     string `toml:"token-ttl"`
}

type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		REPL:    REPL{Prompt: ">>> "},
		History: History{Path: defaultHistoryPath()},
		Server:  Server{Addr: "127.0.0.1:8080", TokenTTL: "1h"},
		Log:     Log{Verbosity: 0},
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".minic_history.db"
	}
	return filepath.Join(home, ".minic_history.db")
}

// Load reads minic.toml and .env from dir, both optional, and applies
// MINIC_* overrides.
func Load(dir string) (*Config, error) {
	c := Default()

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	c.Dir = abs

	path := filepath.Join(abs, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	envFile, err := readEnvFile(filepath.Join(abs, EnvFileName))
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(envLookup(envFile)); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks values that cannot be checked by decoding alone.
func (c *Config) Validate() error {
	if _, err := c.Server.TTL(); err != nil {
		return err
	}
	if c.Log.Verbosity < -4 || c.Log.Verbosity > 2 {
		return fmt.Errorf("log verbosity %d out of range [-4, 2]", c.Log.Verbosity)
	}
	return nil
}

// TTL parses TokenTTL.
func (s Server) TTL() (time.Duration, error) {
	d, err := time.ParseDuration(s.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid token-ttl %q: %w", s.TokenTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid token-ttl %q: must be positive", s.TokenTTL)
	}
	return d, nil
}

// AuthEnabled reports whether the server requires bearer tokens.
func (s Server) AuthEnabled() bool {
	return s.JWTSecret != ""
}

func readEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return env, nil
}

type lookupFunc func(key string) (string, bool)

// envLookup prefers the process environment over the .env file.
func envLookup(envFile map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := envFile[key]
		return v, ok
	}
}

func (c *Config) applyEnv(lookup lookupFunc) error {
	text := map[string]*string{
		"MINIC_PROMPT":        &c.REPL.Prompt,
		"MINIC_HISTORY_PATH":  &c.History.Path,
		"MINIC_ADDR":          &c.Server.Addr,
		"MINIC_JWT_SECRET":    &c.Server.JWTSecret,
		"MINIC_PASSWORD_HASH": &c.Server.PasswordHash,
		"MINIC_TOKEN_TTL":     &c.Server.TokenTTL,
		"MINIC_LOG_FILE":      &c.Log.File,
	}
	for key, dst := range text {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	flags := map[string]*bool{
		"MINIC_STRICT":  &c.Scanner.Strict,
		"MINIC_HISTORY": &c.History.Enabled,
	}
	for key, dst := range flags {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = b
	}

	if v, ok := lookup("MINIC_LOG_VERBOSITY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MINIC_LOG_VERBOSITY %q: %w", v, err)
		}
		c.Log.Verbosity = n
	}

	return nil
}

// LogPath returns the log file path for commonlog.Configure, nil for stderr.
func (c *Config) LogPath() *string {
	if c.Log.File == "" {
		return nil
	}
	path := c.Log.File
	return &path
}
