// Package config holds the settings shared by every specs command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/oss-specs/specs/internal/parser"
)

// Config holds the settings for one invocation.
type Config struct {
	Dir      string // feature files
	DBPath   string // defaults to specs.db inside Dir
	Language string // Gherkin dialect code

	LogLevel  string
	LogFormat string
	Workers   int
}

func Default() Config {
	return Config{
		Dir:       "features",
		Language:  "en",
		LogLevel:  "warn",
		LogFormat: "text",
		Workers:   runtime.NumCPU(),
	}
}

// FromEnv overlays SPECS_* environment variables on c.
func (c Config) FromEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	for name, dst := range map[string]*string{
		"SPECS_DIR":        &c.Dir,
		"SPECS_DB":         &c.DBPath,
		"SPECS_LANG":       &c.Language,
		"SPECS_LOG_LEVEL":  &c.LogLevel,
		"SPECS_LOG_FORMAT": &c.LogFormat,
	} {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	if v := getenv("SPECS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("SPECS_WORKERS: %w", err)
		}
		c.Workers = n
	}
	return c, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Dir == "" {
		errs = append(errs, errors.New("dir cannot be empty"))
	}
	if _, err := parser.KeywordsFor(c.Language); err != nil {
		errs = append(errs, err)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	return errors.Join(errs...)
}

// Database returns the path of the index database.
func (c Config) Database() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.Dir, "specs.db")
}

// Keywords returns the keyword set for c.Language.
func (c Config) Keywords() (*parser.Keywords, error) {
	return parser.KeywordsFor(c.Language)
}
