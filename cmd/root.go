package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/oss-specs/specs/internal/config"
	"github.com/oss-specs/specs/internal/db"
	"github.com/oss-specs/specs/internal/parser"
)

var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:           "specs",
	Short:         "Index and inspect Gherkin feature files",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfg.Dir, "dir", cfg.Dir, "directory holding feature files")
	f.StringVar(&cfg.DBPath, "db", cfg.DBPath, "index database (default <dir>/specs.db)")
	f.StringVar(&cfg.Language, "lang", cfg.Language, "Gherkin dialect of the feature files")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "files parsed in parallel")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "specs:", err)
		os.Exit(1)
	}
}

// loadConfig fills every flag left unset from the environment and
// validates the result.
func loadConfig(cmd *cobra.Command) error {
	env, err := config.Default().FromEnv(os.Getenv)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	for name, pair := range map[string][2]*string{
		"dir":        {&cfg.Dir, &env.Dir},
		"db":         {&cfg.DBPath, &env.DBPath},
		"lang":       {&cfg.Language, &env.Language},
		"log-level":  {&cfg.LogLevel, &env.LogLevel},
		"log-format": {&cfg.LogFormat, &env.LogFormat},
	} {
		if !flags.Changed(name) {
			*pair[0] = *pair[1]
		}
	}
	if !flags.Changed("workers") {
		cfg.Workers = env.Workers
	}
	return cfg.Validate()
}

func newLogger(level, format string, w io.Writer) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: l}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func requireInit(c config.Config) error {
	if _, err := os.Stat(c.Dir); os.IsNotExist(err) {
		return fmt.Errorf("run `specs init` first")
	}
	return nil
}

func openStore(c config.Config) (*db.Store, func(), error) {
	if err := requireInit(c); err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.Open(c.Database())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return db.NewStore(sqlDB), func() { sqlDB.Close() }, nil
}

func newParser(c config.Config, logger *slog.Logger) (*parser.Parser, *parser.Keywords, error) {
	kw, err := c.Keywords()
	if err != nil {
		return nil, nil, err
	}
	return parser.New(parser.WithKeywords(kw), parser.WithLogger(logger)), kw, nil
}
