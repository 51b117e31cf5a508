package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/oss-specs/specs/internal/catalog"
	"github.com/oss-specs/specs/internal/config"
	"github.com/oss-specs/specs/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [file...]",
	Short: "Parse feature files and report every error",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunCheck(cmd.Context(), cmd.OutOrStdout(), cfg, args)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func RunCheck(ctx context.Context, w io.Writer, c config.Config, paths []string) error {
	logger := newLogger(c.LogLevel, c.LogFormat, os.Stderr)
	p, _, err := newParser(c, logger)
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		if paths, err = catalog.Find(c.Dir); err != nil {
			return err
		}
	}

	checked, err := catalog.New(p, c.Workers, logger).Check(ctx, paths)
	if err != nil {
		return err
	}

	failed := 0
	for _, ch := range checked {
		if ch.Err != nil {
			ui.ErrLine(w, ch.Path, ch.Err)
			failed++
			continue
		}
		ui.OkLine(w, ch.Path, ch.Scenarios)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to parse", failed, len(checked))
	}
	return nil
}

// loadFiles parses paths, or every feature file under c.Dir when paths is
// empty.
func loadFiles(ctx context.Context, c config.Config, paths []string) ([]catalog.File, error) {
	logger := newLogger(c.LogLevel, c.LogFormat, os.Stderr)
	p, _, err := newParser(c, logger)
	if err != nil {
		return nil, err
	}
	cat := catalog.New(p, c.Workers, logger)
	if len(paths) == 0 {
		return cat.LoadDir(ctx, c.Dir)
	}
	return cat.Load(ctx, paths)
}
