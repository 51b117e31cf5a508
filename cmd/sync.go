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

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Parse every feature file and update the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunSync(cmd.Context(), cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func RunSync(ctx context.Context, w io.Writer, c config.Config) error {
	store, closeDB, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	logger := newLogger(c.LogLevel, c.LogFormat, os.Stderr)
	p, _, err := newParser(c, logger)
	if err != nil {
		return err
	}

	runID, err := store.StartRun(ctx)
	if err != nil {
		return err
	}
	logger = logger.With("run", runID)

	synced, err := catalog.New(p, c.Workers, logger).Sync(ctx, c.Dir, store)
	if err != nil {
		return err
	}

	keep := make([]string, len(synced))
	for i, s := range synced {
		keep[i] = s.Path
		if s.New {
			ui.NewLine(w, s.Path)
		} else {
			ui.UpdLine(w, s.Path)
		}
	}

	gone, err := store.Prune(ctx, keep)
	if err != nil {
		return fmt.Errorf("pruning index: %w", err)
	}
	for _, path := range gone {
		ui.GoneLine(w, path)
	}

	if err := store.FinishRun(ctx, runID, len(synced)); err != nil {
		return err
	}
	ui.SummaryLine(w, len(synced))
	return nil
}
