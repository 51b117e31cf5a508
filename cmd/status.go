package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oss-specs/specs/internal/config"
	"github.com/oss-specs/specs/internal/db"
	"github.com/oss-specs/specs/internal/parser"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunStatus(cmd.Context(), cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func RunStatus(ctx context.Context, w io.Writer, c config.Config) error {
	store, closeDB, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	counts, err := store.Counts(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Scenarios: %d\n", counts[parser.TokenScenario]+counts[parser.TokenScenarioOutline])
	for _, tok := range []parser.Token{parser.TokenScenario, parser.TokenScenarioOutline, parser.TokenBackground} {
		if n := counts[tok]; n > 0 {
			fmt.Fprintf(w, "  %s: %d\n", tok, n)
		}
	}

	run, err := store.LastRun(ctx)
	switch {
	case errors.Is(err, db.ErrNotFound):
		fmt.Fprintln(w, "Last sync: never")
	case err != nil:
		return err
	default:
		fmt.Fprintf(w, "Last sync: %s (%d files, run %s)\n", run.FinishedAt.Format("2006-01-02 15:04:05"), run.Files, run.ID)
	}
	return nil
}
