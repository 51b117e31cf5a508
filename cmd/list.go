package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/oss-specs/specs/internal/config"
	"github.com/oss-specs/specs/internal/db"
	"github.com/oss-specs/specs/internal/parser"
	"github.com/oss-specs/specs/internal/tags"
	"github.com/oss-specs/specs/internal/ui"
)

var (
	tagsFlag       string
	backgroundFlag bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunList(cmd.Context(), cmd.OutOrStdout(), cfg, tagsFlag, backgroundFlag)
	},
}

func init() {
	listCmd.Flags().StringVar(&tagsFlag, "tags", "", `tag expression, e.g. "@smoke and not @slow"`)
	listCmd.Flags().BoolVar(&backgroundFlag, "backgrounds", false, "include backgrounds")
	rootCmd.AddCommand(listCmd)
}

// RunList prints the indexed scenarios whose inherited tags match expr.
func RunList(ctx context.Context, w io.Writer, c config.Config, expr string, backgrounds bool) error {
	m, err := tags.NewMatcher(expr)
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	all, err := store.Scenarios(ctx)
	if err != nil {
		return err
	}

	var results []db.Scenario
	var lw ui.ListWidths
	for _, sc := range all {
		if sc.Token == parser.TokenBackground && !backgrounds {
			continue
		}
		if !m.Match(sc.Tags) {
			continue
		}
		results = append(results, sc)
		lw.Fit(sc.ID, sc.FileName, sc.Name)
	}

	for _, sc := range results {
		ui.ListRow(w, sc.ID, sc.FileName, displayName(sc), sc.Tags, lw)
	}
	return nil
}

func displayName(sc db.Scenario) string {
	if sc.Name == "" {
		return "(" + string(sc.Token) + ")"
	}
	return sc.Name
}
