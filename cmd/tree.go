package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oss-specs/specs/internal/config"
	"github.com/oss-specs/specs/internal/parser"
	"github.com/oss-specs/specs/internal/tags"
	"github.com/oss-specs/specs/internal/ui"
)

var treeTagsFlag string

var treeCmd = &cobra.Command{
	Use:   "tree [file...]",
	Short: "Print the structure of feature files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunTree(cmd.Context(), cmd.OutOrStdout(), cfg, args, treeTagsFlag)
	},
}

func init() {
	treeCmd.Flags().StringVar(&treeTagsFlag, "tags", "", "only scenarios matching this tag expression")
	rootCmd.AddCommand(treeCmd)
}

// RunTree prints each feature with the scenarios that match expr. Features
// with no match are left out unless expr is empty.
func RunTree(ctx context.Context, w io.Writer, c config.Config, paths []string, expr string) error {
	m, err := tags.NewMatcher(expr)
	if err != nil {
		return err
	}
	files, err := loadFiles(ctx, c, paths)
	if err != nil {
		return err
	}

	first := true
	for _, file := range files {
		for _, f := range file.Doc.Features() {
			matched := tags.Filter(f, m)
			if len(matched) == 0 && expr != "" {
				continue
			}
			var shown []*parser.Scenario
			if bg, ok := f.Background(); ok {
				shown = append(shown, bg)
			}
			shown = append(shown, matched...)

			if !first {
				fmt.Fprintln(w)
			}
			first = false
			fmt.Fprintln(w, file.Path)
			ui.Tree(w, f, shown)
		}
	}
	return nil
}
