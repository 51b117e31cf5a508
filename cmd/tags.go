package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/oss-specs/specs/internal/config"
	"github.com/oss-specs/specs/internal/tags"
	"github.com/oss-specs/specs/internal/ui"
)

var tagsCmd = &cobra.Command{
	Use:   "tags [file...]",
	Short: "Show how often each tag is used",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunTags(cmd.Context(), cmd.OutOrStdout(), cfg, args)
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}

func RunTags(ctx context.Context, w io.Writer, c config.Config, paths []string) error {
	files, err := loadFiles(ctx, c, paths)
	if err != nil {
		return err
	}

	lists := make([][]tags.Frequency, len(files))
	for i, f := range files {
		lists[i] = tags.Count(f.Doc.Features())
	}
	ui.Cloud(w, tags.Merge(lists...))
	return nil
}
