package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oss-specs/specs/internal/config"
	"github.com/oss-specs/specs/internal/db"
	"github.com/oss-specs/specs/internal/parser"
	"github.com/oss-specs/specs/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an indexed scenario with its background",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunShow(cmd.Context(), cmd.OutOrStdout(), cfg, args[0])
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func parseScenarioID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(raw, "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid scenario ID: %s", raw)
	}
	return id, nil
}

func RunShow(ctx context.Context, w io.Writer, c config.Config, rawID string) error {
	id, err := parseScenarioID(rawID)
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeDB()

	sc, err := store.Scenario(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("scenario %d not found", id)
	}
	if err != nil {
		return err
	}

	kw, err := c.Keywords()
	if err != nil {
		return err
	}

	ui.ShowHeader(w, sc.ID, sc.FileName, sc.Token)
	ui.ShowTags(w, sc.Tags)

	if sc.Token != parser.TokenBackground {
		bg, ok, err := background(ctx, store, sc.Path)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(w)
			ui.ShowGherkin(w, bg.Content, kw)
		}
	}

	fmt.Fprintln(w)
	ui.ShowGherkin(w, sc.Content, kw)
	return nil
}

func background(ctx context.Context, store *db.Store, path string) (db.Scenario, bool, error) {
	all, err := store.Scenarios(ctx)
	if err != nil {
		return db.Scenario{}, false, err
	}
	for _, sc := range all {
		if sc.Path == path && sc.Token == parser.TokenBackground {
			return sc, true, nil
		}
	}
	return db.Scenario{}, false, nil
}
