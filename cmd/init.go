package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oss-specs/specs/internal/config"
	"github.com/oss-specs/specs/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the features directory and its index",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunInit(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func RunInit(w io.Writer, c config.Config) error {
	_, err := os.Stat(c.Dir)
	dirExists := err == nil
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Dir, err)
	}
	if dirExists {
		fmt.Fprintf(w, "%s/ already exists\n", c.Dir)
	} else {
		fmt.Fprintf(w, "%s/ created\n", c.Dir)
	}

	dbPath := c.Database()
	_, err = os.Stat(dbPath)
	dbExists := err == nil
	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	sqlDB.Close()
	if dbExists {
		fmt.Fprintf(w, "%s already exists\n", dbPath)
	} else {
		fmt.Fprintf(w, "%s created\n", dbPath)
	}

	msgs, err := ensureGitignore(filepath.ToSlash(dbPath))
	if err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}
	for _, msg := range msgs {
		fmt.Fprintln(w, msg)
	}
	return nil
}

// ensureGitignore adds entry and its WAL side files to .gitignore.
func ensureGitignore(entry string) ([]string, error) {
	entries := []string{entry, entry + "-*"}

	data, err := os.ReadFile(".gitignore")
	if os.IsNotExist(err) {
		content := strings.Join(entries, "\n") + "\n"
		if err := os.WriteFile(".gitignore", []byte(content), 0o644); err != nil {
			return nil, err
		}
		return []string{".gitignore created", entry + " added to .gitignore"}, nil
	}
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(data), "\n") {
		present[strings.TrimSpace(line)] = true
	}
	var missing []string
	for _, e := range entries {
		if !present[e] {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return []string{entry + " already in .gitignore"}, nil
	}

	content := string(data)
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += strings.Join(missing, "\n") + "\n"
	if err := os.WriteFile(".gitignore", []byte(content), 0o644); err != nil {
		return nil, err
	}
	return []string{entry + " added to .gitignore"}, nil
}
