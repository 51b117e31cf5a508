package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oss-specs/specs/internal/config"
	"github.com/oss-specs/specs/internal/stub"
)

var (
	stubOutFlag string
	stubPkgFlag string
)

var stubCmd = &cobra.Command{
	Use:   "stub <file>",
	Short: "Generate Go test stubs for a feature file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunStub(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], stubOutFlag, stubPkgFlag)
	},
}

func init() {
	stubCmd.Flags().StringVarP(&stubOutFlag, "out", "o", "", "write to this file instead of stdout")
	stubCmd.Flags().StringVar(&stubPkgFlag, "pkg", "", "package name (default: the output directory's name)")
	rootCmd.AddCommand(stubCmd)
}

func RunStub(ctx context.Context, w io.Writer, c config.Config, path, out, pkg string) error {
	files, err := loadFiles(ctx, c, []string{path})
	if err != nil {
		return err
	}
	f := files[0].Doc.Features()[0]

	opts := stub.Options{Package: pkg, Source: filepath.Base(path)}
	if out != "" {
		dir := filepath.Dir(out)
		if opts.Package == "" {
			opts.Package = packageName(dir)
		}
		importPath, err := stub.ImportPath(dir)
		switch {
		case err == nil:
			opts.ImportPath = importPath
		case !errors.Is(err, stub.ErrNoModule):
			return err
		}
	}

	var buf bytes.Buffer
	if err := stub.Generate(&buf, f, opts); err != nil {
		return fmt.Errorf("generating stubs for %s: %w", path, err)
	}

	if out == "" {
		_, err := w.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(w, "wrote %s\n", out)
	return nil
}

func packageName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	return strings.ToLower(stub.Identifier(filepath.Base(abs), ""))
}
