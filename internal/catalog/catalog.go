// Package catalog discovers feature files on disk and parses them
// concurrently.
package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/oss-specs/specs/internal/parser"
)

const Ext = ".feature"

// File is one parsed feature file.
type File struct {
	Path string
	Text string
	Doc  *parser.Document
}

// Flat returns the storage view of f.
func (f File) Flat() *parser.ParsedFile {
	return parser.Transform(f.Doc, f.Path, f.Text)
}

// Synced describes what a sync did with one file.
type Synced struct {
	Path      string
	New       bool
	Scenarios int
}

type Catalog struct {
	parser  *parser.Parser
	workers int
	logger  *slog.Logger
}

// New returns a Catalog that parses with p using at most workers
// goroutines. workers below 1 means one.
func New(p *parser.Parser, workers int, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{parser: p, workers: max(workers, 1), logger: logger}
}

// Find returns every feature file under dir, sorted. Hidden directories are
// skipped.
func Find(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == Ext {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Load reads and parses paths. Results keep the order of paths. The first
// failure cancels the remaining work.
func (c *Catalog) Load(ctx context.Context, paths []string) ([]File, error) {
	files := make([]File, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			text := string(data)
			doc, err := c.parser.Parse(text)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
			c.logger.Debug("parsed feature file", "path", path, "features", len(doc.Features()))
			files[i] = File{Path: path, Text: text, Doc: doc}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// LoadDir is Find followed by Load.
func (c *Catalog) LoadDir(ctx context.Context, dir string) ([]File, error) {
	paths, err := Find(dir)
	if err != nil {
		return nil, err
	}
	return c.Load(ctx, paths)
}

// Sync parses every feature file under dir and saves each one to sink in
// path order.
func (c *Catalog) Sync(ctx context.Context, dir string, sink Sink) ([]Synced, error) {
	files, err := c.LoadDir(ctx, dir)
	if err != nil {
		return nil, err
	}

	out := make([]Synced, 0, len(files))
	for _, f := range files {
		pf := f.Flat()
		isNew, err := sink.Save(ctx, pf)
		if err != nil {
			return nil, fmt.Errorf("saving %s: %w", f.Path, err)
		}
		out = append(out, Synced{Path: f.Path, New: isNew, Scenarios: len(pf.Scenarios)})
	}

	c.logger.Info("sync complete", "dir", dir, "files", len(out))
	return out, nil
}

// Checked is the outcome of parsing one file with Check.
type Checked struct {
	Path      string
	Scenarios int
	Err       error
}

// Check parses every path and reports each outcome, in input order. Unlike
// Load it does not stop at the first failure.
func (c *Catalog) Check(ctx context.Context, paths []string) ([]Checked, error) {
	out := make([]Checked, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Checked{Path: path}
			data, err := os.ReadFile(path)
			if err != nil {
				out[i].Err = err
				return nil
			}
			doc, err := c.parser.Parse(string(data))
			if err != nil {
				c.logger.Debug("feature file failed to parse", "path", path, "err", err)
				out[i].Err = err
				return nil
			}
			for _, f := range doc.Features() {
				out[i].Scenarios += len(f.Scenarios())
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
