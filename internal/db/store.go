package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oss-specs/specs/internal/parser"
)

var ErrNotFound = errors.New("not found")

// Store indexes parsed feature files. It satisfies catalog.Sink.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Scenario is one indexed block, background included.
type Scenario struct {
	ID       int64
	Path     string
	FileName string
	Token    parser.Token
	Name     string
	Line     int
	Steps    int
	Content  string
	Tags     []string // file tags followed by the block's own
}

// Run is one sync run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      int
}

// Save replaces everything stored for pf.Path. It reports whether the path
// was new.
func (s *Store) Save(ctx context.Context, pf *parser.ParsedFile) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	var fileID int64
	isNew := false
	err = tx.QueryRowContext(ctx, `SELECT id FROM files WHERE file_path = ?`, pf.Path).Scan(&fileID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx, `INSERT INTO files (file_path, name) VALUES (?, ?)`, pf.Path, pf.Name)
		if err != nil {
			return false, fmt.Errorf("inserting %s: %w", pf.Path, err)
		}
		if fileID, err = res.LastInsertId(); err != nil {
			return false, fmt.Errorf("inserting %s: %w", pf.Path, err)
		}
		isNew = true
	case err != nil:
		return false, fmt.Errorf("querying %s: %w", pf.Path, err)
	default:
		if _, err := tx.ExecContext(ctx, `UPDATE files SET name = ?, updated_at = datetime('now') WHERE id = ?`, pf.Name, fileID); err != nil {
			return false, fmt.Errorf("updating %s: %w", pf.Path, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM scenarios WHERE file_id = ?`, fileID); err != nil {
			return false, fmt.Errorf("clearing %s: %w", pf.Path, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE file_id = ?`, fileID); err != nil {
			return false, fmt.Errorf("clearing tags of %s: %w", pf.Path, err)
		}
	}

	for _, tag := range pf.Tags {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tags (file_id, name) VALUES (?, ?)`, fileID, tag); err != nil {
			return false, fmt.Errorf("inserting tag %s: %w", tag, err)
		}
	}

	for _, sc := range pf.Scenarios {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO scenarios (file_id, token, name, line, steps, content) VALUES (?, ?, ?, ?, ?, ?)`,
			fileID, string(sc.Token), sc.Name, sc.Line, sc.Steps, sc.Content)
		if err != nil {
			return false, fmt.Errorf("inserting scenario %q: %w", sc.Name, err)
		}
		scenarioID, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("inserting scenario %q: %w", sc.Name, err)
		}
		for _, tag := range sc.Tags {
			if _, err := tx.ExecContext(ctx, `INSERT INTO tags (file_id, scenario_id, name) VALUES (?, ?, ?)`, fileID, scenarioID, tag); err != nil {
				return false, fmt.Errorf("inserting tag %s: %w", tag, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing %s: %w", pf.Path, err)
	}
	return isNew, nil
}

// Prune deletes every file not in keep and returns the deleted paths.
func (s *Store) Prune(ctx context.Context, keep []string) ([]string, error) {
	known := make(map[string]bool, len(keep))
	for _, p := range keep {
		known[p] = true
	}

	rows, err := s.db.QueryContext(ctx, `SELECT file_path FROM files ORDER BY file_path`)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	var gone []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		if !known[p] {
			gone = append(gone, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}

	for _, p := range gone {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE file_path = ?`, p); err != nil {
			return nil, fmt.Errorf("deleting %s: %w", p, err)
		}
	}
	return gone, nil
}

const scenarioSelect = `
	SELECT s.id, f.file_path, s.token, s.name, s.line, s.steps, s.content,
		COALESCE((SELECT group_concat(name, ' ') FROM (
			SELECT name FROM tags WHERE file_id = f.id AND scenario_id IS NULL ORDER BY id)), ''),
		COALESCE((SELECT group_concat(name, ' ') FROM (
			SELECT name FROM tags WHERE scenario_id = s.id ORDER BY id)), '')
	FROM scenarios s
	JOIN files f ON s.file_id = f.id`

// Scenarios returns every indexed block ordered by file and line.
func (s *Store) Scenarios(ctx context.Context) ([]Scenario, error) {
	rows, err := s.db.QueryContext(ctx, scenarioSelect+` ORDER BY f.file_path, s.line`)
	if err != nil {
		return nil, fmt.Errorf("querying scenarios: %w", err)
	}
	defer rows.Close()

	var out []Scenario
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scenarios: %w", err)
	}
	return out, nil
}

// Scenario returns the block with the given id, or ErrNotFound.
func (s *Store) Scenario(ctx context.Context, id int64) (Scenario, error) {
	row := s.db.QueryRowContext(ctx, scenarioSelect+` WHERE s.id = ?`, id)
	sc, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Scenario{}, fmt.Errorf("scenario %d: %w", id, ErrNotFound)
	}
	return sc, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanScenario(row scanner) (Scenario, error) {
	var (
		sc                Scenario
		token             string
		fileTags, ownTags string
	)
	err := row.Scan(&sc.ID, &sc.Path, &token, &sc.Name, &sc.Line, &sc.Steps, &sc.Content, &fileTags, &ownTags)
	if errors.Is(err, sql.ErrNoRows) {
		return sc, err
	}
	if err != nil {
		return sc, fmt.Errorf("scanning scenario: %w", err)
	}
	sc.Token = parser.Token(token)
	sc.FileName = filepath.Base(sc.Path)
	sc.Tags = append(strings.Fields(fileTags), strings.Fields(ownTags)...)
	return sc, nil
}

// Counts returns the number of indexed blocks per token.
func (s *Store) Counts(ctx context.Context) (map[parser.Token]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token, COUNT(*) FROM scenarios GROUP BY token`)
	if err != nil {
		return nil, fmt.Errorf("counting scenarios: %w", err)
	}
	defer rows.Close()

	counts := make(map[parser.Token]int)
	for rows.Next() {
		var token string
		var n int
		if err := rows.Scan(&token, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[parser.Token(token)] = n
	}
	return counts, rows.Err()
}

// StartRun records the start of a sync and returns its id.
func (s *Store) StartRun(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO sync_runs (id) VALUES (?)`, id); err != nil {
		return "", fmt.Errorf("starting sync run: %w", err)
	}
	return id, nil
}

func (s *Store) FinishRun(ctx context.Context, id string, files int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs SET finished_at = datetime('now'), files = ? WHERE id = ?`, files, id)
	if err != nil {
		return fmt.Errorf("finishing sync run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sync run %s: %w", id, ErrNotFound)
	}
	return nil
}

// LastRun returns the most recently finished sync run.
func (s *Store) LastRun(ctx context.Context) (Run, error) {
	var (
		r                 Run
		started, finished string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, files FROM sync_runs
		WHERE finished_at IS NOT NULL
		ORDER BY finished_at DESC, rowid DESC LIMIT 1`).Scan(&r.ID, &started, &finished, &r.Files)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("last sync run: %w", ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("querying last sync run: %w", err)
	}
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished)
	return r, nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
