// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists per-article fetch outcomes in a SQLite
// database so later runs and the status command can query what the
// pipeline produced.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/OscarGarciaF/SB-publications/pkg/types"
)

// DBName is the catalog filename inside the output directory.
const DBName = "catalog.db"

// Store manages the fetch catalog database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog database at path, creating the
// schema if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS articles (
		pmcid TEXT PRIMARY KEY,
		title TEXT,
		source_url TEXT,
		route TEXT,
		size_bytes INTEGER,
		status TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Record upserts one article outcome. A skipped outcome never
// overwrites an earlier downloaded record's route and size; it only
// refreshes the timestamp.
func (s *Store) Record(ctx context.Context, a types.Article) error {
	fetchedAt := a.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	if a.Status == types.StatusSkipped {
		res, err := s.db.ExecContext(ctx,
			`UPDATE articles SET fetched_at = ? WHERE pmcid = ? AND status = ?`,
			fetchedAt.UTC().Format(time.RFC3339), a.PMCID, string(types.StatusDownloaded),
		)
		if err != nil {
			return fmt.Errorf("refreshing %s: %w", a.PMCID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO articles (pmcid, title, source_url, route, size_bytes, status, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(pmcid) DO UPDATE SET
			title=excluded.title, source_url=excluded.source_url, route=excluded.route,
			size_bytes=excluded.size_bytes, status=excluded.status, fetched_at=excluded.fetched_at`,
		a.PMCID, a.Title, a.SourceURL, string(a.Route), a.SizeBytes,
		string(a.Status), fetchedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", a.PMCID, err)
	}
	return nil
}

// Summary counts catalog records by status.
func (s *Store) Summary(ctx context.Context) (map[types.FetchStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM articles GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.FetchStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		counts[types.FetchStatus(status)] = n
	}
	return counts, rows.Err()
}

// List returns catalog records with the given status, ordered by PMCID.
// An empty status returns everything.
func (s *Store) List(ctx context.Context, status types.FetchStatus) ([]types.Article, error) {
	query := `SELECT pmcid, title, source_url, route, size_bytes, status, fetched_at
		FROM articles ORDER BY pmcid`
	args := []any{}
	if status != "" {
		query = `SELECT pmcid, title, source_url, route, size_bytes, status, fetched_at
			FROM articles WHERE status = ? ORDER BY pmcid`
		args = append(args, string(status))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []types.Article
	for rows.Next() {
		var a types.Article
		var route, st, fetchedAt string
		if err := rows.Scan(&a.PMCID, &a.Title, &a.SourceURL, &route, &a.SizeBytes, &st, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}
		a.Route = types.FetchRoute(route)
		a.Status = types.FetchStatus(st)
		if t, perr := time.Parse(time.RFC3339, fetchedAt); perr == nil {
			a.FetchedAt = t
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// ExportYAML writes every catalog record to path as a YAML document.
func (s *Store) ExportYAML(ctx context.Context, path string) error {
	articles, err := s.List(ctx, "")
	if err != nil {
		return err
	}

	export := struct {
		GeneratedAt time.Time       `yaml:"generated_at"`
		Articles    []types.Article `yaml:"articles"`
	}{
		GeneratedAt: time.Now().UTC(),
		Articles:    articles,
	}

	data, err := yaml.Marshal(export)
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}
