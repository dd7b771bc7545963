// Package sqlite provides a SQLite-backed patterns.Driver. Cosine similarity for
// semantic search is computed in the database by the sqlite-vec extension.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns/vecfmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS patterns (
	id             INTEGER PRIMARY KEY,
	file_name      TEXT NOT NULL,
	file_extension TEXT NOT NULL DEFAULT '',
	author         TEXT,
	author_notes   TEXT,
	notes          TEXT,
	thumbnail_url  TEXT,
	embedding      BLOB
);

CREATE TABLE IF NOT EXISTS pattern_similarities (
	pattern_id_1 INTEGER NOT NULL,
	pattern_id_2 INTEGER NOT NULL,
	similarity   REAL NOT NULL,
	PRIMARY KEY (pattern_id_1, pattern_id_2),
	CHECK (pattern_id_1 < pattern_id_2)
);

CREATE INDEX IF NOT EXISTS pattern_similarities_similarity_idx
	ON pattern_similarities (similarity DESC);
`

const (
	summaryColumns = `id, file_name, file_extension, author, thumbnail_url`
	patternColumns = `id, file_name, file_extension, author, author_notes, notes, thumbnail_url`
)

// Driver implements patterns.Driver and patterns.SimilarityIndexer using SQLite.
type Driver struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDriver opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func NewDriver(dbPath string, logger *slog.Logger) (*Driver, error) {
	// enable connections to load the sqlite-vec extension
	sqlite_vec.Auto()

	if dbPath == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("sqlite pattern driver initialized",
		"db_path", dbPath,
		"vec_version", vecVersion,
	)

	return &Driver{
		db:     db,
		logger: logger,
	}, nil
}

// Put inserts or replaces a pattern.
func (d *Driver) Put(ctx context.Context, p *patterns.Pattern) error {
	if p == nil {
		return errors.New("cannot store nil pattern")
	}

	var embedding []byte
	if len(p.Embedding) > 0 {
		embedding = vecfmt.Blob(p.Embedding)
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO patterns (id, file_name, file_extension, author, author_notes, notes, thumbnail_url, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.FileName, p.FileExtension, p.Author, p.AuthorNotes, p.Notes, p.ThumbnailURL, embedding,
	)
	if err != nil {
		return fmt.Errorf("upserting pattern %d: %w", p.ID, err)
	}
	return nil
}

// FindDuplicates reads the precomputed similarity index.
func (d *Driver) FindDuplicates(ctx context.Context, threshold float64, limit int) ([]patterns.CandidatePair, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT pattern_id_1, pattern_id_2, similarity
		FROM pattern_similarities
		WHERE similarity >= ?
		ORDER BY similarity DESC, pattern_id_1, pattern_id_2
		LIMIT ?`,
		threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying duplicate patterns: %w", err)
	}
	defer rows.Close()

	pairs := make([]patterns.CandidatePair, 0)
	for rows.Next() {
		var pair patterns.CandidatePair
		if err := rows.Scan(&pair.PatternIDA, &pair.PatternIDB, &pair.Similarity); err != nil {
			return nil, fmt.Errorf("scanning duplicate pattern: %w", err)
		}
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duplicate patterns: %w", err)
	}
	return pairs, nil
}

// Summaries fetches display metadata for ids.
func (d *Driver) Summaries(ctx context.Context, ids []int64) ([]patterns.Summary, error) {
	if len(ids) == 0 {
		return []patterns.Summary{}, nil
	}

	placeholders, args := inClause(ids)
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM patterns WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pattern summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]patterns.Summary, 0, len(ids))
	for rows.Next() {
		var s patterns.Summary
		if err := rows.Scan(&s.ID, &s.FileName, &s.FileExtension, &s.Author, &s.ThumbnailURL); err != nil {
			return nil, fmt.Errorf("scanning pattern summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pattern summaries: %w", err)
	}
	return summaries, nil
}

// Patterns fetches full records for ids.
func (d *Driver) Patterns(ctx context.Context, ids []int64) ([]patterns.Pattern, error) {
	if len(ids) == 0 {
		return []patterns.Pattern{}, nil
	}

	placeholders, args := inClause(ids)
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+patternColumns+` FROM patterns WHERE id IN (`+placeholders+`) ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying patterns: %w", err)
	}
	defer rows.Close()

	ps := make([]patterns.Pattern, 0, len(ids))
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating patterns: %w", err)
	}
	return ps, nil
}

// Delete removes a pattern and its similarity rows in one transaction.
func (d *Driver) Delete(ctx context.Context, id int64) (*patterns.Pattern, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := scanPattern(tx.QueryRowContext(ctx,
		`SELECT `+patternColumns+` FROM patterns WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, patterns.NotFoundError{ID: id}
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pattern_similarities WHERE pattern_id_1 = ? OR pattern_id_2 = ?`, id, id,
	); err != nil {
		return nil, fmt.Errorf("deleting similarities for pattern %d: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM patterns WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting pattern %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return &p, nil
}

// Search orders patterns by sqlite-vec cosine distance to embedding.
func (d *Driver) Search(ctx context.Context, embedding []float32, limit int) ([]patterns.SearchResult, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+summaryColumns+`, 1 - vec_distance_cosine(embedding, ?) AS score
		FROM patterns
		WHERE embedding IS NOT NULL AND length(embedding) = ?
		ORDER BY score DESC, id
		LIMIT ?`,
		vecfmt.Blob(embedding), len(embedding)*4, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching patterns: %w", err)
	}
	defer rows.Close()

	results := make([]patterns.SearchResult, 0, limit)
	for rows.Next() {
		var r patterns.SearchResult
		if err := rows.Scan(&r.ID, &r.FileName, &r.FileExtension, &r.Author, &r.ThumbnailURL, &r.Score); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	d.logger.Debug("searched sqlite patterns", "results", len(results))
	return results, nil
}

// Embeddings returns every stored embedding, ordered by id.
func (d *Driver) Embeddings(ctx context.Context) ([]patterns.EmbeddingRow, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, embedding FROM patterns WHERE embedding IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var result []patterns.EmbeddingRow
	for rows.Next() {
		var (
			id   int64
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		v, err := vecfmt.ParseBlob(blob)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", id, err)
		}
		result = append(result, patterns.EmbeddingRow{ID: id, Embedding: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}
	return result, nil
}

// MissingEmbeddings returns up to limit patterns that have a thumbnail but no
// embedding, ordered by id.
func (d *Driver) MissingEmbeddings(ctx context.Context, limit int) ([]patterns.Pattern, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+patternColumns+` FROM patterns
		WHERE embedding IS NULL AND thumbnail_url IS NOT NULL
		ORDER BY id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying patterns without embeddings: %w", err)
	}
	defer rows.Close()

	ps := make([]patterns.Pattern, 0, limit)
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating patterns without embeddings: %w", err)
	}
	return ps, nil
}

// SetEmbedding stores the embedding of an existing pattern.
func (d *Driver) SetEmbedding(ctx context.Context, id int64, embedding []float32) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE patterns SET embedding = ? WHERE id = ?`, vecfmt.Blob(embedding), id)
	if err != nil {
		return fmt.Errorf("updating embedding of pattern %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating embedding of pattern %d: %w", id, err)
	}
	if n == 0 {
		return patterns.NotFoundError{ID: id}
	}
	return nil
}

// ReplaceSimilarities swaps the similarity index inside one transaction.
func (d *Driver) ReplaceSimilarities(ctx context.Context, pairs []patterns.CandidatePair) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pattern_similarities`); err != nil {
		return fmt.Errorf("clearing similarities: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO pattern_similarities (pattern_id_1, pattern_id_2, similarity) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pairs {
		if _, err := stmt.ExecContext(ctx, p.PatternIDA, p.PatternIDB, p.Similarity); err != nil {
			return fmt.Errorf("inserting similarity %d-%d: %w", p.PatternIDA, p.PatternIDB, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("replaced similarity index", "pairs", len(pairs))
	return nil
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPattern(row scanner) (patterns.Pattern, error) {
	var p patterns.Pattern
	if err := row.Scan(&p.ID, &p.FileName, &p.FileExtension, &p.Author, &p.AuthorNotes, &p.Notes, &p.ThumbnailURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scanning pattern: %w", err)
	}
	return p, nil
}

func inClause(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

var (
	_ patterns.Driver            = (*Driver)(nil)
	_ patterns.SimilarityIndexer = (*Driver)(nil)
	_ patterns.EmbeddingWriter   = (*Driver)(nil)
)
