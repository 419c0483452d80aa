package sqlite

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/wikidex/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/core/ports/driven"
)

// docSequence is the id_sequences row backing document id allocation.
const docSequence = "documents"

// DocStore is a SQLite-backed document store. Article text is stored
// gzip-compressed; a full dump holds millions of passages and the body
// column dominates the file size.
type DocStore struct {
	db   *sql.DB
	path string
}

var _ driven.DocumentStore = (*DocStore)(nil)

// NewDocStore opens (or creates) the document database in dataDir.
// If dataDir is empty, defaults to ~/.wikidex/data/documents.db.
func NewDocStore(dataDir string) (*DocStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".wikidex", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "documents.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &DocStore{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *DocStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *DocStore) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *DocStore) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_documents.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// NextIDs reserves n consecutive ids and returns the first. The counter
// row is advanced in the same transaction, so reserved ids are never
// reissued even when the caller crashes before writing records.
func (s *DocStore) NextIDs(ctx context.Context, n int) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("reserving %d ids", n)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var first int64
	row := tx.QueryRowContext(ctx,
		"SELECT next_id FROM id_sequences WHERE name = ?", docSequence)
	if err := row.Scan(&first); err != nil {
		return 0, fmt.Errorf("reading id sequence: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE id_sequences SET next_id = ? WHERE name = ?",
		first+int64(n), docSequence); err != nil {
		return 0, fmt.Errorf("advancing id sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return first, nil
}

// PutBatch inserts the given records in a single transaction.
func (s *DocStore) PutBatch(ctx context.Context, records []domain.DocumentRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, title, body, access_date, modified_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			access_date = excluded.access_date,
			modified_date = excluded.modified_date
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		body, err := compress(r.Text)
		if err != nil {
			return fmt.Errorf("compressing document %d: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Title, body,
			r.AccessDate.UTC(), r.ModifiedDate.UTC()); err != nil {
			return fmt.Errorf("saving document %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get returns the record stored under id, or domain.ErrNotFound.
func (s *DocStore) Get(ctx context.Context, id int64) (domain.DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, body, access_date, modified_date
		FROM documents WHERE id = ?
	`, id)
	return scanRecord(row, id)
}

// GetBatch returns one record per id, in input order. Any absent id
// fails the whole call with domain.ErrNotFound.
func (s *DocStore) GetBatch(ctx context.Context, ids []int64) ([]domain.DocumentRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	stmt, err := s.db.PrepareContext(ctx, `
		SELECT id, title, body, access_date, modified_date
		FROM documents WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	records := make([]domain.DocumentRecord, 0, len(ids))
	for _, id := range ids {
		record, err := scanRecord(stmt.QueryRowContext(ctx, id), id)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// IDs lists every stored record id in ascending order.
func (s *DocStore) IDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying ids: %w", err)
	}
	defer rows.Close()

	var ids []int64 //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}
	return ids, nil
}

// Delete removes the records stored under the given ids.
func (s *DocStore) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM documents WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("deleting document %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// scanRecord scans a single document row, decompressing the body.
func scanRecord(row *sql.Row, id int64) (domain.DocumentRecord, error) {
	var record domain.DocumentRecord
	var body []byte
	if err := row.Scan(&record.ID, &record.Title, &body,
		&record.AccessDate, &record.ModifiedDate); err != nil {
		if err == sql.ErrNoRows {
			return domain.DocumentRecord{}, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
		}
		return domain.DocumentRecord{}, fmt.Errorf("scanning document: %w", err)
	}

	text, err := decompress(body)
	if err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("decompressing document %d: %w", id, err)
	}
	record.Text = text
	return record, nil
}

// compress gzips the document text for storage.
func compress(text string) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(text)); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompress restores document text from its stored form.
func decompress(body []byte) (string, error) {
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer zr.Close()

	text, err := io.ReadAll(zr)
	if err != nil {
		return "", err
	}
	return string(text), nil
}
