package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"callcheck/internal/config"
	"callcheck/internal/request"
	"callcheck/internal/services"
)

// Store persists analysis request records in SQLite. Every Put replaces the
// whole stored representation; there are no partial updates and no
// conditional writes, so concurrent writers race last-writer-wins.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the metadata database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "metadata.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location for diagnostics.
func (s *Store) Path() string { return s.path }

const recordColumns = "request_id, audio_url, file_type, sentences_json, status, created, updated, transcript_path"

// Put persists the full record, overwriting any existing representation. The
// record's Updated timestamp is refreshed as part of the write.
func (s *Store) Put(ctx context.Context, rec *request.Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	rec.Updated = time.Now().UTC()
	enc, err := request.Encode(rec)
	if err != nil {
		return services.Wrap(services.ErrStorage, "metastore", "encode record", rec.ID, err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		enc.RequestID,
		enc.AudioURL,
		enc.FileType,
		enc.SentencesJSON,
		enc.Status,
		enc.Created,
		enc.Updated,
		nullableString(enc.TranscriptPath),
	)
	if err != nil {
		return services.Wrap(services.ErrStorage, "metastore", "put record", rec.ID, err)
	}
	return nil
}

// Get retrieves a record by identifier, coercing the stored primitive fields
// back into native types.
func (s *Store) Get(ctx context.Context, id string) (*request.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE request_id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "metastore", "get record", id, nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "metastore", "get record", id, err)
	}
	return rec, nil
}

// List returns records filtered by status set (or all records when no status
// is provided), ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...request.Status) ([]*request.Record, error) {
	baseQuery := `SELECT ` + recordColumns + ` FROM records`
	orderClause := ` ORDER BY created`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = string(status)
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "metastore", "list records", "", err)
	}
	defer rows.Close()

	var records []*request.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "metastore", "scan record", "", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats returns a count of records grouped by status.
func (s *Store) Stats(ctx context.Context) (map[request.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM records GROUP BY status`)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "metastore", "record stats", "", err)
	}
	defer rows.Close()

	stats := make(map[request.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[request.Status(status)] = count
	}
	return stats, rows.Err()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*request.Record, error) {
	var (
		enc            request.Encoded
		transcriptPath sql.NullString
	)
	if err := scanner.Scan(
		&enc.RequestID,
		&enc.AudioURL,
		&enc.FileType,
		&enc.SentencesJSON,
		&enc.Status,
		&enc.Created,
		&enc.Updated,
		&transcriptPath,
	); err != nil {
		return nil, err
	}
	enc.TranscriptPath = transcriptPath.String
	return request.Decode(enc)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
