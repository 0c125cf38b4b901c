package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// FetchRecord describes one attempt to read a content API endpoint.
type FetchRecord struct {
	StatusCode   int
	ItemCount    int
	ErrorType    string
	ErrorMessage string
	FromCache    bool
	Duration     time.Duration
}

// Fetch is a FetchRecord joined with its source, as listed by ListFetches.
type Fetch struct {
	FetchID      int64
	URL          string
	Report       string
	StatusCode   int
	ItemCount    int
	ErrorType    string
	ErrorMessage string
	FromCache    bool
	DurationMS   int64
	FetchedAt    time.Time
}

// InsertSource parses and inserts a source URL, returning the source_id.
// If the URL already exists, returns the existing source_id.
func (db *DB) InsertSource(rawURL, report string) (int64, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}

	var existingID int64
	err = db.QueryRow("SELECT source_id FROM sources WHERE url = ?", rawURL).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing source: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO sources (url, domain, path, report)
		VALUES (?, ?, ?, ?)
	`, rawURL, parsed.Host, parsed.Path, report)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source: %w", err)
	}

	sourceID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get source ID: %w", err)
	}
	return sourceID, nil
}

// RecordFetch stores one fetch attempt for sourceID.
func (db *DB) RecordFetch(sourceID int64, rec FetchRecord) error {
	_, err := db.Exec(`
		INSERT INTO fetches (source_id, status_code, item_count, error_type, error_message, from_cache, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sourceID, rec.StatusCode, rec.ItemCount, NewNullString(rec.ErrorType), NewNullString(rec.ErrorMessage),
		rec.FromCache, rec.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record fetch: %w", err)
	}
	return nil
}

const selectFetches = `
	SELECT f.fetch_id, s.url, COALESCE(s.report, ''), f.status_code, f.item_count,
	       f.error_type, f.error_message, f.from_cache, f.duration_ms, f.fetched_at
	FROM fetches f
	JOIN sources s ON s.source_id = f.source_id
`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFetch(row scanner) (Fetch, error) {
	var f Fetch
	var errorType, errorMessage sql.NullString
	if err := row.Scan(&f.FetchID, &f.URL, &f.Report, &f.StatusCode, &f.ItemCount,
		&errorType, &errorMessage, &f.FromCache, &f.DurationMS, &f.FetchedAt); err != nil {
		return f, err
	}
	f.ErrorType = errorType.String
	f.ErrorMessage = errorMessage.String
	return f, nil
}

// GetFetch returns one fetch attempt by ID.
func (db *DB) GetFetch(fetchID int64) (*Fetch, error) {
	f, err := scanFetch(db.QueryRow(selectFetches+" WHERE f.fetch_id = ?", fetchID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fetch %d not found", fetchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fetch: %w", err)
	}
	return &f, nil
}

// ListFetches returns fetch attempts, most recent first.
func (db *DB) ListFetches(limit int) ([]Fetch, error) {
	query := selectFetches + " ORDER BY f.fetch_id DESC"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fetches: %w", err)
	}
	defer rows.Close()

	var fetches []Fetch
	for rows.Next() {
		f, err := scanFetch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fetch: %w", err)
		}
		fetches = append(fetches, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fetches: %w", err)
	}

	return fetches, nil
}

// NewNullString maps "" to SQL NULL.
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
