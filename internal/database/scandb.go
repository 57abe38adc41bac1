package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pagescan/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "pagescan.db"

// ErrNotEnoughScans reports that a source has fewer stored scans than a
// comparison needs.
var ErrNotEnoughScans = errors.New("not enough scans")

// ScanDB stores completed scans and their outcomes.
type ScanDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ScanDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScanDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ScanDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScanDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *ScanDB) Close() error {
	return sdb.db.Close()
}

// Path returns the database file path.
func (sdb *ScanDB) Path() string {
	return sdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (sdb *ScanDB) createTables() error {
	schema := `
	-- One row per completed scan
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		submitted INTEGER NOT NULL,
		matched INTEGER NOT NULL,
		unmatched INTEGER NOT NULL,
		errored INTEGER NOT NULL,
		integrity_error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_scans_source ON scans(source);

	-- One row per URL outcome of a scan
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id INTEGER NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
		ordinal INTEGER NOT NULL,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		detail TEXT,
		final_url TEXT,
		status_code INTEGER,
		title TEXT,
		digest TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_scan ON outcomes(scan_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_url ON outcomes(url);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// ScanSummary is a stored scan without its outcomes.
type ScanSummary struct {
	ID             int64     `json:"id"`
	Source         string    `json:"source"`
	Target         string    `json:"target"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Submitted      int       `json:"submitted"`
	Matched        int       `json:"matched"`
	Unmatched      int       `json:"unmatched"`
	Errored        int       `json:"errored"`
	IntegrityError string    `json:"integrity_error,omitempty"`
}

// SaveScan stores a report and all its outcomes in one transaction and
// returns the new scan ID.
func (sdb *ScanDB) SaveScan(ctx context.Context, report *model.ScanReport) (int64, error) {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO scans (source, target, started_at, finished_at, submitted, matched, unmatched, errored, integrity_error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Source,
		report.Target,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		report.Submitted,
		len(report.Matched),
		len(report.Unmatched),
		len(report.Errored),
		nullString(report.IntegrityError),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get scan ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO outcomes (scan_id, ordinal, url, kind, detail, final_url, status_code, title, digest)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, kind := range model.OutcomeKinds {
		for _, e := range report.Bucket(kind) {
			_, err := stmt.ExecContext(ctx,
				id, e.Ordinal, e.URL, kind.String(),
				nullString(e.Detail), nullString(e.FinalURL), e.StatusCode,
				nullString(e.Title), nullString(e.Digest),
			)
			if err != nil {
				return 0, fmt.Errorf("failed to save outcome for %s: %w", e.URL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scan: %w", err)
	}
	return id, nil
}

// ListScans returns the most recent scans, newest first.
// A limit of zero or less returns every scan.
func (sdb *ScanDB) ListScans(ctx context.Context, limit int) ([]ScanSummary, error) {
	query := `
	SELECT id, source, target, started_at, finished_at, submitted, matched, unmatched, errored, integrity_error
	FROM scans
	ORDER BY id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return sdb.querySummaries(ctx, query, args...)
}

// ListSources returns every source that has at least one stored scan.
func (sdb *ScanDB) ListSources(ctx context.Context) ([]string, error) {
	rows, err := sdb.db.QueryContext(ctx, `SELECT DISTINCT source FROM scans ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// GetScan loads a scan and its outcomes. It returns nil, nil when no scan
// has the ID.
func (sdb *ScanDB) GetScan(ctx context.Context, id int64) (*model.ScanReport, error) {
	summaries, err := sdb.querySummaries(ctx, `
	SELECT id, source, target, started_at, finished_at, submitted, matched, unmatched, errored, integrity_error
	FROM scans
	WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}
	return sdb.loadReport(ctx, summaries[0])
}

// LatestScans loads the n most recent scans of source, newest first.
func (sdb *ScanDB) LatestScans(ctx context.Context, source string, n int) ([]*model.ScanReport, error) {
	summaries, err := sdb.querySummaries(ctx, `
	SELECT id, source, target, started_at, finished_at, submitted, matched, unmatched, errored, integrity_error
	FROM scans
	WHERE source = ?
	ORDER BY id DESC
	LIMIT ?
	`, source, n)
	if err != nil {
		return nil, err
	}

	reports := make([]*model.ScanReport, 0, len(summaries))
	for _, s := range summaries {
		report, err := sdb.loadReport(ctx, s)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// querySummaries runs a scans query and scans the rows.
func (sdb *ScanDB) querySummaries(ctx context.Context, query string, args ...any) ([]ScanSummary, error) {
	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var results []ScanSummary
	for rows.Next() {
		var (
			s                 ScanSummary
			started, finished string
			integrity         sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Source, &s.Target, &started, &finished,
			&s.Submitted, &s.Matched, &s.Unmatched, &s.Errored, &integrity); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		s.StartedAt = parseTimestamp(started)
		s.FinishedAt = parseTimestamp(finished)
		s.IntegrityError = integrity.String
		results = append(results, s)
	}

	return results, rows.Err()
}

// loadReport rebuilds a ScanReport from a summary and its outcome rows.
func (sdb *ScanDB) loadReport(ctx context.Context, s ScanSummary) (*model.ScanReport, error) {
	report := &model.ScanReport{
		ID:             s.ID,
		Source:         s.Source,
		Target:         s.Target,
		StartedAt:      s.StartedAt,
		FinishedAt:     s.FinishedAt,
		Submitted:      s.Submitted,
		Matched:        []model.Entry{},
		Unmatched:      []model.Entry{},
		Errored:        []model.Entry{},
		IntegrityError: s.IntegrityError,
	}

	rows, err := sdb.db.QueryContext(ctx, `
	SELECT ordinal, url, kind, detail, final_url, status_code, title, digest
	FROM outcomes
	WHERE scan_id = ?
	ORDER BY ordinal, id
	`, s.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e                                   model.Entry
			kindName                            string
			detail, finalURL, title, digestText sql.NullString
			status                              sql.NullInt64
		)
		if err := rows.Scan(&e.Ordinal, &e.URL, &kindName, &detail, &finalURL, &status, &title, &digestText); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		kind, err := model.ParseOutcomeKind(kindName)
		if err != nil {
			return nil, fmt.Errorf("scan %d: %w", s.ID, err)
		}
		e.Detail = detail.String
		e.FinalURL = finalURL.String
		e.StatusCode = int(status.Int64)
		e.Title = title.String
		e.Digest = digestText.String

		switch kind {
		case model.Matched:
			report.Matched = append(report.Matched, e)
		case model.Unmatched:
			report.Unmatched = append(report.Unmatched, e)
		case model.Errored:
			report.Errored = append(report.Errored, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return report, nil
}

// nullString stores empty strings as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// formatTimestamp stores times as UTC RFC 3339 with nanoseconds.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Format written by formatTimestamp
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
