package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/techcorp/EyeSpy/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "eyespy.db"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("scan run not found")

// HistoryDB provides SQLite-based storage for scan runs.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	// foreign_keys is per connection, so it is set for every new one.
	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	dsn := dbPath + "?mode=" + mode + "&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (h *HistoryDB) createTables() error {
	schema := `
	-- One row per completed scan
	CREATE TABLE IF NOT EXISTS scan_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subnet TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		hosts_scanned INTEGER NOT NULL DEFAULT 0,
		camera_count INTEGER NOT NULL DEFAULT 0,
		record_json TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started_at);

	-- One row per camera per run
	CREATE TABLE IF NOT EXISTS sightings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
		address TEXT NOT NULL,
		http_matched INTEGER NOT NULL DEFAULT 0,
		rtsp_matched INTEGER NOT NULL DEFAULT 0,
		manufacturer TEXT,
		model TEXT,
		firmware TEXT,
		serial TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sightings_address ON sightings(address);
	CREATE INDEX IF NOT EXISTS idx_sightings_run ON sightings(run_id);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary describes a stored run without its verdicts.
type RunSummary struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Subnet is the CIDR that was scanned.
	Subnet string

	// StartedAt and FinishedAt bound the scan.
	StartedAt  time.Time
	FinishedAt time.Time

	// HostsScanned is the number of classified addresses.
	HostsScanned int

	// CameraCount is the number of positive verdicts.
	CameraCount int
}

// Sighting is one appearance of an address in a stored run.
type Sighting struct {
	RunID       int64
	StartedAt   time.Time
	Address     string
	HTTPMatched bool
	RTSPMatched bool
	DeviceInfo  *model.DeviceInfo
}

// SaveRun stores record and its sightings in one transaction and returns
// the new run ID.
func (h *HistoryDB) SaveRun(ctx context.Context, record *model.ScanRecord) (int64, error) {
	if record == nil {
		return 0, errors.New("record is nil")
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize record: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT INTO scan_runs (subnet, started_at, finished_at, hosts_scanned, camera_count, record_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		record.Subnet,
		formatTimestamp(record.StartedAt),
		formatTimestamp(record.FinishedAt),
		record.HostsScanned,
		len(record.Verdicts),
		string(recordJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO sightings (run_id, address, http_matched, rtsp_matched, manufacturer, model, firmware, serial)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare sighting insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range record.Verdicts {
		var manufacturer, mdl, firmware, serial sql.NullString
		if info := v.DeviceInfo; info != nil {
			manufacturer = sql.NullString{String: info.Manufacturer, Valid: true}
			mdl = sql.NullString{String: info.Model, Valid: true}
			firmware = sql.NullString{String: info.Firmware, Valid: true}
			serial = sql.NullString{String: info.Serial, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, runID, v.Address, v.HTTPMatched, v.RTSPMatched,
			manufacturer, mdl, firmware, serial); err != nil {
			return 0, fmt.Errorf("failed to save sighting for %s: %w", v.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scan run: %w", err)
	}
	return runID, nil
}

// ListRuns returns up to limit run summaries, newest first.
// A limit of zero or less returns every run.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, subnet, started_at, finished_at, hosts_scanned, camera_count
	FROM scan_runs
	ORDER BY started_at DESC, id DESC
	`
	args := make([]interface{}, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var s RunSummary
		var started, finished string
		if err := rows.Scan(&s.ID, &s.Subnet, &started, &finished, &s.HostsScanned, &s.CameraCount); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		s.StartedAt = parseTimestamp(started)
		s.FinishedAt = parseTimestamp(finished)
		results = append(results, s)
	}

	return results, rows.Err()
}

// GetRun returns the full record stored under id.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*model.ScanRecord, error) {
	var recordJSON string
	err := h.db.QueryRowContext(ctx, `SELECT record_json FROM scan_runs WHERE id = ?`, id).Scan(&recordJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan run: %w", err)
	}

	var record model.ScanRecord
	if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
		return nil, fmt.Errorf("failed to parse scan run: %w", err)
	}
	if record.Verdicts == nil {
		record.Verdicts = make([]model.HostVerdict, 0)
	}
	return &record, nil
}

// Sightings returns every stored appearance of address, newest first.
func (h *HistoryDB) Sightings(ctx context.Context, address string) ([]Sighting, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT s.run_id, r.started_at, s.address, s.http_matched, s.rtsp_matched,
		s.manufacturer, s.model, s.firmware, s.serial
	FROM sightings s
	JOIN scan_runs r ON r.id = s.run_id
	WHERE s.address = ?
	ORDER BY r.started_at DESC, s.run_id DESC
	`, address)
	if err != nil {
		return nil, fmt.Errorf("failed to query sightings: %w", err)
	}
	defer rows.Close()

	var results []Sighting
	for rows.Next() {
		var s Sighting
		var started string
		var manufacturer, mdl, firmware, serial sql.NullString
		if err := rows.Scan(&s.RunID, &started, &s.Address, &s.HTTPMatched, &s.RTSPMatched,
			&manufacturer, &mdl, &firmware, &serial); err != nil {
			return nil, fmt.Errorf("failed to scan sighting: %w", err)
		}
		s.StartedAt = parseTimestamp(started)
		if manufacturer.Valid {
			s.DeviceInfo = &model.DeviceInfo{
				Manufacturer: manufacturer.String,
				Model:        mdl.String,
				Firmware:     firmware.String,
				Serial:       serial.String,
			}
		}
		results = append(results, s)
	}

	return results, rows.Err()
}

// timestampLayout has a fixed-width fraction so that, in UTC, lexical
// order in SQL matches chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,           // written by formatTimestamp
	time.RFC3339Nano,          // RFC3339 with nanoseconds
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
