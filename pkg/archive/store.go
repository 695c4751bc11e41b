package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stocktide/stockwatch/pkg/model"

	_ "modernc.org/sqlite"
)

const (
	defaultSnapshotName = "full_inventory.json"
	reportsDir          = "reports"
)

// DirStore implements Store on a single base directory: a fixed-name
// JSON file for the latest raw payload, reports/ for dated CSVs, and
// runs.db for the ledger.
type DirStore struct {
	base     string
	snapshot string
	db       *sql.DB
}

// NewDirStore opens or creates an archive rooted at dir. An empty
// snapshotName falls back to full_inventory.json.
func NewDirStore(dir, snapshotName string) (*DirStore, error) {
	if snapshotName == "" {
		snapshotName = defaultSnapshotName
	}
	if err := os.MkdirAll(filepath.Join(dir, reportsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, "runs.db")
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open run ledger: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DirStore{base: dir, snapshot: snapshotName, db: db}, nil
}

// SaveSnapshot overwrites the snapshot file with the raw fetched
// payload.
func (s *DirStore) SaveSnapshot(data []byte) (string, error) {
	path := filepath.Join(s.base, s.snapshot)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// SaveReport writes a report CSV under reports/ and returns its path.
func (s *DirStore) SaveReport(filename string, data []byte) (string, error) {
	path := filepath.Join(s.base, reportsDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", filename, err)
	}
	return path, nil
}

// RecordRun persists one ledger entry, filling in the ID and start time
// when the caller left them empty.
func (s *DirStore) RecordRun(ctx context.Context, run *model.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, site, started_at, records_fetched, rows_flattened, urgent_count, warning_count, alert_sites, report_rows, delivered, report_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Site, run.StartedAt,
		run.RecordsFetched, run.RowsFlattened,
		run.UrgentCount, run.WarningCount, run.AlertSites,
		run.ReportRows, run.Delivered, run.ReportPath,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns ledger entries matching the filter, newest first.
func (s *DirStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, site, started_at, records_fetched, rows_flattened, urgent_count, warning_count, alert_sites, report_rows, delivered, report_path FROM runs`
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		if err := rows.Scan(&r.ID, &r.Site, &r.StartedAt, &r.RecordsFetched, &r.RowsFlattened,
			&r.UrgentCount, &r.WarningCount, &r.AlertSites, &r.ReportRows, &r.Delivered, &r.ReportPath); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the run ledger database.
func (s *DirStore) Close() error {
	return s.db.Close()
}

// buildWhereClause constructs a SQL WHERE clause from a RunFilter.
func buildWhereClause(filter RunFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Site != "" {
		conditions = append(conditions, "site = ?")
		args = append(args, filter.Site)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, filter.Since)
	}

	return strings.Join(conditions, " AND "), args
}
