package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dealerscout/internal/logger"
	"dealerscout/internal/models"
)

// Stats is a snapshot of table sizes.
type Stats struct {
	SchemaVersion string     `json:"schemaVersion" yaml:"schema_version"`
	Dealerships   int        `json:"dealerships" yaml:"dealerships"`
	Regions       int        `json:"regions" yaml:"regions"`
	Cars          int        `json:"cars" yaml:"cars"`
	LastCarAt     *time.Time `json:"lastCarAt,omitempty" yaml:"last_car_at,omitempty"`
}

// Stats counts dealerships, distinct regions and cars.
func (d *Database) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := d.db.QueryRowContext(ctx,
		"SELECT value FROM database_metadata WHERE key = 'schema_version'").Scan(&stats.SchemaVersion); err != nil {
		return stats, fmt.Errorf("failed to read schema version: %w", err)
	}
	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT zip_code) FROM dealerships").Scan(&stats.Dealerships, &stats.Regions); err != nil {
		return stats, fmt.Errorf("failed to count dealerships: %w", err)
	}

	var last sql.NullString
	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*), MAX(created_at) FROM cars").Scan(&stats.Cars, &last); err != nil {
		return stats, fmt.Errorf("failed to count cars: %w", err)
	}
	if last.Valid {
		if t, ok := parseTimestamp(last.String); ok {
			stats.LastCarAt = &t
		}
	}
	return stats, nil
}

// ImportLegacyDealerships copies rows from an older dealerships database
// into zip. Old files store the site in a "website" column and carry no zip
// code. The import runs once; later calls are skipped.
func (d *Database) ImportLegacyDealerships(ctx context.Context, legacyPath, zip string) (WriteResult, error) {
	var status string
	err := d.db.QueryRowContext(ctx,
		"SELECT value FROM database_metadata WHERE key = 'legacy_import_status'").Scan(&status)
	if err == nil && status == "completed" {
		logger.Info("legacy import already completed, skipping")
		return WriteResult{}, nil
	}

	if _, err := os.Stat(legacyPath); err != nil {
		return WriteResult{}, fmt.Errorf("failed to open legacy database: %w", err)
	}
	legacy, err := sql.Open("sqlite3", "file:"+legacyPath+"?mode=ro")
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to open legacy database: %w", err)
	}
	defer legacy.Close()

	column, err := legacyWebsiteColumn(ctx, legacy)
	if err != nil {
		return WriteResult{}, err
	}

	rows, err := legacy.QueryContext(ctx, fmt.Sprintf(
		"SELECT name, address, phone, %s FROM dealerships WHERE %s IS NOT NULL AND %s <> ''",
		column, column, column))
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to query legacy dealerships: %w", err)
	}
	defer rows.Close()

	var dealers []*models.Dealership
	for rows.Next() {
		var name, address, phone sql.NullString
		var website string
		if err := rows.Scan(&name, &address, &phone, &website); err != nil {
			return WriteResult{}, fmt.Errorf("failed to scan legacy row: %w", err)
		}
		dealers = append(dealers, &models.Dealership{
			Name:       name.String,
			Address:    nullString(address),
			Phone:      nullString(phone),
			WebsiteURL: website,
			ZipCode:    zip,
		})
	}
	if err := rows.Err(); err != nil {
		return WriteResult{}, fmt.Errorf("failed to read legacy dealerships: %w", err)
	}

	result, err := d.UpsertDealerships(ctx, dealers)
	if err != nil {
		return result, err
	}

	if _, err := d.db.ExecContext(ctx,
		"UPDATE database_metadata SET value = 'completed', updated_at = CURRENT_TIMESTAMP WHERE key = 'legacy_import_status'"); err != nil {
		return result, fmt.Errorf("failed to update import status: %w", err)
	}

	logger.Infof("imported %d legacy dealerships into %s (%d already present)", result.Inserted, zip, result.Skipped)
	return result, nil
}

func legacyWebsiteColumn(ctx context.Context, legacy *sql.DB) (string, error) {
	rows, err := legacy.QueryContext(ctx, "SELECT name FROM pragma_table_info('dealerships')")
	if err != nil {
		return "", fmt.Errorf("failed to inspect legacy schema: %w", err)
	}
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", fmt.Errorf("failed to inspect legacy schema: %w", err)
		}
		found[name] = true
	}
	switch {
	case found["website_url"]:
		return "website_url", nil
	case found["website"]:
		return "website", nil
	}
	return "", fmt.Errorf("legacy database has no dealerships website column")
}

// Backup writes a consistent copy of the database into dataDir and returns
// its path.
func (d *Database) Backup(ctx context.Context, dataDir string) (string, error) {
	backupDir := filepath.Join(dataDir, fmt.Sprintf("backup_%d", time.Now().UnixNano()))
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	dst := filepath.Join(backupDir, "dealerscout.db")
	if _, err := d.db.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return "", fmt.Errorf("failed to back up database: %w", err)
	}

	logger.Infof("database backed up to %s", dst)
	return dst, nil
}

var timestampFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
