package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"dealerscout/internal/errs"
	"dealerscout/internal/logger"
	"dealerscout/internal/models"
)

//go:embed schema.sql
var schema string

const defaultCarLimit = 100

var errMissingKey = errors.New("website_url and zip_code are required")

type Database struct {
	db *sql.DB
}

// WriteResult counts the outcome of a batch write. Skipped rows already
// existed; failed rows were logged and left out.
type WriteResult struct {
	Inserted int `json:"inserted" yaml:"inserted"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	Failed   int `json:"failed" yaml:"failed"`
}

// NewDatabase creates a new database connection
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database connection with SQLite optimizations
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_cache_size=10000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	database := &Database{db: db}

	if err := database.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) initializeSchema() error {
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// UpsertDealerships inserts rows that are new for their (website_url,
// zip_code) pair and leaves existing rows untouched. Row failures are logged
// and counted; only a transaction failure is returned.
func (d *Database) UpsertDealerships(ctx context.Context, rows []*models.Dealership) (WriteResult, error) {
	var result WriteResult
	if len(rows) == 0 {
		return result, nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return result, errs.Persistence("begin", "dealerships", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO dealerships (name, address, phone, website_url, brand, zip_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return result, errs.Persistence("prepare", "dealerships", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, row := range rows {
		// OR IGNORE would also swallow CHECK violations, so reject blanks here.
		if row.WebsiteURL == "" || row.ZipCode == "" {
			result.Failed++
			logger.WithError(errs.Persistence("insert dealership", row.Name, errMissingKey)).
				Warn("skipping dealership row")
			continue
		}
		res, err := stmt.ExecContext(ctx, row.Name, row.Address, row.Phone, row.WebsiteURL, row.Brand, row.ZipCode, now)
		if err != nil {
			result.Failed++
			logger.WithError(errs.Persistence("insert dealership", row.WebsiteURL, err)).
				WithField("zip", row.ZipCode).Warn("skipping dealership row")
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			result.Skipped++
			continue
		}
		if id, err := res.LastInsertId(); err == nil {
			row.ID = id
		}
		row.CreatedAt = now
		result.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return WriteResult{Failed: len(rows)}, errs.Persistence("commit", "dealerships", err)
	}

	logger.WithFields(logrus.Fields{
		"inserted": result.Inserted,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}).Info("saved dealerships")
	return result, nil
}

// InsertCars appends every car. Empty input is a no-op.
func (d *Database) InsertCars(ctx context.Context, cars []*models.Car) (WriteResult, error) {
	var result WriteResult
	if len(cars) == 0 {
		logger.Debug("no cars to save")
		return result, nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return result, errs.Persistence("begin", "cars", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cars (make, model, year, mileage, price, location, color, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return result, errs.Persistence("prepare", "cars", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, car := range cars {
		res, err := stmt.ExecContext(ctx, car.Make, car.Model, car.Year, car.Mileage, car.Price,
			car.Location, car.Color, car.ImageURL, now)
		if err != nil {
			result.Failed++
			logger.WithError(errs.Persistence("insert car", fmt.Sprintf("row %d", i), err)).
				WithField("location", car.Location).Warn("skipping car row")
			continue
		}
		if id, err := res.LastInsertId(); err == nil {
			car.ID = id
		}
		car.CreatedAt = now
		result.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return WriteResult{Failed: len(cars)}, errs.Persistence("commit", "cars", err)
	}

	logger.WithFields(logrus.Fields{
		"inserted": result.Inserted,
		"failed":   result.Failed,
	}).Info("saved cars")
	return result, nil
}

// DealershipURLs returns the website of every dealership known for zip.
func (d *Database) DealershipURLs(ctx context.Context, zip string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT website_url FROM dealerships WHERE zip_code = ? ORDER BY id`, zip)
	if err != nil {
		return nil, fmt.Errorf("failed to query dealership urls: %w", err)
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// Dealerships returns every dealership known for zip.
func (d *Database) Dealerships(ctx context.Context, zip string) ([]*models.Dealership, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, address, phone, website_url, brand, zip_code, created_at
		FROM dealerships
		WHERE zip_code = ?
		ORDER BY id
	`, zip)
	if err != nil {
		return nil, fmt.Errorf("failed to query dealerships: %w", err)
	}
	defer rows.Close()

	dealers := []*models.Dealership{}
	for rows.Next() {
		var dealer models.Dealership
		var address, phone, brand sql.NullString
		if err := rows.Scan(&dealer.ID, &dealer.Name, &address, &phone, &dealer.WebsiteURL,
			&brand, &dealer.ZipCode, &dealer.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		dealer.Address = nullString(address)
		dealer.Phone = nullString(phone)
		dealer.Brand = nullString(brand)
		dealers = append(dealers, &dealer)
	}
	return dealers, rows.Err()
}

// CountDealerships returns how many dealerships are stored for zip.
func (d *Database) CountDealerships(ctx context.Context, zip string) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dealerships WHERE zip_code = ?`, zip).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count dealerships: %w", err)
	}
	return count, nil
}

// Cars returns the newest cars matching filter.
func (d *Database) Cars(ctx context.Context, filter models.CarFilter) ([]*models.Car, error) {
	query := `
		SELECT id, make, model, year, mileage, price, location, color, image_url, created_at
		FROM cars
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Location != "" {
		query += " AND location = ?"
		args = append(args, filter.Location)
	}
	if filter.Make != "" {
		query += " AND make = ? COLLATE NOCASE"
		args = append(args, filter.Make)
	}
	if filter.MinYear > 0 {
		query += " AND year >= ?"
		args = append(args, filter.MinYear)
	}
	if filter.MaxYear > 0 {
		query += " AND year <= ?"
		args = append(args, filter.MaxYear)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultCarLimit
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cars: %w", err)
	}
	defer rows.Close()

	cars := []*models.Car{}
	for rows.Next() {
		var car models.Car
		var mileage, price sql.NullInt64
		var color, imageURL sql.NullString
		if err := rows.Scan(&car.ID, &car.Make, &car.Model, &car.Year, &mileage, &price,
			&car.Location, &color, &imageURL, &car.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		car.Mileage = nullInt(mileage)
		car.Price = nullInt(price)
		car.Color = nullString(color)
		car.ImageURL = nullString(imageURL)
		cars = append(cars, &car)
	}
	return cars, rows.Err()
}

// CarsByLocation returns the newest cars scraped from one dealer URL.
func (d *Database) CarsByLocation(ctx context.Context, location string, limit int) ([]*models.Car, error) {
	return d.Cars(ctx, models.CarFilter{Location: location, Limit: limit})
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}
