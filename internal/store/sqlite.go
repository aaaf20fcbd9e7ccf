package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "optpricer/internal/errors"
	"optpricer/internal/models"
)

// SQLiteStore implements QuoteStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperrors.NewDataError("open", "creating database directory", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.NewDataError("open", "failed to open database", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, apperrors.NewDataError("open", "failed to initialize schema", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		method TEXT NOT NULL,
		kind TEXT NOT NULL,
		barrier_kind TEXT NOT NULL DEFAULT '',
		spot REAL NOT NULL,
		strike REAL NOT NULL,
		rate REAL NOT NULL,
		expiry REAL NOT NULL,
		volatility REAL NOT NULL,
		dividend REAL NOT NULL DEFAULT 0,
		cost_of_carry REAL NOT NULL DEFAULT 0,
		product TEXT NOT NULL DEFAULT '',
		barrier REAL NOT NULL DEFAULT 0,
		rebate REAL NOT NULL DEFAULT 0,
		steps INTEGER NOT NULL DEFAULT 0,
		paths INTEGER NOT NULL DEFAULT 0,
		workers INTEGER NOT NULL DEFAULT 0,
		seed INTEGER NOT NULL DEFAULT 0,
		precision INTEGER NOT NULL,
		value REAL NOT NULL,
		elapsed_ns INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_quotes_method ON quotes(method);
	CREATE INDEX IF NOT EXISTS idx_quotes_created_at ON quotes(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveQuote saves a quote to the database.
func (s *SQLiteStore) SaveQuote(ctx context.Context, q *models.Quote) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	q.CreatedAt = q.CreatedAt.UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (method, kind, barrier_kind, spot, strike, rate, expiry, volatility, dividend, cost_of_carry, product, barrier, rebate, steps, paths, workers, seed, precision, value, elapsed_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.Method, q.Kind, q.BarrierKind, q.Spot, q.Strike, q.Rate, q.Expiry, q.Volatility, q.Dividend, q.CostOfCarry, q.Product, q.Barrier, q.Rebate, q.Steps, q.Paths, q.Workers, int64(q.Seed), q.Precision, q.Value, q.Elapsed.Nanoseconds(), q.CreatedAt)
	if err != nil {
		return apperrors.NewDataError("save_quote", "failed to insert quote", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return apperrors.NewDataError("save_quote", "failed to read quote id", err)
	}
	q.ID = id
	return nil
}

// GetQuotes retrieves quotes from the database.
func (s *SQLiteStore) GetQuotes(ctx context.Context, filter QuoteFilter) ([]models.Quote, error) {
	query := "SELECT id, method, kind, barrier_kind, spot, strike, rate, expiry, volatility, dividend, cost_of_carry, product, barrier, rebate, steps, paths, workers, seed, precision, value, elapsed_ns, created_at FROM quotes WHERE 1=1"
	args := []interface{}{}

	if filter.Method != "" {
		query += " AND method = ?"
		args = append(args, filter.Method)
	}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filter.Kind)
	}
	if !filter.StartDate.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.StartDate.UTC())
	}
	if !filter.EndDate.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, filter.EndDate.UTC())
	}

	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDataError("get_quotes", "failed to query quotes", err)
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		var q models.Quote
		var seed, elapsedNs int64

		if err := rows.Scan(&q.ID, &q.Method, &q.Kind, &q.BarrierKind, &q.Spot, &q.Strike, &q.Rate, &q.Expiry, &q.Volatility, &q.Dividend, &q.CostOfCarry, &q.Product, &q.Barrier, &q.Rebate, &q.Steps, &q.Paths, &q.Workers, &seed, &q.Precision, &q.Value, &elapsedNs, &q.CreatedAt); err != nil {
			return nil, apperrors.NewDataError("get_quotes", "failed to scan quote", err)
		}

		q.Seed = uint64(seed)
		q.Elapsed = time.Duration(elapsedNs)
		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDataError("get_quotes", "error iterating quotes", err)
	}
	return quotes, nil
}

// CountQuotes returns the number of stored quotes per method.
func (s *SQLiteStore) CountQuotes(ctx context.Context) (map[models.PricingMethod]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT method, COUNT(*) FROM quotes GROUP BY method`)
	if err != nil {
		return nil, apperrors.NewDataError("count_quotes", "failed to count quotes", err)
	}
	defer rows.Close()

	counts := make(map[models.PricingMethod]int)
	for rows.Next() {
		var method models.PricingMethod
		var n int
		if err := rows.Scan(&method, &n); err != nil {
			return nil, apperrors.NewDataError("count_quotes", "failed to scan count", err)
		}
		counts[method] = n
	}
	return counts, rows.Err()
}
