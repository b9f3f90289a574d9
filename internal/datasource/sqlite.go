package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/orbview/pkg/debug"
	"github.com/vanderheijden86/orbview/pkg/model"
)

// schema is the orders table written by the ordering service. Schedules
// and metrics are stored as JSON documents.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
	order_id      TEXT PRIMARY KEY,
	name          TEXT,
	algorithm     TEXT NOT NULL,
	schedule_json TEXT,
	metrics_json  TEXT,
	created_at    TEXT
)`

// SQLiteStore provides access to an orders SQLite database
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens the database at path. A read-only store never
// creates the file or the schema.
func OpenSQLiteStore(path string, readOnly bool) (*SQLiteStore, error) {
	mode := "rwc"
	if readOnly {
		mode = "ro"
	}
	dsn, err := sqliteDSN(path, mode)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot open database %s: %w", path, err)
	}
	if !readOnly {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating orders schema: %w", err)
		}
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// sqliteDSN builds a file: URI for path. The path is escaped so names
// containing '?', '#' or '%' are not read as URI syntax.
func sqliteDSN(path, mode string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving database path: %w", err)
	}
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: "mode=" + mode + "&_pragma=busy_timeout(5000)",
	}
	return u.String(), nil
}

// Path returns the database path.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadOrders reads every order, oldest first. Rows whose JSON columns do
// not decode are skipped.
func (s *SQLiteStore) LoadOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, name, algorithm, schedule_json, metrics_json, created_at
		FROM orders
		ORDER BY created_at, order_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var name, scheduleJSON, metricsJSON, createdAt sql.NullString
		if err := rows.Scan(&o.OrderID, &name, &o.Algorithm, &scheduleJSON, &metricsJSON, &createdAt); err != nil {
			debug.Log("datasource: skipping unreadable order row: %v", err)
			continue
		}
		o.Name = name.String
		o.CreatedAt = createdAt.String
		if raw := strings.TrimSpace(scheduleJSON.String); raw != "" && raw != "null" {
			if err := json.Unmarshal([]byte(raw), &o.Schedule); err != nil {
				debug.Log("datasource: skipping order %s: bad schedule: %v", o.OrderID, err)
				continue
			}
		}
		if raw := strings.TrimSpace(metricsJSON.String); raw != "" && raw != "null" {
			var m model.PlanMetrics
			if err := json.Unmarshal([]byte(raw), &m); err != nil {
				debug.Log("datasource: order %s: ignoring bad metrics: %v", o.OrderID, err)
			} else {
				o.Metrics = &m
			}
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// SaveOrders inserts or replaces orders in one transaction.
func (s *SQLiteStore) SaveOrders(ctx context.Context, orders []model.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO orders (order_id, name, algorithm, schedule_json, metrics_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		if o.OrderID == "" {
			return fmt.Errorf("order without order_id")
		}
		schedule, err := json.Marshal(o.Schedule)
		if err != nil {
			return fmt.Errorf("encoding schedule of %s: %w", o.OrderID, err)
		}
		var metrics sql.NullString
		if o.Metrics != nil {
			b, err := json.Marshal(o.Metrics)
			if err != nil {
				return fmt.Errorf("encoding metrics of %s: %w", o.OrderID, err)
			}
			metrics = sql.NullString{String: string(b), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, o.OrderID, o.Name, o.Algorithm, string(schedule), metrics, o.CreatedAt); err != nil {
			return fmt.Errorf("inserting order %s: %w", o.OrderID, err)
		}
	}
	return tx.Commit()
}

// CountOrders returns the number of orders
func (s *SQLiteStore) CountOrders() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM orders").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// LastCreated returns the newest created_at value, or "" for an empty table.
func (s *SQLiteStore) LastCreated() (string, error) {
	var createdAt sql.NullString
	if err := s.db.QueryRow("SELECT MAX(created_at) FROM orders").Scan(&createdAt); err != nil {
		return "", err
	}
	return createdAt.String, nil
}
