// Package store persists the post corpus in a durable key-value record
// store backed by SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get when no record has the key.
var ErrNotFound = errors.New("record not found")

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Record is one key and its JSON value.
type Record struct {
	Key   string
	Value []byte
}

// RecordStore is a durable key-value store. PutBatch writes all records or
// none.
type RecordStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]Record, error)
	PutBatch(ctx context.Context, records []Record) error
	Close() error
}

// SQLStore implements RecordStore over a single records table.
type SQLStore struct {
	db       *sql.DB
	driver   string
	path     string
	postgres bool
}

// Open opens the store for driver. path is the SQLite data directory and
// dsn the PostgreSQL connection string.
func Open(driver, path, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, "":
		return NewStore(path)
	case DriverPostgres:
		return NewPostgresStore(dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// NewStore creates a SQLite-backed store in dataDir.
func NewStore(dataDir string) (*SQLStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "postmill.db")
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY inside
	// batch transactions.
	db.SetMaxOpenConns(1)

	s := &SQLStore{db: db, driver: DriverSQLite, path: dbPath}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

// NewPostgresStore creates a PostgreSQL-backed store.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLStore{db: db, driver: DriverPostgres, postgres: true}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initialize() error {
	table := `
	CREATE TABLE IF NOT EXISTS records (
		record_key TEXT PRIMARY KEY,
		record_value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`
	if _, err := s.db.Exec(table); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Driver returns the name of the backing driver.
func (s *SQLStore) Driver() string {
	return s.driver
}

// Path returns the SQLite database file, or "" for PostgreSQL.
func (s *SQLStore) Path() string {
	return s.path
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

const upsertQuery = `
	INSERT INTO records (record_key, record_value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT (record_key) DO UPDATE SET
		record_value = excluded.record_value,
		updated_at = excluded.updated_at`

// Put writes one record.
func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(upsertQuery), key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Get reads one record. A missing key returns ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT record_value FROM records WHERE record_key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return []byte(value), nil
}

// List returns every record whose key starts with prefix, ordered by key.
func (s *SQLStore) List(ctx context.Context, prefix string) ([]Record, error) {
	query := `SELECT record_key, record_value FROM records WHERE record_key LIKE ? ESCAPE '\' ORDER BY record_key`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, Record{Key: key, Value: []byte(value)})
	}
	return records, rows.Err()
}

// PutBatch writes records in one transaction.
func (s *SQLStore) PutBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(upsertQuery))
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Key, string(r.Value), now); err != nil {
			return fmt.Errorf("failed to put %s: %w", r.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
