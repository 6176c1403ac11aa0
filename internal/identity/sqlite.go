package identity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS account_names (
	account_id   TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
`

// SQLiteStore keeps names in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT account_id, display_name FROM account_names")
	if err != nil {
		return nil, fmt.Errorf("querying names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, accountID, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account_names (account_id, display_name, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			display_name = excluded.display_name,
			updated_at = excluded.updated_at
	`, accountID, name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storing name: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
