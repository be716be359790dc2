package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tasmanvs/MusicMaker/types"
)

// SQLiteClient stores sounds in a single sqlite table.
type SQLiteClient struct {
	db *sql.DB
}

func NewSQLiteClient(ctx context.Context, dbPath string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("db: error opening database: %w", err)
	}
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db: error creating tables: %w", err)
	}
	return &SQLiteClient{db: db}, nil
}

func (db *SQLiteClient) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// createTables creates the required tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	createSoundsTable := `
    CREATE TABLE IF NOT EXISTS sounds (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        data TEXT NOT NULL,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    `
	if _, err := db.ExecContext(ctx, createSoundsTable); err != nil {
		return fmt.Errorf("error creating sounds table: %w", err)
	}
	return nil
}

func (db *SQLiteClient) ListSaved(ctx context.Context) ([]types.SavedSound, error) {
	rows, err := db.db.QueryContext(ctx, "SELECT name, data FROM sounds ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("db: error querying sounds: %w", err)
	}
	defer rows.Close()

	var sounds []types.SavedSound
	for rows.Next() {
		var s types.SavedSound
		if err := rows.Scan(&s.Name, &s.Data); err != nil {
			return nil, fmt.Errorf("db: error scanning row: %w", err)
		}
		sounds = append(sounds, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: error reading sounds: %w", err)
	}
	return sounds, nil
}
