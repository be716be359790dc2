package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tasmanvs/MusicMaker/types"
)

// LoadSaved returns the idx-th sound in insertion order.
func (db *SQLiteClient) LoadSaved(ctx context.Context, idx int) (types.SavedSound, error) {
	if idx < 0 {
		return types.SavedSound{}, ErrNotFound
	}
	row := db.db.QueryRowContext(ctx, "SELECT name, data FROM sounds ORDER BY id LIMIT 1 OFFSET ?", idx)

	var s types.SavedSound
	if err := row.Scan(&s.Name, &s.Data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.SavedSound{}, ErrNotFound
		}
		return types.SavedSound{}, fmt.Errorf("db: failed to retrieve sound: %w", err)
	}
	return s, nil
}

func (db *SQLiteClient) SaveSound(ctx context.Context, name, data string) error {
	if name == "" {
		return ErrEmptyName
	}
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db: error starting transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO sounds (name, data) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("db: error preparing statement: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, name, data); err != nil {
		tx.Rollback()
		return fmt.Errorf("db: failed to save sound: %w", err)
	}
	return tx.Commit()
}
