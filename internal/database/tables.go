package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"stolik/internal/models"

	"github.com/google/uuid"
)

// SeedTables inserts catalog rows for table numbers that do not exist
// yet. Existing rows are left untouched: capacity changes are an
// administrative concern, not a startup side effect.
func (db *DB) SeedTables(ctx context.Context, tables []models.Table) error {
	for _, t := range tables {
		var existing string
		err := db.QueryRowContext(ctx, `SELECT id FROM tables WHERE number = ?`, t.Number).Scan(&existing)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check table %d: %w", t.Number, err)
		}

		id := t.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO tables (id, number, capacity, location, is_active) VALUES (?, ?, ?, ?, 1)`,
			id, t.Number, t.Capacity, t.Location,
		)
		if err != nil {
			return fmt.Errorf("failed to seed table %d: %w", t.Number, err)
		}
		db.logger.Info().Int("number", t.Number).Int("capacity", t.Capacity).Msg("table seeded")
	}
	return nil
}

func (db *DB) GetTable(ctx context.Context, id string) (*models.Table, error) {
	return db.getTable(ctx, `SELECT id, number, capacity, location, is_active FROM tables WHERE id = ?`, id)
}

func (db *DB) GetTableByNumber(ctx context.Context, number int) (*models.Table, error) {
	return db.getTable(ctx, `SELECT id, number, capacity, location, is_active FROM tables WHERE number = ?`, number)
}

func (db *DB) getTable(ctx context.Context, query string, arg any) (*models.Table, error) {
	var t models.Table
	err := db.QueryRowContext(ctx, query, arg).Scan(&t.ID, &t.Number, &t.Capacity, &t.Location, &t.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	return &t, nil
}

func (db *DB) ListTables(ctx context.Context) ([]*models.Table, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, number, capacity, location, is_active FROM tables ORDER BY number ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []*models.Table
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Capacity, &t.Location, &t.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

// isUniqueViolation detects SQLite unique constraint failures without
// depending on driver error codes.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
