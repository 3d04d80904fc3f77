package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stolik/internal/models"

	"github.com/google/uuid"
)

// CreateOrUpdateUser upserts by email. The id is stable across
// updates so booking references stay valid.
func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}
	now := time.Now()

	query := `
        INSERT INTO users (id, email, name, phone, role, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(email) DO UPDATE SET
            name = excluded.name,
            phone = COALESCE(NULLIF(excluded.phone, ''), phone),
            role = excluded.role,
            updated_at = excluded.updated_at
    `
	_, err := db.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.Phone, user.Role, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	// После upsert id мог остаться от существующей строки
	stored, err := db.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return db.getUser(ctx, `SELECT id, email, name, phone, role, created_at, updated_at FROM users WHERE id = ?`, id)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, `SELECT id, email, name, phone, role, created_at, updated_at FROM users WHERE email = ?`, email)
}

func (db *DB) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	var phone sql.NullString
	err := db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Phone = phone.String
	return &u, nil
}
