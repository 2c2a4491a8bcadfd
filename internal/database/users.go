package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotdesk/internal/models"
)

func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	// Пустой email превращаем в NULL, иначе второй пользователь без
	// почты упрётся в UNIQUE(email).
	query := `INSERT INTO users (id, name, email, last_activity, created_at, updated_at)
	          VALUES (?, ?, NULLIF(?, ''), ?, ?, ?)
	          ON CONFLICT(id) DO UPDATE SET
	              name = excluded.name,
	              email = COALESCE(NULLIF(excluded.email, ''), email),
	              last_activity = excluded.last_activity,
	              updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query, user.ID, user.Name, user.Email, now, now, now)
	if err != nil {
		return fmt.Errorf("failed to create or update user: %w", err)
	}
	return nil
}

func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, name, COALESCE(email, ''), last_activity, created_at, updated_at FROM users WHERE id = ?`
	var user models.User
	err := db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.LastActivity, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, name, COALESCE(email, ''), last_activity, created_at, updated_at FROM users WHERE email = ?`
	var user models.User
	err := db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.LastActivity, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, name, COALESCE(email, ''), last_activity, created_at, updated_at FROM users ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.LastActivity, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (db *DB) UpdateUserActivity(ctx context.Context, id int64) error {
	query := `UPDATE users SET last_activity = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, time.Now(), time.Now(), id)
	return err
}
