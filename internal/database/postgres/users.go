package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/civreg/faceid/internal/database"
)

// UserStore provides PostgreSQL-backed operator account storage.
type UserStore struct {
	pool *Pool
}

// NewUserStore creates a new PostgreSQL user store.
func NewUserStore(pool *Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Create inserts a new operator account and returns it.
func (s *UserStore) Create(ctx context.Context, name, passwordHash, role string) (*database.User, error) {
	query := `
		INSERT INTO users (name, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, name, password_hash, role, created_at
	`

	var u database.User
	err := s.pool.QueryRow(ctx, query, name, passwordHash, role).Scan(
		&u.ID, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// GetByName retrieves an operator by name, returns nil if not found.
func (s *UserStore) GetByName(ctx context.Context, name string) (*database.User, error) {
	query := `
		SELECT id, name, password_hash, role, created_at
		FROM users
		WHERE name = $1
	`

	var u database.User
	err := s.pool.QueryRow(ctx, query, name).Scan(
		&u.ID, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// List returns all operator accounts.
func (s *UserStore) List(ctx context.Context) ([]database.User, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name, password_hash, role, created_at FROM users ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []database.User
	for rows.Next() {
		var u database.User
		if err := rows.Scan(&u.ID, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// Update changes an operator's name and role.
func (s *UserStore) Update(ctx context.Context, id int64, name, role string) error {
	if _, err := s.pool.Exec(ctx, "UPDATE users SET name = $2, role = $3 WHERE id = $1", id, name, role); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// Delete removes an operator account. Idempotent.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ database.UserStore = (*UserStore)(nil)
