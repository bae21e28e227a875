package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"consentdesk/pkg/sentinel"
)

// PostgresStore persists users behind the same Store interface as the memory
// implementation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, username, password string) (User, error) {
	u := User{Username: username, Password: password}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id
	`, username, password).Scan(&u.ID)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, sentinel.ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password FROM users WHERE username = $1 ORDER BY id LIMIT 1
	`, username).Scan(&u.ID, &u.Username, &u.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, sentinel.ErrNotFound
		}
		return User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}
