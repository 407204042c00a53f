package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type Moderator struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, m Moderator) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO moderators (id, username, password_hash)
		VALUES (?, ?, ?)
	`, m.ID, strings.TrimSpace(m.Username), m.PasswordHash)
	if err != nil {
		return fmt.Errorf("create moderator: %w", err)
	}
	return nil
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*Moderator, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM moderators
		WHERE username = ?
	`, strings.TrimSpace(username))

	var m Moderator
	if err := row.Scan(&m.ID, &m.Username, &m.PasswordHash, &m.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get moderator: %w", err)
	}
	return &m, nil
}
