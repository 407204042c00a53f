package sites

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"storeadmin/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Resolve finds a site by numeric id or by slug (its domain).
// It returns nil, nil when nothing matches.
func (r *Repo) Resolve(ctx context.Context, fragment string) (*models.Site, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, nil
	}

	var row *sql.Row
	if id, err := strconv.ParseInt(fragment, 10, 64); err == nil {
		row = r.DB.QueryRowContext(ctx, `SELECT id, slug, COALESCE(name, '') FROM sites WHERE id = ?`, id)
	} else {
		row = r.DB.QueryRowContext(ctx, `SELECT id, slug, COALESCE(name, '') FROM sites WHERE LOWER(slug) = ?`, strings.ToLower(fragment))
	}

	var s models.Site
	if err := row.Scan(&s.ID, &s.Slug, &s.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve site: %w", err)
	}
	return &s, nil
}

func (r *Repo) List(ctx context.Context) ([]models.Site, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, slug, COALESCE(name, '') FROM sites ORDER BY slug ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	out := make([]models.Site, 0)
	for rows.Next() {
		var s models.Site
		if err := rows.Scan(&s.ID, &s.Slug, &s.Name); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Upsert(ctx context.Context, s models.Site) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sites (id, slug, name)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slug = excluded.slug,
			name = excluded.name
	`, s.ID, strings.ToLower(strings.TrimSpace(s.Slug)), s.Name)
	if err != nil {
		return fmt.Errorf("upsert site: %w", err)
	}
	return nil
}
