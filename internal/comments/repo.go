package comments

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"storeadmin/pkg/models"
)

const (
	StatusAll        = "all"
	StatusUnapproved = "unapproved"
	StatusApproved   = "approved"
	StatusSpam       = "spam"
	StatusTrash      = "trash"

	ActionDelete = "delete"
)

type ListQuery struct {
	SiteID int64
	PostID int64 // 0 = every post
	Status string
	Limit  int
	Offset int
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func buildListWhere(q ListQuery) (string, []any) {
	where := []string{"site_id = ?"}
	args := []any{q.SiteID}

	if q.PostID > 0 {
		where = append(where, "post_id = ?")
		args = append(args, q.PostID)
	}

	switch q.Status {
	case StatusAll:
		where = append(where, "status IN (?, ?)")
		args = append(args, StatusApproved, StatusUnapproved)
	default:
		where = append(where, "status = ?")
		args = append(args, MapPendingStatusToUnapproved(q.Status))
	}

	return " WHERE " + strings.Join(where, " AND "), args
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	where, args := buildListWhere(q)
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Comment, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	where, args := buildListWhere(q)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, site_id, post_id, author, content, status, created_at
		FROM comments`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.SiteID, &c.PostID, &c.Author, &c.Content, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, siteID, id int64) (*models.Comment, error) {
	var c models.Comment
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, site_id, post_id, author, content, status, created_at
		FROM comments
		WHERE site_id = ? AND id = ?
	`, siteID, id).Scan(&c.ID, &c.SiteID, &c.PostID, &c.Author, &c.Content, &c.Status, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

// ChangeStatus reports whether a comment matching all three ids was updated.
func (r *Repo) ChangeStatus(ctx context.Context, siteID, postID, id int64, status string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE comments SET status = ?
		WHERE site_id = ? AND post_id = ? AND id = ?
	`, status, siteID, postID, id)
	if err != nil {
		return false, fmt.Errorf("change comment status: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) Delete(ctx context.Context, siteID, postID, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM comments WHERE site_id = ? AND post_id = ? AND id = ?
	`, siteID, postID, id)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) Upsert(ctx context.Context, c models.Comment) error {
	status := MapPendingStatusToUnapproved(c.Status)
	if status == "" {
		status = StatusUnapproved
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO comments (id, site_id, post_id, author, content, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_id, id) DO UPDATE SET
			post_id = excluded.post_id,
			author = excluded.author,
			content = excluded.content,
			status = excluded.status
	`, c.ID, c.SiteID, c.PostID, c.Author, c.Content, status)
	if err != nil {
		return fmt.Errorf("upsert comment: %w", err)
	}
	return nil
}
