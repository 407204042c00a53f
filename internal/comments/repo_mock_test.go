package comments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_WrapsDriverErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepo(db)
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM comments WHERE site_id = \? AND status IN \(\?, \?\)`).
		WithArgs(int64(3), StatusApproved, StatusUnapproved).
		WillReturnError(boom)
	_, err = repo.Count(ctx, ListQuery{SiteID: 3, Status: StatusAll})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "count comments")

	mock.ExpectExec(`UPDATE comments SET status = \?`).
		WithArgs(StatusSpam, int64(3), int64(10), int64(1)).
		WillReturnError(boom)
	_, err = repo.ChangeStatus(ctx, 3, 10, 1, StatusSpam)
	require.ErrorIs(t, err, boom)

	mock.ExpectExec(`DELETE FROM comments`).
		WithArgs(int64(3), int64(10), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err := repo.Delete(ctx, 3, 10, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_ListScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "site_id", "post_id", "author", "content", "status", "created_at"}).
		AddRow(int64(7), int64(3), int64(10), "ann", "hi", StatusUnapproved, at)

	mock.ExpectQuery(`FROM comments WHERE site_id = \? AND post_id = \? AND status = \?`).
		WithArgs(int64(3), int64(10), StatusUnapproved, 20, 0).
		WillReturnRows(rows)

	items, err := NewRepo(db).List(context.Background(), ListQuery{SiteID: 3, PostID: 10, Status: "pending"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].ID)
	assert.Equal(t, at, items[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
