package sessions

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/projecthub/projecthub/internal/common"
	"github.com/projecthub/projecthub/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	saveQ          = `(?s)^\s*INSERT\s+INTO\s+sessions\s*\(id,\s*email,\s*active_project_id,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*ON\s+CONFLICT\s*\(id\)\s*DO\s+UPDATE.*$`
	findQ          = `(?s)^\s*SELECT\s+id,\s*email,\s*active_project_id,\s*expires_at\s+FROM\s+sessions\s+WHERE\s+id\s*=\s*\$1\s*$`
	deleteQ        = `(?s)^\s*DELETE\s+FROM\s+sessions\s+WHERE\s+id\s*=\s*\$1\s*$`
	deleteExpiredQ = `(?s)^\s*DELETE\s+FROM\s+sessions\s+WHERE\s+expires_at\s*<\s*\$1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestSave(t *testing.T) {
	exp := time.Now().Add(time.Hour)

	t.Run("anonymous", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(saveQ).WithArgs("sid", nil, nil, exp).WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Save(context.Background(), &models.Session{ID: "sid", ExpiresAt: exp}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("signed in with active project", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		pid := int64(4)
		mock.ExpectExec(saveQ).WithArgs("sid", "a@x.com", int64(4), exp).WillReturnResult(sqlmock.NewResult(0, 1))

		s := &models.Session{ID: "sid", Email: "a@x.com", ActiveProjectID: &pid, ExpiresAt: exp}
		require.NoError(t, repo.Save(context.Background(), s))
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(saveQ).WillReturnError(errors.New("down"))

		err := repo.Save(context.Background(), &models.Session{ID: "sid", ExpiresAt: exp})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db error: down")
	})
}

func TestFind(t *testing.T) {
	exp := time.Now().Add(time.Hour)

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(findQ).WithArgs("sid").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "active_project_id", "expires_at"}).
				AddRow("sid", "a@x.com", int64(4), exp))

		s, err := repo.Find(context.Background(), "sid")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", s.Email)
		require.NotNil(t, s.ActiveProjectID)
		assert.Equal(t, int64(4), *s.ActiveProjectID)
		assert.False(t, s.Changed())
	})

	t.Run("anonymous row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(findQ).WithArgs("sid").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "active_project_id", "expires_at"}).
				AddRow("sid", nil, nil, exp))

		s, err := repo.Find(context.Background(), "sid")
		require.NoError(t, err)
		assert.False(t, s.Authenticated())
		assert.Nil(t, s.ActiveProjectID)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(findQ).WithArgs("nope").WillReturnError(sql.ErrNoRows)

		_, err := repo.Find(context.Background(), "nope")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(deleteQ).WithArgs("sid").WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), "sid"))
}

func TestDeleteExpired(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	mock.ExpectExec(deleteExpiredQ).WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
