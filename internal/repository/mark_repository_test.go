package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/result-ledger-api/internal/models"
)

func TestMarkRepositoryListByStudents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"student_id", "subject_id", "theory", "internal", "updated_at"}).
		AddRow("stu-1", 1, "62.50", "20.00", now)
	mock.ExpectQuery("FROM marks WHERE student_id IN \\(\\$1\\)").
		WithArgs("stu-1").
		WillReturnRows(rows)

	marks, err := repo.ListByStudents(context.Background(), []string{"stu-1"})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, 62.5, marks[0].Theory)
	assert.Equal(t, models.SubjectID(1), marks[0].SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryBulkUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO marks").
		WithArgs("stu-1", int64(1), 60.0, 20.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO marks").
		WithArgs("stu-2", int64(1), 45.5, 18.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.BulkUpsert(context.Background(), []models.Mark{
		{StudentID: "stu-1", SubjectID: 1, Theory: 60, Internal: 20},
		{StudentID: "stu-2", SubjectID: 1, Theory: 45.5, Internal: 18},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryBulkUpsertRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO marks").WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := repo.BulkUpsert(context.Background(), []models.Mark{{StudentID: "stu-1", SubjectID: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bulk upsert mark")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	mock.ExpectExec("DELETE FROM marks").WithArgs("stu-1", int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "stu-1", 2))

	mock.ExpectExec("DELETE FROM marks").WithArgs("stu-1", int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Delete(context.Background(), "stu-1", 3)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
