package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/result-ledger-api/internal/models"
)

func TestSchoolRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "code", "name", "address", "phone", "created_at", "updated_at"}).
		AddRow("school-1", "KTM01", "Kathmandu Model", "Baneshwor", "01-4000000", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, name, address, phone, created_at, updated_at FROM schools WHERE 1=1 AND (LOWER(code) LIKE $1 OR LOWER(name) LIKE $1) ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WithArgs("%ktm%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schools WHERE 1=1 AND (LOWER(code) LIKE $1 OR LOWER(name) LIKE $1)")).
		WithArgs("%ktm%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	schools, total, err := repo.List(context.Background(), models.SchoolFilter{Search: "KTM"})
	require.NoError(t, err)
	require.Len(t, schools, 1)
	assert.Equal(t, "KTM01", schools[0].Code)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepositoryExistsByCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM schools WHERE LOWER(code) = LOWER($1) LIMIT 1")).
		WithArgs("KTM01").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsByCode(context.Background(), "KTM01", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepositoryCountStudents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE school_id = $1")).
		WithArgs("school-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountStudents(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
