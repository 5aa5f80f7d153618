package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/result-ledger-api/internal/dto"
	"github.com/noah-isme/result-ledger-api/internal/models"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
)

func newTestMarkService(f *resultFixture) (*MarkService, *fakeAudit, *memoryCache) {
	audit := &fakeAudit{}
	cacheRepo := newMemoryCache()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	return NewMarkService(f.marks, f.students, f.subjects, f.assignments, audit, cache, nil, nil), audit, cacheRepo
}

func TestMarkServiceUpsertStudentMarks(t *testing.T) {
	f := newResultFixture()
	f.assignments.assign("st-1", 1, 2)
	svc, audit, cacheRepo := newTestMarkService(f)

	saved, err := svc.UpsertStudentMarks(context.Background(), "st-1", dto.StudentMarksRequest{Marks: []dto.MarkEntry{
		{SubjectID: 1, Theory: 60, Internal: 20},
		{SubjectID: 2, Theory: 75, Internal: 0},
	}}, "user-1")
	require.NoError(t, err)
	assert.Len(t, saved, 2)
	assert.Equal(t, 1, f.marks.bulkCalls)
	assert.Equal(t, 60.0, f.marks.marks[markKey("st-1", 1)].Theory)
	assert.Equal(t, []string{"grades:school-1:*"}, cacheRepo.patterns)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionMarksUpsert, audit.logs[0].Action)
	assert.Equal(t, "user-1", *audit.logs[0].UserID)
}

func TestMarkServiceUpsertRejectsInvalidEntries(t *testing.T) {
	f := newResultFixture()
	f.assignments.assign("st-1", 1)
	svc, _, _ := newTestMarkService(f)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry dto.MarkEntry
		code  string
	}{
		{name: "theory above full marks", entry: dto.MarkEntry{SubjectID: 1, Theory: 76, Internal: 10}, code: appErrors.ErrMarksOutOfRange.Code},
		{name: "internal above full marks", entry: dto.MarkEntry{SubjectID: 1, Theory: 10, Internal: 25.5}, code: appErrors.ErrMarksOutOfRange.Code},
		{name: "negative marks", entry: dto.MarkEntry{SubjectID: 1, Theory: -1}, code: appErrors.ErrValidation.Code},
		{name: "unassigned subject", entry: dto.MarkEntry{SubjectID: 2, Theory: 10, Internal: 10}, code: appErrors.ErrSubjectNotAssigned.Code},
		{name: "unknown subject", entry: dto.MarkEntry{SubjectID: 99, Theory: 10, Internal: 10}, code: appErrors.ErrNotFound.Code},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpsertStudentMarks(ctx, "st-1", dto.StudentMarksRequest{Marks: []dto.MarkEntry{tc.entry}}, "")
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
	assert.Empty(t, f.marks.marks)
	assert.Zero(t, f.marks.bulkCalls)
}

func TestMarkServiceUpsertDuplicateSubject(t *testing.T) {
	f := newResultFixture()
	f.assignments.assign("st-1", 1)
	svc, _, _ := newTestMarkService(f)

	_, err := svc.UpsertStudentMarks(context.Background(), "st-1", dto.StudentMarksRequest{Marks: []dto.MarkEntry{
		{SubjectID: 1, Theory: 10},
		{SubjectID: 1, Theory: 20},
	}}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMarkServiceUpsertUnknownStudent(t *testing.T) {
	svc, _, _ := newTestMarkService(newResultFixture())

	_, err := svc.UpsertStudentMarks(context.Background(), "ghost", dto.StudentMarksRequest{Marks: []dto.MarkEntry{{SubjectID: 1}}}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMarkServiceBulkUpsertAtomic(t *testing.T) {
	f := newResultFixture()
	f.assignments.assign("st-1", 1)
	f.assignments.assign("st-2", 1)
	svc, _, _ := newTestMarkService(f)

	_, err := svc.BulkUpsert(context.Background(), dto.BulkMarksRequest{SubjectID: 1, Entries: []dto.BulkMarkEntry{
		{StudentID: "st-1", Theory: 50, Internal: 20},
		{StudentID: "st-2", Theory: 80, Internal: 20},
	}}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMarksOutOfRange.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.marks.marks)
}

func TestMarkServiceBulkUpsertPartial(t *testing.T) {
	f := newResultFixture()
	f.assignments.assign("st-1", 1)
	f.assignments.assign("st-2", 1)
	f.assignments.assign("st-3", 1)
	f.marks.failFor = "st-3"
	svc, _, cacheRepo := newTestMarkService(f)

	result, err := svc.BulkUpsert(context.Background(), dto.BulkMarksRequest{
		SubjectID:      1,
		PartialOnError: true,
		Entries: []dto.BulkMarkEntry{
			{StudentID: "st-1", Theory: 50, Internal: 20},
			{StudentID: "st-2", Theory: 80, Internal: 20},
			{StudentID: "st-3", Theory: 40, Internal: 10},
			{StudentID: "ghost", Theory: 40, Internal: 10},
		},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Saved)
	require.Len(t, result.Failed, 3)
	assert.Equal(t, "st-2", result.Failed[0].StudentID)
	assert.Equal(t, "ghost", result.Failed[1].StudentID)
	assert.Equal(t, "st-3", result.Failed[2].StudentID)
	assert.Contains(t, f.marks.marks, markKey("st-1", 1))
	assert.Contains(t, cacheRepo.patterns, "grades:school-1:*")
}

func TestMarkServiceStudentMarksAndDelete(t *testing.T) {
	f := newResultFixture()
	f.marks.put("st-1", 1, 50, 20)
	svc, _, _ := newTestMarkService(f)
	ctx := context.Background()

	resp, err := svc.StudentMarks(ctx, "st-1")
	require.NoError(t, err)
	assert.False(t, resp.IsAbsent)
	require.Len(t, resp.Marks, 1)

	require.NoError(t, svc.Delete(ctx, "st-1", 1))
	resp, err = svc.StudentMarks(ctx, "st-1")
	require.NoError(t, err)
	assert.Empty(t, resp.Marks)
	assert.NotNil(t, resp.Marks)
}
