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

func subjectIDPtr(id models.SubjectID) *models.SubjectID { return &id }

func newTestAssignmentService(f *resultFixture) (*AssignmentService, *fakeAudit, *memoryCache) {
	audit := &fakeAudit{}
	cacheRepo := newMemoryCache()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	return NewAssignmentService(f.assignments, f.students, f.subjects, audit, cache, nil, nil), audit, cacheRepo
}

func TestAssignmentServiceReplace(t *testing.T) {
	f := newResultFixture()
	f.assignments.assign("st-1", 1)
	svc, audit, cacheRepo := newTestAssignmentService(f)
	ctx := context.Background()

	assignment, err := svc.Replace(ctx, "st-1", dto.AssignmentRequest{SubjectIDs: []models.SubjectID{2, 1, 2}, ExtraCredit: subjectIDPtr(3)}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, []models.SubjectID{1, 2}, assignment.SubjectIDs)
	require.NotNil(t, assignment.ExtraCredit)
	assert.Equal(t, models.SubjectID(3), *assignment.ExtraCredit)

	stored, err := svc.Get(ctx, "st-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.SubjectID{1, 2}, stored.SubjectIDs)
	assert.True(t, stored.IsExtraCredit(3))

	assert.Equal(t, []string{"grades:school-1:*"}, cacheRepo.patterns)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionAssignment, audit.logs[0].Action)
	assert.Contains(t, string(audit.logs[0].OldValues), `"subject_ids":[1]`)
}

func TestAssignmentServiceReplaceRejects(t *testing.T) {
	f := newResultFixture()
	svc, _, _ := newTestAssignmentService(f)
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.AssignmentRequest
		code string
	}{
		{name: "extra credit also main", req: dto.AssignmentRequest{SubjectIDs: []models.SubjectID{1, 3}, ExtraCredit: subjectIDPtr(3)}, code: appErrors.ErrValidation.Code},
		{name: "subject of another grade", req: dto.AssignmentRequest{SubjectIDs: []models.SubjectID{1, 10}}, code: appErrors.ErrSubjectGradeMismatch.Code},
		{name: "unknown subject", req: dto.AssignmentRequest{SubjectIDs: []models.SubjectID{42}}, code: appErrors.ErrNotFound.Code},
		{name: "empty list", req: dto.AssignmentRequest{}, code: appErrors.ErrValidation.Code},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Replace(ctx, "st-1", tc.req, "")
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
	assert.Empty(t, f.assignments.rows)
}

func TestAssignmentServiceGetEmpty(t *testing.T) {
	svc, _, _ := newTestAssignmentService(newResultFixture())

	assignment, err := svc.Get(context.Background(), "st-2")
	require.NoError(t, err)
	assert.Equal(t, "st-2", assignment.StudentID)
	assert.Empty(t, assignment.SubjectIDs)
	assert.Nil(t, assignment.ExtraCredit)

	_, err = svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceAssignSubject(t *testing.T) {
	f := newResultFixture()
	svc, _, cacheRepo := newTestAssignmentService(f)

	err := svc.AssignSubject(context.Background(), 1, dto.BulkAssignRequest{StudentIDs: []string{"st-1", "st-3", "st-1"}}, "admin")
	require.NoError(t, err)
	grouped := models.GroupAssignments(f.assignments.rows)
	assert.True(t, grouped["st-1"].IsMain(1))
	assert.True(t, grouped["st-3"].IsMain(1))
	assert.Len(t, f.assignments.rows, 2)
	assert.ElementsMatch(t, []string{"grades:school-1:*", "grades:school-2:*"}, cacheRepo.patterns)
}

func TestAssignmentServiceAssignSubjectRejects(t *testing.T) {
	f := newResultFixture()
	f.assignments.assign("st-1", 3)
	svc, _, _ := newTestAssignmentService(f)
	ctx := context.Background()

	err := svc.AssignSubject(ctx, 3, dto.BulkAssignRequest{StudentIDs: []string{"st-1"}, IsExtraCredit: true}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	err = svc.AssignSubject(ctx, 10, dto.BulkAssignRequest{StudentIDs: []string{"st-2"}}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSubjectGradeMismatch.Code, appErrors.FromError(err).Code)

	err = svc.AssignSubject(ctx, 1, dto.BulkAssignRequest{StudentIDs: []string{"st-2", "ghost"}}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = svc.AssignSubject(ctx, 77, dto.BulkAssignRequest{StudentIDs: []string{"st-2"}}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceAssignExtraCreditReplacesPrevious(t *testing.T) {
	f := newResultFixture()
	f.assignments.rows = append(f.assignments.rows, models.AssignmentRow{StudentID: "st-2", SubjectID: 2, IsExtraCredit: true})
	svc, _, _ := newTestAssignmentService(f)

	require.NoError(t, svc.AssignSubject(context.Background(), 3, dto.BulkAssignRequest{StudentIDs: []string{"st-2"}, IsExtraCredit: true}, ""))
	grouped := models.GroupAssignments(f.assignments.rows)
	require.NotNil(t, grouped["st-2"].ExtraCredit)
	assert.Equal(t, models.SubjectID(3), *grouped["st-2"].ExtraCredit)
	assert.Len(t, f.assignments.rows, 1)
}
