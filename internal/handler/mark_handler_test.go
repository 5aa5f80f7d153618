package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/result-ledger-api/internal/dto"
	"github.com/noah-isme/result-ledger-api/internal/models"
)

func TestMarkHandlerUpsert(t *testing.T) {
	marks := &fakeMarkSvc{}
	h := NewMarkHandler(marks, newFakeStudentSvc())
	payload := dto.StudentMarksRequest{Marks: []dto.MarkEntry{{SubjectID: 1, Theory: 60, Internal: 20}}}

	c, w := newGinContext(http.MethodPut, "/students/st-a/marks", mustJSON(t, payload))
	c.Params = gin.Params{{Key: "id", Value: "st-a"}}
	withClaims(c, teacherAClaims)
	h.Upsert(c)

	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "teacher-a", marks.actor)
	require.Len(t, marks.upserted, 1)
	assert.Equal(t, models.SubjectID(1), marks.upserted[0].SubjectID)
}

func TestMarkHandlerUpsertOtherSchool(t *testing.T) {
	marks := &fakeMarkSvc{}
	h := NewMarkHandler(marks, newFakeStudentSvc())
	payload := dto.StudentMarksRequest{Marks: []dto.MarkEntry{{SubjectID: 1, Theory: 60}}}

	c, w := newGinContext(http.MethodPut, "/students/st-b/marks", mustJSON(t, payload))
	c.Params = gin.Params{{Key: "id", Value: "st-b"}}
	withClaims(c, teacherAClaims)
	h.Upsert(c)

	requireStatus(t, w, http.StatusForbidden)
	assert.Empty(t, marks.upserted)
}

func TestMarkHandlerBulk(t *testing.T) {
	tests := []struct {
		name    string
		claims  *models.JWTClaims
		student string
		status  int
	}{
		{name: "own school", claims: teacherAClaims, student: "st-a", status: http.StatusOK},
		{name: "foreign student", claims: teacherAClaims, student: "st-b", status: http.StatusForbidden},
		{name: "unknown student left to service", claims: teacherAClaims, student: "ghost", status: http.StatusOK},
		{name: "superadmin", claims: superadminClaims, student: "st-b", status: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marks := &fakeMarkSvc{}
			h := NewMarkHandler(marks, newFakeStudentSvc())
			payload := dto.BulkMarksRequest{SubjectID: 2, Entries: []dto.BulkMarkEntry{{StudentID: tc.student, Theory: 40, Internal: 10}}}

			c, w := newGinContext(http.MethodPost, "/marks/bulk", mustJSON(t, payload))
			withClaims(c, tc.claims)
			h.Bulk(c)

			requireStatus(t, w, tc.status)
			if tc.status == http.StatusOK {
				require.NotNil(t, marks.bulk)
				assert.Equal(t, models.SubjectID(2), marks.bulk.SubjectID)
			} else {
				assert.Nil(t, marks.bulk)
			}
		})
	}
}

func TestMarkHandlerDelete(t *testing.T) {
	marks := &fakeMarkSvc{}
	h := NewMarkHandler(marks, newFakeStudentSvc())

	c, w := newGinContext(http.MethodDelete, "/students/st-a/marks/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "st-a"}, {Key: "subjectId", Value: "abc"}}
	withClaims(c, adminAClaims)
	h.Delete(c)
	requireStatus(t, w, http.StatusBadRequest)

	c, _ = newGinContext(http.MethodDelete, "/students/st-a/marks/7", nil)
	c.Params = gin.Params{{Key: "id", Value: "st-a"}, {Key: "subjectId", Value: "7"}}
	withClaims(c, adminAClaims)
	h.Delete(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, models.SubjectID(7), marks.deleted)
}

func TestMarkHandlerStudentMarks(t *testing.T) {
	h := NewMarkHandler(&fakeMarkSvc{}, newFakeStudentSvc())

	c, w := newGinContext(http.MethodGet, "/students/st-a/marks", nil)
	c.Params = gin.Params{{Key: "id", Value: "st-a"}}
	withClaims(c, adminAClaims)
	h.StudentMarks(c)

	requireStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `{"student_id":"st-a","is_absent":false,"marks":[]}`, string(decodeEnvelope(t, w).Data))
}
