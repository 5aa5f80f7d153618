package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/result-ledger-api/internal/middleware"
	"github.com/noah-isme/result-ledger-api/internal/models"
)

func TestGradeHandlerGrades(t *testing.T) {
	grades := &fakeGradeSvc{hit: true}
	h := NewGradeHandler(grades, grades, newFakeStudentSvc())

	c, w := newGinContext(http.MethodGet, "/grades?schoolId="+schoolA+"&year=2081&grade=11", nil)
	withClaims(c, teacherAClaims)
	h.Grades(c)

	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, models.ResultScope{SchoolID: schoolA, AcademicYear: "2081", Grade: 11}, grades.scope)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, string(env.Data), `"st-a"`)
}

func TestGradeHandlerScopeRejections(t *testing.T) {
	grades := &fakeGradeSvc{}
	h := NewGradeHandler(grades, grades, newFakeStudentSvc())

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{name: "missing school", query: "?year=2081&grade=11", status: http.StatusBadRequest},
		{name: "missing grade", query: "?schoolId=" + schoolA + "&year=2081", status: http.StatusBadRequest},
		{name: "non numeric grade", query: "?schoolId=" + schoolA + "&year=2081&grade=xi", status: http.StatusBadRequest},
		{name: "other school", query: "?schoolId=" + schoolB + "&year=2081&grade=11", status: http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, w := newGinContext(http.MethodGet, "/ledgers/marks"+tc.query, nil)
			withClaims(c, adminAClaims)
			h.MarkLedger(c)
			requireStatus(t, w, tc.status)
		})
	}
}

func TestGradeHandlerGradeLedgerMeta(t *testing.T) {
	grades := &fakeGradeSvc{}
	h := NewGradeHandler(grades, grades, newFakeStudentSvc())

	c, w := newGinContext(http.MethodGet, "/ledgers/grades?schoolId="+schoolB+"&year=2081&grade=12", nil)
	withClaims(c, superadminClaims)
	middleware.WithResponseMeta()(c)
	h.GradeLedger(c)

	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, false, decodeEnvelope(t, w).Meta["cache_hit"])
	assert.Equal(t, 12, grades.scope.Grade)
}

func TestGradeHandlerStudentGrades(t *testing.T) {
	grades := &fakeGradeSvc{}
	h := NewGradeHandler(grades, grades, newFakeStudentSvc())

	c, w := newGinContext(http.MethodGet, "/students/st-a/grades", nil)
	c.Params = gin.Params{{Key: "id", Value: "st-a"}}
	withClaims(c, teacherAClaims)
	h.StudentGrades(c)
	requireStatus(t, w, http.StatusOK)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"final_grade":"B+"`)

	c, w = newGinContext(http.MethodGet, "/students/st-b/grades", nil)
	c.Params = gin.Params{{Key: "id", Value: "st-b"}}
	withClaims(c, teacherAClaims)
	h.StudentGrades(c)
	requireStatus(t, w, http.StatusForbidden)
}
