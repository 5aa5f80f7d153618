package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/result-ledger-api/internal/models"
	"github.com/noah-isme/result-ledger-api/pkg/response"
)

type gradeService interface {
	Grades(ctx context.Context, scope models.ResultScope) (models.GradesMap, bool, error)
	StudentMarksheet(ctx context.Context, studentID string) (*models.Marksheet, error)
}

type ledgerService interface {
	MarkLedger(ctx context.Context, scope models.ResultScope) (models.MarkLedger, bool, error)
	GradeLedger(ctx context.Context, scope models.ResultScope) (models.GradeLedger, bool, error)
}

// GradeHandler exposes computed grades and ledgers.
type GradeHandler struct {
	grades   gradeService
	ledgers  ledgerService
	students studentFinder
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades gradeService, ledgers ledgerService, students studentFinder) *GradeHandler {
	return &GradeHandler{grades: grades, ledgers: ledgers, students: students}
}

// Grades godoc
// @Summary Grades of every student in a scope
// @Description Keyed by student id. Absent students and students without marks carry a status instead of a GPA.
// @Tags Grades
// @Produce json
// @Param schoolId query string true "School ID"
// @Param year query string true "Academic year"
// @Param grade query int true "Grade (11 or 12)"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) Grades(c *gin.Context) {
	scope, ok := bindScope(c)
	if !ok {
		return
	}
	grades, hit, err := h.grades.Grades(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil, cacheMeta(c, hit))
}

// StudentGrades godoc
// @Summary Marksheet of one student
// @Tags Grades
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/grades [get]
func (h *GradeHandler) StudentGrades(c *gin.Context) {
	if _, ok := authorizeStudent(c, h.students, c.Param("id")); !ok {
		return
	}
	sheet, err := h.grades.StudentMarksheet(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// MarkLedger godoc
// @Summary Mark ledger of a scope
// @Tags Ledgers
// @Produce json
// @Param schoolId query string true "School ID"
// @Param year query string true "Academic year"
// @Param grade query int true "Grade (11 or 12)"
// @Success 200 {object} response.Envelope
// @Router /ledgers/marks [get]
func (h *GradeHandler) MarkLedger(c *gin.Context) {
	scope, ok := bindScope(c)
	if !ok {
		return
	}
	ledger, hit, err := h.ledgers.MarkLedger(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ledger, nil, cacheMeta(c, hit))
}

// GradeLedger godoc
// @Summary Grade ledger of a scope
// @Tags Ledgers
// @Produce json
// @Param schoolId query string true "School ID"
// @Param year query string true "Academic year"
// @Param grade query int true "Grade (11 or 12)"
// @Success 200 {object} response.Envelope
// @Router /ledgers/grades [get]
func (h *GradeHandler) GradeLedger(c *gin.Context) {
	scope, ok := bindScope(c)
	if !ok {
		return
	}
	ledger, hit, err := h.ledgers.GradeLedger(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ledger, nil, cacheMeta(c, hit))
}
