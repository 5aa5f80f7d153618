package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/result-ledger-api/internal/dto"
	"github.com/noah-isme/result-ledger-api/internal/models"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
	"github.com/noah-isme/result-ledger-api/pkg/response"
)

type assignmentService interface {
	Get(ctx context.Context, studentID string) (*models.Assignment, error)
	Replace(ctx context.Context, studentID string, req dto.AssignmentRequest, actorID string) (*models.Assignment, error)
	AssignSubject(ctx context.Context, subjectID models.SubjectID, req dto.BulkAssignRequest, actorID string) error
}

// AssignmentHandler exposes subject registration endpoints.
type AssignmentHandler struct {
	assignments assignmentService
	students    studentFinder
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments assignmentService, students studentFinder) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, students: students}
}

// Get godoc
// @Summary Subjects registered for a student
// @Tags Assignments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/assignments [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	if _, ok := authorizeStudent(c, h.students, c.Param("id")); !ok {
		return
	}
	assignment, err := h.assignments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Replace godoc
// @Summary Replace a student's subjects
// @Description Main subjects and the optional extra credit must belong to the student's grade.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.AssignmentRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{id}/assignments [put]
func (h *AssignmentHandler) Replace(c *gin.Context) {
	var req dto.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if _, ok := authorizeStudent(c, h.students, c.Param("id")); !ok {
		return
	}
	claims := claimsFromContext(c)
	assignment, err := h.assignments.Replace(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// AssignSubject godoc
// @Summary Register one subject for many students
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path int true "Subject ID"
// @Param payload body dto.BulkAssignRequest true "Students payload"
// @Success 204
// @Failure 422 {object} response.Envelope
// @Router /subjects/{id}/assignments [post]
func (h *AssignmentHandler) AssignSubject(c *gin.Context) {
	subjectID, ok := parseSubjectID(c, "id")
	if !ok {
		return
	}
	var req dto.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if !authorizeStudents(c, h.students, req.StudentIDs) {
		return
	}
	claims := claimsFromContext(c)
	if err := h.assignments.AssignSubject(c.Request.Context(), subjectID, req, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
