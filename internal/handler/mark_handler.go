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

type markService interface {
	StudentMarks(ctx context.Context, studentID string) (*dto.StudentMarksResponse, error)
	UpsertStudentMarks(ctx context.Context, studentID string, req dto.StudentMarksRequest, actorID string) ([]models.Mark, error)
	BulkUpsert(ctx context.Context, req dto.BulkMarksRequest, actorID string) (*dto.BulkMarksResult, error)
	Delete(ctx context.Context, studentID string, subjectID models.SubjectID) error
}

// MarkHandler exposes mark entry endpoints.
type MarkHandler struct {
	marks    markService
	students studentFinder
}

// NewMarkHandler constructs MarkHandler.
func NewMarkHandler(marks markService, students studentFinder) *MarkHandler {
	return &MarkHandler{marks: marks, students: students}
}

// StudentMarks godoc
// @Summary Recorded marks of a student
// @Tags Marks
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/marks [get]
func (h *MarkHandler) StudentMarks(c *gin.Context) {
	if _, ok := authorizeStudent(c, h.students, c.Param("id")); !ok {
		return
	}
	marks, err := h.marks.StudentMarks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// Upsert godoc
// @Summary Upsert marks of a student
// @Description Every subject must be registered for the student and marks must stay within full marks.
// @Tags Marks
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.StudentMarksRequest true "Marks payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{id}/marks [put]
func (h *MarkHandler) Upsert(c *gin.Context) {
	var req dto.StudentMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if _, ok := authorizeStudent(c, h.students, c.Param("id")); !ok {
		return
	}
	claims := claimsFromContext(c)
	marks, err := h.marks.UpsertStudentMarks(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// Bulk godoc
// @Summary Bulk upsert one subject's marks
// @Description Atomic unless partial_on_error is set, in which case failures are listed.
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body dto.BulkMarksRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Router /marks/bulk [post]
func (h *MarkHandler) Bulk(c *gin.Context) {
	var req dto.BulkMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ids := make([]string, 0, len(req.Entries))
	for _, entry := range req.Entries {
		ids = append(ids, entry.StudentID)
	}
	if !authorizeStudents(c, h.students, ids) {
		return
	}
	claims := claimsFromContext(c)
	result, err := h.marks.BulkUpsert(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete one subject's marks of a student
// @Tags Marks
// @Produce json
// @Param id path string true "Student ID"
// @Param subjectId path int true "Subject ID"
// @Success 204
// @Router /students/{id}/marks/{subjectId} [delete]
func (h *MarkHandler) Delete(c *gin.Context) {
	subjectID, ok := parseSubjectID(c, "subjectId")
	if !ok {
		return
	}
	if _, ok := authorizeStudent(c, h.students, c.Param("id")); !ok {
		return
	}
	if err := h.marks.Delete(c.Request.Context(), c.Param("id"), subjectID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
