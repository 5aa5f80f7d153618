package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/result-ledger-api/internal/middleware"
	"github.com/noah-isme/result-ledger-api/internal/models"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
	"github.com/noah-isme/result-ledger-api/pkg/response"
)

type studentFinder interface {
	Get(ctx context.Context, id string) (*models.Student, error)
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// requireClaims writes 401 and returns nil when the request is anonymous.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return claims
}

// authorizeSchool writes 403 when the caller is bound to a different school.
func authorizeSchool(c *gin.Context, schoolID string) bool {
	claims := requireClaims(c)
	if claims == nil {
		return false
	}
	if !claims.CanAccessSchool(schoolID) {
		response.Error(c, appErrors.ErrForbidden)
		return false
	}
	return true
}

// authorizeStudent loads the student and checks the caller's school against it.
func authorizeStudent(c *gin.Context, students studentFinder, id string) (*models.Student, bool) {
	student, err := students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if !authorizeSchool(c, student.SchoolID) {
		return nil, false
	}
	return student, true
}

// bindScope reads schoolId, year and grade from the query string.
func bindScope(c *gin.Context) (models.ResultScope, bool) {
	var scope models.ResultScope
	if err := c.ShouldBindQuery(&scope); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "schoolId, year and grade are required"))
		return scope, false
	}
	scope.SchoolID = strings.TrimSpace(scope.SchoolID)
	scope.AcademicYear = strings.TrimSpace(scope.AcademicYear)
	if scope.SchoolID == "" || scope.AcademicYear == "" || scope.Grade == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolId, year and grade are required"))
		return scope, false
	}
	return scope, authorizeSchool(c, scope.SchoolID)
}

func parseSubjectID(c *gin.Context, param string) (models.SubjectID, bool) {
	raw, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || raw <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid subject id"))
		return 0, false
	}
	return models.SubjectID(raw), true
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	limit := c.Query("limit")
	if limit == "" {
		limit = c.DefaultQuery("page_size", "20")
	}
	size, err := strconv.Atoi(limit)
	if err != nil {
		size = 20
	}
	return page, size
}

func requestMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

// cacheMeta records the cache outcome and returns the response meta map.
func cacheMeta(c *gin.Context, hit bool) map[string]interface{} {
	middleware.SetCacheHit(c, hit)
	return middleware.ExtractMeta(c)
}

// authorizeStudents checks every student of a bulk payload against the caller's school.
func authorizeStudents(c *gin.Context, students studentFinder, ids []string) bool {
	claims := requireClaims(c)
	if claims == nil {
		return false
	}
	if claims.Role == models.RoleSuperAdmin {
		return true
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		student, err := students.Get(c.Request.Context(), id)
		if err != nil {
			// unknown students are reported by the service
			if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
				continue
			}
			response.Error(c, err)
			return false
		}
		if !claims.CanAccessSchool(student.SchoolID) {
			response.Error(c, appErrors.ErrForbidden)
			return false
		}
	}
	return true
}
