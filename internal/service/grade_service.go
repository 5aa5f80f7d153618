package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/result-ledger-api/internal/grading"
	"github.com/noah-isme/result-ledger-api/internal/models"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
)

// GradeService computes grades on demand. Nothing it returns is stored
// except as a cache entry.
type GradeService struct {
	loader    *ResultLoader
	schools   schoolLookup
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(loader *ResultLoader, schools schoolLookup, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{loader: loader, schools: schools, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Grades returns the GradesMap of a scope. The bool reports a cache hit.
func (s *GradeService) Grades(ctx context.Context, scope models.ResultScope) (models.GradesMap, bool, error) {
	if err := s.validator.Struct(scope); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scope")
	}
	return cached(ctx, s.cache, GradesKey(scope), func() (models.GradesMap, error) {
		snap, err := s.loader.loadScope(ctx, scope)
		if err != nil {
			return nil, err
		}
		return s.compute(snap), nil
	})
}

// StudentMarksheet grades a single student and lays out their marksheet.
func (s *GradeService) StudentMarksheet(ctx context.Context, studentID string) (*models.Marksheet, error) {
	snap, err := s.loader.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	student := snap.students[0]
	grades := s.compute(snap)
	sheet := grading.BuildMarksheet(student, s.school(ctx, student.SchoolID), snap.catalog, snap.assignments[student.ID], grades[student.ID])
	return &sheet, nil
}

// Marksheets lays out the marksheet of every student in a scope, or of a
// single student of the scope when studentID is set.
func (s *GradeService) Marksheets(ctx context.Context, scope models.ResultScope, studentID *string) ([]models.Marksheet, error) {
	if err := s.validator.Struct(scope); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scope")
	}
	snap, err := s.loader.loadScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	if studentID != nil {
		snap.students = filterStudent(snap.students, *studentID)
		if len(snap.students) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found in scope")
		}
	}

	grades := s.compute(snap)
	school := s.school(ctx, scope.SchoolID)
	sheets := make([]models.Marksheet, 0, len(snap.students))
	for _, student := range snap.students {
		sheets = append(sheets, grading.BuildMarksheet(student, school, snap.catalog, snap.assignments[student.ID], grades[student.ID]))
	}
	return sheets, nil
}

func (s *GradeService) compute(snap *resultSnapshot) models.GradesMap {
	start := time.Now()
	grades := grading.ComputeGradesForStudents(snap.studentIDs(), snap.marks, snap.catalog, snap.assignments)
	s.metrics.ObserveGradeComputation("grades", len(snap.students), time.Since(start))
	return grades
}

// school is best effort: a marksheet without a header is still valid.
func (s *GradeService) school(ctx context.Context, id string) *models.School {
	if s.schools == nil {
		return nil
	}
	school, err := s.schools.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("load school for marksheet", zap.String("school_id", id), zap.Error(err))
		return nil
	}
	return school
}

func filterStudent(students []models.Student, id string) []models.Student {
	for _, student := range students {
		if student.ID == id {
			return []models.Student{student}
		}
	}
	return nil
}
