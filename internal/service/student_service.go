package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/result-ledger-api/internal/dto"
	"github.com/noah-isme/result-ledger-api/internal/models"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	ListByScope(ctx context.Context, scope models.ResultScope) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByRollNumber(ctx context.Context, student models.Student) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	SetAbsent(ctx context.Context, id string, absent bool) error
	Delete(ctx context.Context, id string) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// StudentService handles student registration and the absent flag.
type StudentService struct {
	repo      studentRepository
	schools   schoolLookup
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, schools schoolLookup, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, schools: schools, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// ListByScope returns every student of a school, academic year and grade.
func (s *StudentService) ListByScope(ctx context.Context, scope models.ResultScope) ([]models.Student, error) {
	if err := s.validator.Struct(scope); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scope")
	}
	students, err := s.repo.ListByScope(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a student; roll numbers are unique per school, year and grade.
func (s *StudentService) Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{}
	applyStudentRequest(student, req)
	if err := s.checkPlacement(ctx, *student); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.cache.InvalidateSchool(ctx, student.SchoolID)
	return student, nil
}

// Update modifies a student. Moving a student between schools invalidates both.
func (s *StudentService) Update(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previousSchool := student.SchoolID
	applyStudentRequest(student, req)
	if err := s.checkPlacement(ctx, *student); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.cache.InvalidateSchool(ctx, student.SchoolID)
	if previousSchool != student.SchoolID {
		s.cache.InvalidateSchool(ctx, previousSchool)
	}
	return student, nil
}

// SetAbsent flips the absent flag. Marks are kept so clearing the flag
// restores the computed grades.
func (s *StudentService) SetAbsent(ctx context.Context, id string, absent bool, actorID string) (*models.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if student.IsAbsent == absent {
		return student, nil
	}
	if err := s.repo.SetAbsent(ctx, id, absent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update absent flag")
	}
	before, _ := json.Marshal(map[string]bool{"is_absent": student.IsAbsent})
	student.IsAbsent = absent
	after, _ := json.Marshal(map[string]bool{"is_absent": absent})

	s.cache.InvalidateSchool(ctx, student.SchoolID)
	s.recordAudit(ctx, actorID, student.ID, before, after)
	return student, nil
}

// Delete removes a student together with their marks and assignments.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	student, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.cache.InvalidateSchool(ctx, student.SchoolID)
	return nil
}

func (s *StudentService) checkPlacement(ctx context.Context, student models.Student) error {
	if s.schools != nil {
		if _, err := s.schools.FindByID(ctx, student.SchoolID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "school not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
		}
	}
	exists, err := s.repo.ExistsByRollNumber(ctx, student)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roll number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "roll number already used in this class")
	}
	return nil
}

func (s *StudentService) recordAudit(ctx context.Context, actorID, studentID string, before, after []byte) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{Action: models.AuditActionAbsent, Resource: "students", ResourceID: &studentID, OldValues: before, NewValues: after}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("record absent audit log", zap.String("student_id", studentID), zap.Error(err))
	}
}

func applyStudentRequest(student *models.Student, req dto.StudentRequest) {
	student.SchoolID = req.SchoolID
	student.FullName = strings.TrimSpace(req.FullName)
	student.RollNumber = strings.TrimSpace(req.RollNumber)
	student.SymbolNumber = strings.TrimSpace(req.SymbolNumber)
	student.Grade = req.Grade
	student.AcademicYear = strings.TrimSpace(req.AcademicYear)
	student.Section = strings.TrimSpace(req.Section)
}
