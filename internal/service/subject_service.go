package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/result-ledger-api/internal/dto"
	"github.com/noah-isme/result-ledger-api/internal/models"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id models.SubjectID) (*models.Subject, error)
	ExistsBySubCode(ctx context.Context, code string, excludeID models.SubjectID) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id models.SubjectID) error
	CountAssignments(ctx context.Context, id models.SubjectID) (int, error)
}

// SubjectService maintains the subject catalog.
type SubjectService struct {
	repo      subjectRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo subjectRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns subjects and pagination metadata.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a subject by ID.
func (s *SubjectService) Get(ctx context.Context, id models.SubjectID) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create adds a subject to the catalog.
func (s *SubjectService) Create(ctx context.Context, req dto.SubjectRequest) (*models.Subject, error) {
	subject, err := s.buildSubject(req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCodesFree(ctx, subject, 0); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return &subject, nil
}

// Update replaces a subject's definition. The grade cannot change while
// students are registered for the subject.
func (s *SubjectService) Update(ctx context.Context, id models.SubjectID, req dto.SubjectRequest) (*models.Subject, error) {
	updated, err := s.buildSubject(req)
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Grade != updated.Grade {
		count, err := s.repo.CountAssignments(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject assignments")
		}
		if count > 0 {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot change grade of an assigned subject")
		}
	}
	if err := s.ensureCodesFree(ctx, updated, id); err != nil {
		return nil, err
	}

	updated.ID = id
	updated.CreatedAt = current.CreatedAt
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	// Credits and full marks feed every school's grades.
	s.cache.InvalidateAll(ctx)
	return &updated, nil
}

// Delete removes a subject nobody is registered for.
func (s *SubjectService) Delete(ctx context.Context, id models.SubjectID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountAssignments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject assignments")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "subject is assigned to students")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	s.cache.InvalidateAll(ctx)
	return nil
}

func (s *SubjectService) buildSubject(req dto.SubjectRequest) (models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Subject{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	theory := component(req.Theory)
	internal := component(req.Internal)
	if theory.PassMarks > theory.FullMarks {
		return models.Subject{}, appErrors.Clone(appErrors.ErrValidation, "theory pass marks exceed full marks")
	}
	if internal.PassMarks > internal.FullMarks {
		return models.Subject{}, appErrors.Clone(appErrors.ErrValidation, "internal pass marks exceed full marks")
	}
	if strings.EqualFold(theory.SubCode, internal.SubCode) {
		return models.Subject{}, appErrors.Clone(appErrors.ErrValidation, "theory and internal sub codes must differ")
	}
	return models.Subject{Name: strings.TrimSpace(req.Name), Grade: req.Grade, Theory: theory, Internal: internal}, nil
}

func (s *SubjectService) ensureCodesFree(ctx context.Context, subject models.Subject, excludeID models.SubjectID) error {
	for _, code := range []string{subject.Theory.SubCode, subject.Internal.SubCode} {
		exists, err := s.repo.ExistsBySubCode(ctx, code, excludeID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check sub code")
		}
		if exists {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("sub code %s already exists", code))
		}
	}
	return nil
}

func component(req dto.SubjectComponentRequest) models.SubjectComponent {
	return models.SubjectComponent{
		SubCode:   strings.ToUpper(strings.TrimSpace(req.SubCode)),
		Credit:    req.Credit,
		FullMarks: req.FullMarks,
		PassMarks: req.PassMarks,
	}
}
