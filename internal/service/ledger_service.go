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

// LedgerService builds the mark-wise and grade-wise ledgers of a scope.
type LedgerService struct {
	loader    *ResultLoader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLedgerService constructs LedgerService.
func NewLedgerService(loader *ResultLoader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LedgerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{loader: loader, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// MarkLedger returns raw marks per student and subject. The bool reports a cache hit.
func (s *LedgerService) MarkLedger(ctx context.Context, scope models.ResultScope) (models.MarkLedger, bool, error) {
	if err := s.validate(scope); err != nil {
		return models.MarkLedger{}, false, err
	}
	return cached(ctx, s.cache, LedgerKey(scope, models.LedgerModeMarks), func() (models.MarkLedger, error) {
		snap, err := s.loader.loadScope(ctx, scope)
		if err != nil {
			return models.MarkLedger{}, err
		}
		start := time.Now()
		ledger := grading.BuildMarkLedger(snap.students, snap.catalog, snap.assignments, snap.marks)
		s.metrics.ObserveGradeComputation("marks_ledger", len(snap.students), time.Since(start))
		return ledger, nil
	})
}

// GradeLedger returns letter grades and GPA per student. The bool reports a cache hit.
func (s *LedgerService) GradeLedger(ctx context.Context, scope models.ResultScope) (models.GradeLedger, bool, error) {
	if err := s.validate(scope); err != nil {
		return models.GradeLedger{}, false, err
	}
	return cached(ctx, s.cache, LedgerKey(scope, models.LedgerModeGrades), func() (models.GradeLedger, error) {
		snap, err := s.loader.loadScope(ctx, scope)
		if err != nil {
			return models.GradeLedger{}, err
		}
		start := time.Now()
		grades := grading.ComputeGradesForStudents(snap.studentIDs(), snap.marks, snap.catalog, snap.assignments)
		ledger := grading.BuildGradeLedger(snap.students, snap.catalog, snap.assignments, grades)
		s.metrics.ObserveGradeComputation("grades_ledger", len(snap.students), time.Since(start))
		return ledger, nil
	})
}

// Table returns the requested ledger flattened for CSV, PDF and terminal output.
func (s *LedgerService) Table(ctx context.Context, scope models.ResultScope, mode models.LedgerMode) (grading.Table, error) {
	switch mode {
	case models.LedgerModeMarks:
		ledger, _, err := s.MarkLedger(ctx, scope)
		if err != nil {
			return grading.Table{}, err
		}
		return grading.MarkLedgerTable(ledger), nil
	case models.LedgerModeGrades:
		ledger, _, err := s.GradeLedger(ctx, scope)
		if err != nil {
			return grading.Table{}, err
		}
		return grading.GradeLedgerTable(ledger), nil
	default:
		return grading.Table{}, appErrors.Clone(appErrors.ErrValidation, "mode must be marks or grades")
	}
}

func (s *LedgerService) validate(scope models.ResultScope) error {
	if err := s.validator.Struct(scope); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scope")
	}
	return nil
}
