package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/result-ledger-api/internal/dto"
	"github.com/noah-isme/result-ledger-api/internal/models"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
)

type assignmentRepository interface {
	ListByStudents(ctx context.Context, studentIDs []string) ([]models.AssignmentRow, error)
	Replace(ctx context.Context, assignment models.Assignment) error
	AssignSubject(ctx context.Context, subjectID models.SubjectID, studentIDs []string, extraCredit bool) error
}

type subjectsByID interface {
	ListByIDs(ctx context.Context, ids []models.SubjectID) ([]models.Subject, error)
}

type studentsByID interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

// AssignmentService manages which subjects each student is registered for.
type AssignmentService struct {
	repo      assignmentRepository
	students  studentsByID
	subjects  subjectsByID
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(repo assignmentRepository, students studentsByID, subjects subjectsByID, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, students: students, subjects: subjects, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Get returns a student's current registration. Students with no subjects
// get an empty assignment.
func (s *AssignmentService) Get(ctx context.Context, studentID string) (*models.Assignment, error) {
	if _, err := loadStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	assignment, err := s.current(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Replace overwrites the main subjects and the optional extra-credit subject
// of a student. Every subject must exist and belong to the student's grade.
func (s *AssignmentService) Replace(ctx context.Context, studentID string, req dto.AssignmentRequest, actorID string) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	student, err := loadStudent(ctx, s.students, studentID)
	if err != nil {
		return nil, err
	}

	assignment := models.Assignment{StudentID: studentID, SubjectIDs: dedupeSubjectIDs(req.SubjectIDs), ExtraCredit: req.ExtraCredit}
	if assignment.ExtraCredit != nil && assignment.IsMain(*assignment.ExtraCredit) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "extra credit subject is already a main subject")
	}
	if err := s.checkSubjects(ctx, student.Grade, assignment.AllSubjectIDs()); err != nil {
		return nil, err
	}

	previous, err := s.current(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Replace(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save assignment")
	}
	s.cache.InvalidateSchool(ctx, student.SchoolID)
	s.recordAudit(ctx, actorID, studentID, previous, assignment)
	return &assignment, nil
}

// AssignSubject registers one subject for many students of the subject's
// grade. As extra credit it replaces each student's previous extra-credit
// subject and is refused for students taking it as a main subject.
func (s *AssignmentService) AssignSubject(ctx context.Context, subjectID models.SubjectID, req dto.BulkAssignRequest, actorID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk assignment payload")
	}
	subjects, err := s.subjects.ListByIDs(ctx, []models.SubjectID{subjectID})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if len(subjects) == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	subject := subjects[0]

	ids := dedupeStrings(req.StudentIDs)
	students, err := s.students.ListByIDs(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	if len(students) != len(ids) {
		return appErrors.Clone(appErrors.ErrNotFound, "one or more students not found")
	}
	schools := make(map[string]struct{})
	for _, student := range students {
		if student.Grade != subject.Grade {
			return appErrors.Clone(appErrors.ErrSubjectGradeMismatch, fmt.Sprintf("student %s is in grade %d", student.ID, student.Grade))
		}
		schools[student.SchoolID] = struct{}{}
	}

	if req.IsExtraCredit {
		rows, err := s.repo.ListByStudents(ctx, ids)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
		}
		for _, row := range rows {
			if row.SubjectID == subjectID && !row.IsExtraCredit {
				return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("student %s takes the subject as a main subject", row.StudentID))
			}
		}
	}

	if err := s.repo.AssignSubject(ctx, subjectID, ids, req.IsExtraCredit); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign subject")
	}
	for schoolID := range schools {
		s.cache.InvalidateSchool(ctx, schoolID)
	}
	s.logger.Info("subject assigned", zap.Int64("subject_id", int64(subjectID)), zap.Int("students", len(ids)), zap.Bool("extra_credit", req.IsExtraCredit), zap.String("actor", actorID))
	return nil
}

func (s *AssignmentService) current(ctx context.Context, studentID string) (models.Assignment, error) {
	rows, err := s.repo.ListByStudents(ctx, []string{studentID})
	if err != nil {
		return models.Assignment{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	assignment := models.GroupAssignments(rows)[studentID]
	assignment.StudentID = studentID
	if assignment.SubjectIDs == nil {
		assignment.SubjectIDs = []models.SubjectID{}
	}
	return assignment, nil
}

func (s *AssignmentService) checkSubjects(ctx context.Context, grade int, ids []models.SubjectID) error {
	subjects, err := s.subjects.ListByIDs(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	found := make(map[models.SubjectID]models.Subject, len(subjects))
	for _, subject := range subjects {
		found[subject.ID] = subject
	}
	for _, id := range ids {
		subject, ok := found[id]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %d not found", id))
		}
		if subject.Grade != grade {
			return appErrors.Clone(appErrors.ErrSubjectGradeMismatch, fmt.Sprintf("subject %d belongs to grade %d", id, subject.Grade))
		}
	}
	return nil
}

func (s *AssignmentService) recordAudit(ctx context.Context, actorID, studentID string, before, after models.Assignment) {
	if s.audit == nil {
		return
	}
	oldValues, _ := json.Marshal(before)
	newValues, _ := json.Marshal(after)
	entry := &models.AuditLog{Action: models.AuditActionAssignment, Resource: "students", ResourceID: &studentID, OldValues: oldValues, NewValues: newValues}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("record assignment audit log", zap.String("student_id", studentID), zap.Error(err))
	}
}

func loadStudent(ctx context.Context, students studentsByID, id string) (*models.Student, error) {
	student, err := students.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func dedupeSubjectIDs(ids []models.SubjectID) []models.SubjectID {
	seen := make(map[models.SubjectID]struct{}, len(ids))
	result := make([]models.SubjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
