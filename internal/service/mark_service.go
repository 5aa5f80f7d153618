package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/result-ledger-api/internal/dto"
	"github.com/noah-isme/result-ledger-api/internal/models"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
)

type markRepository interface {
	ListByStudents(ctx context.Context, studentIDs []string) ([]models.Mark, error)
	Upsert(ctx context.Context, mark *models.Mark) error
	BulkUpsert(ctx context.Context, marks []models.Mark) error
	Delete(ctx context.Context, studentID string, subjectID models.SubjectID) error
}

// MarkService records obtained marks. Every mark is range checked against
// the subject's full marks and must target an assigned subject.
type MarkService struct {
	repo        markRepository
	students    studentsByID
	subjects    subjectsByID
	assignments assignmentReader
	audit       auditRecorder
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMarkService constructs MarkService.
func NewMarkService(repo markRepository, students studentsByID, subjects subjectsByID, assignments assignmentReader, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkService{
		repo:        repo,
		students:    students,
		subjects:    subjects,
		assignments: assignments,
		audit:       audit,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// StudentMarks returns the recorded marks and absent flag of a student.
func (s *MarkService) StudentMarks(ctx context.Context, studentID string) (*dto.StudentMarksResponse, error) {
	student, err := loadStudent(ctx, s.students, studentID)
	if err != nil {
		return nil, err
	}
	marks, err := s.repo.ListByStudents(ctx, []string{studentID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	if marks == nil {
		marks = []models.Mark{}
	}
	return &dto.StudentMarksResponse{StudentID: student.ID, IsAbsent: student.IsAbsent, Marks: marks}, nil
}

// UpsertStudentMarks saves several subjects' marks of one student atomically.
func (s *MarkService) UpsertStudentMarks(ctx context.Context, studentID string, req dto.StudentMarksRequest, actorID string) ([]models.Mark, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}
	student, err := loadStudent(ctx, s.students, studentID)
	if err != nil {
		return nil, err
	}

	ids := make([]models.SubjectID, 0, len(req.Marks))
	for _, entry := range req.Marks {
		ids = append(ids, entry.SubjectID)
	}
	subjects, err := s.subjectIndex(ctx, ids)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignmentIndex(ctx, []string{studentID})
	if err != nil {
		return nil, err
	}

	marks := make([]models.Mark, 0, len(req.Marks))
	seen := make(map[models.SubjectID]struct{}, len(req.Marks))
	for _, entry := range req.Marks {
		if _, dup := seen[entry.SubjectID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %d listed twice", entry.SubjectID))
		}
		seen[entry.SubjectID] = struct{}{}

		mark := models.Mark{StudentID: studentID, SubjectID: entry.SubjectID, Theory: entry.Theory, Internal: entry.Internal}
		if err := checkMark(mark, subjects, assignments[studentID]); err != nil {
			return nil, err
		}
		marks = append(marks, mark)
	}

	if err := s.repo.BulkUpsert(ctx, marks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save marks")
	}
	s.cache.InvalidateSchool(ctx, student.SchoolID)
	s.recordAudit(ctx, actorID, studentID, marks)
	return marks, nil
}

// BulkUpsert saves one subject's marks for many students. By default the
// whole batch is rejected on the first invalid entry; with PartialOnError
// valid entries are saved and the rest reported.
func (s *MarkService) BulkUpsert(ctx context.Context, req dto.BulkMarksRequest, actorID string) (*dto.BulkMarksResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk marks payload")
	}
	subjects, err := s.subjectIndex(ctx, []models.SubjectID{req.SubjectID})
	if err != nil {
		return nil, err
	}

	studentIDs := make([]string, 0, len(req.Entries))
	for _, entry := range req.Entries {
		studentIDs = append(studentIDs, entry.StudentID)
	}
	studentIDs = dedupeStrings(studentIDs)
	students, err := s.students.ListByIDs(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	schoolOf := make(map[string]string, len(students))
	for _, student := range students {
		schoolOf[student.ID] = student.SchoolID
	}
	assignments, err := s.assignmentIndex(ctx, studentIDs)
	if err != nil {
		return nil, err
	}

	result := &dto.BulkMarksResult{}
	valid := make([]models.Mark, 0, len(req.Entries))
	for _, entry := range req.Entries {
		mark := models.Mark{StudentID: entry.StudentID, SubjectID: req.SubjectID, Theory: entry.Theory, Internal: entry.Internal}
		var err error
		if _, ok := schoolOf[entry.StudentID]; !ok {
			err = appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", entry.StudentID))
		} else {
			err = checkMark(mark, subjects, assignments[entry.StudentID])
		}
		if err != nil {
			if !req.PartialOnError {
				return nil, err
			}
			result.Failed = append(result.Failed, dto.BulkMarkFailure{StudentID: entry.StudentID, Reason: appErrors.FromError(err).Message})
			continue
		}
		valid = append(valid, mark)
	}

	saved := valid
	if req.PartialOnError {
		saved = make([]models.Mark, 0, len(valid))
		for i := range valid {
			if err := s.repo.Upsert(ctx, &valid[i]); err != nil {
				result.Failed = append(result.Failed, dto.BulkMarkFailure{StudentID: valid[i].StudentID, Reason: err.Error()})
				continue
			}
			saved = append(saved, valid[i])
		}
	} else if err := s.repo.BulkUpsert(ctx, valid); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save marks")
	}
	result.Saved = len(saved)

	touched := make(map[string]struct{})
	for _, mark := range saved {
		touched[schoolOf[mark.StudentID]] = struct{}{}
	}
	for schoolID := range touched {
		s.cache.InvalidateSchool(ctx, schoolID)
	}
	s.logger.Info("bulk marks saved", zap.Int64("subject_id", int64(req.SubjectID)), zap.Int("saved", result.Saved), zap.Int("failed", len(result.Failed)))
	return result, nil
}

// Delete clears one subject's marks of a student.
func (s *MarkService) Delete(ctx context.Context, studentID string, subjectID models.SubjectID) error {
	student, err := loadStudent(ctx, s.students, studentID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, studentID, subjectID); err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "marks not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete marks")
	}
	s.cache.InvalidateSchool(ctx, student.SchoolID)
	return nil
}

func (s *MarkService) subjectIndex(ctx context.Context, ids []models.SubjectID) (map[models.SubjectID]models.Subject, error) {
	subjects, err := s.subjects.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	index := make(map[models.SubjectID]models.Subject, len(subjects))
	for _, subject := range subjects {
		index[subject.ID] = subject
	}
	return index, nil
}

func (s *MarkService) assignmentIndex(ctx context.Context, studentIDs []string) (map[string]models.Assignment, error) {
	rows, err := s.assignments.ListByStudents(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	return models.GroupAssignments(rows), nil
}

func (s *MarkService) recordAudit(ctx context.Context, actorID, studentID string, marks []models.Mark) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(marks)
	entry := &models.AuditLog{Action: models.AuditActionMarksUpsert, Resource: "marks", ResourceID: &studentID, NewValues: payload}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("record marks audit log", zap.String("student_id", studentID), zap.Error(err))
	}
}

// checkMark enforces 0 <= mark <= full marks per component and that the
// subject is registered for the student.
func checkMark(mark models.Mark, subjects map[models.SubjectID]models.Subject, assignment models.Assignment) error {
	subject, ok := subjects[mark.SubjectID]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %d not found", mark.SubjectID))
	}
	if !assignment.Has(mark.SubjectID) {
		return appErrors.Clone(appErrors.ErrSubjectNotAssigned, fmt.Sprintf("subject %d is not assigned to student %s", mark.SubjectID, mark.StudentID))
	}
	if mark.Theory < 0 || mark.Theory > float64(subject.Theory.FullMarks) {
		return appErrors.Clone(appErrors.ErrMarksOutOfRange, fmt.Sprintf("theory marks must be between 0 and %d", subject.Theory.FullMarks))
	}
	if mark.Internal < 0 || mark.Internal > float64(subject.Internal.FullMarks) {
		return appErrors.Clone(appErrors.ErrMarksOutOfRange, fmt.Sprintf("internal marks must be between 0 and %d", subject.Internal.FullMarks))
	}
	return nil
}
