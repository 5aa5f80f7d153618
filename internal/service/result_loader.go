package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/result-ledger-api/internal/grading"
	"github.com/noah-isme/result-ledger-api/internal/models"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
)

type scopeStudentReader interface {
	ListByScope(ctx context.Context, scope models.ResultScope) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type catalogReader interface {
	ListByGrade(ctx context.Context, grade int) ([]models.Subject, error)
}

type assignmentReader interface {
	ListByStudents(ctx context.Context, studentIDs []string) ([]models.AssignmentRow, error)
}

type markReader interface {
	ListByStudents(ctx context.Context, studentIDs []string) ([]models.Mark, error)
}

// resultSnapshot is everything the grading engine needs for one scope.
type resultSnapshot struct {
	students    []models.Student
	catalog     grading.Catalog
	assignments map[string]models.Assignment
	marks       map[string]models.StudentMarks
}

func (s resultSnapshot) studentIDs() []string {
	ids := make([]string, 0, len(s.students))
	for _, student := range s.students {
		ids = append(ids, student.ID)
	}
	return ids
}

// ResultLoader reads the students, catalog, assignments and marks of a
// scope in the shape the grading engine consumes.
type ResultLoader struct {
	students    scopeStudentReader
	subjects    catalogReader
	assignments assignmentReader
	marks       markReader
}

// NewResultLoader wires the repositories a scope snapshot is read from.
func NewResultLoader(students scopeStudentReader, subjects catalogReader, assignments assignmentReader, marks markReader) *ResultLoader {
	return &ResultLoader{students: students, subjects: subjects, assignments: assignments, marks: marks}
}

func (l *ResultLoader) loadScope(ctx context.Context, scope models.ResultScope) (*resultSnapshot, error) {
	students, err := l.students.ListByScope(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	return l.assemble(ctx, scope.Grade, students)
}

func (l *ResultLoader) loadStudent(ctx context.Context, studentID string) (*resultSnapshot, error) {
	student, err := l.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return l.assemble(ctx, student.Grade, []models.Student{*student})
}

func (l *ResultLoader) assemble(ctx context.Context, grade int, students []models.Student) (*resultSnapshot, error) {
	subjects, err := l.subjects.ListByGrade(ctx, grade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	snap := &resultSnapshot{students: students, catalog: grading.NewCatalog(subjects)}

	ids := snap.studentIDs()
	rows, err := l.assignments.ListByStudents(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	snap.assignments = models.GroupAssignments(rows)

	marks, err := l.marks.ListByStudents(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	snap.marks = studentMarks(students, marks)
	return snap, nil
}

// studentMarks folds mark rows into one record per student, carrying the
// student's absent flag.
func studentMarks(students []models.Student, marks []models.Mark) map[string]models.StudentMarks {
	result := make(map[string]models.StudentMarks, len(students))
	for _, student := range students {
		result[student.ID] = models.StudentMarks{IsAbsent: student.IsAbsent, PerSubject: map[models.SubjectID]models.MarkPair{}}
	}
	for _, mark := range marks {
		record, ok := result[mark.StudentID]
		if !ok {
			continue
		}
		record.PerSubject[mark.SubjectID] = models.MarkPair{Theory: mark.Theory, Internal: mark.Internal}
	}
	return result
}
