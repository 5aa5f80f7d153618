package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/result-ledger-api/internal/models"
)

// AssignmentRepository persists subject registrations of students.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByStudents returns assignment rows for the given students.
func (r *AssignmentRepository) ListByStudents(ctx context.Context, studentIDs []string) ([]models.AssignmentRow, error) {
	if len(studentIDs) == 0 {
		return []models.AssignmentRow{}, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]interface{}, len(studentIDs))
	for i, id := range studentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT student_id, subject_id, is_extra_credit, created_at
        FROM subject_assignments WHERE student_id IN (%s)
        ORDER BY student_id, subject_id`, strings.Join(placeholders, ","))
	var rows []models.AssignmentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return rows, nil
}

// Replace swaps the full registration of a student in one transaction.
func (r *AssignmentRepository) Replace(ctx context.Context, assignment models.Assignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM subject_assignments WHERE student_id = $1", assignment.StudentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear assignments: %w", err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO subject_assignments (student_id, subject_id, is_extra_credit, created_at)
        VALUES (:student_id, :subject_id, :is_extra_credit, :created_at)`
	for _, id := range assignment.AllSubjectIDs() {
		row := models.AssignmentRow{
			StudentID:     assignment.StudentID,
			SubjectID:     id,
			IsExtraCredit: assignment.IsExtraCredit(id),
			CreatedAt:     now,
		}
		if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignments: %w", err)
	}
	return nil
}

// AssignSubject registers one subject for many students. An extra-credit
// registration replaces any previous extra-credit subject of the student.
func (r *AssignmentRepository) AssignSubject(ctx context.Context, subjectID models.SubjectID, studentIDs []string, extraCredit bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	const upsert = `INSERT INTO subject_assignments (student_id, subject_id, is_extra_credit, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (student_id, subject_id) DO UPDATE SET is_extra_credit = EXCLUDED.is_extra_credit`
	for _, studentID := range studentIDs {
		if extraCredit {
			if _, err := tx.ExecContext(ctx, "DELETE FROM subject_assignments WHERE student_id = $1 AND is_extra_credit AND subject_id <> $2", studentID, int64(subjectID)); err != nil {
				tx.Rollback() //nolint:errcheck
				return fmt.Errorf("clear extra credit: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, upsert, studentID, int64(subjectID), extraCredit, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("assign subject: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subject assignment: %w", err)
	}
	return nil
}
