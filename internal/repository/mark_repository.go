package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/result-ledger-api/internal/models"
)

const upsertMarkQuery = `INSERT INTO marks (student_id, subject_id, theory, internal, updated_at)
        VALUES (:student_id, :subject_id, :theory, :internal, :updated_at)
        ON CONFLICT (student_id, subject_id)
        DO UPDATE SET theory = EXCLUDED.theory, internal = EXCLUDED.internal, updated_at = EXCLUDED.updated_at`

// MarkRepository handles obtained marks persistence.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository creates a new mark repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// ListByStudents returns every recorded mark of the given students.
func (r *MarkRepository) ListByStudents(ctx context.Context, studentIDs []string) ([]models.Mark, error) {
	if len(studentIDs) == 0 {
		return []models.Mark{}, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]interface{}, len(studentIDs))
	for i, id := range studentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT student_id, subject_id, theory, internal, updated_at
        FROM marks WHERE student_id IN (%s)
        ORDER BY student_id, subject_id`, strings.Join(placeholders, ","))
	var marks []models.Mark
	if err := r.db.SelectContext(ctx, &marks, query, args...); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}

// Upsert inserts or updates one mark.
func (r *MarkRepository) Upsert(ctx context.Context, mark *models.Mark) error {
	mark.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, upsertMarkQuery, mark); err != nil {
		return fmt.Errorf("upsert mark: %w", err)
	}
	return nil
}

// BulkUpsert inserts or updates multiple marks in a transaction.
func (r *MarkRepository) BulkUpsert(ctx context.Context, marks []models.Mark) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i := range marks {
		marks[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, upsertMarkQuery, marks[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk upsert mark: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit marks: %w", err)
	}
	return nil
}

// Delete removes the marks of one subject for one student.
func (r *MarkRepository) Delete(ctx context.Context, studentID string, subjectID models.SubjectID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM marks WHERE student_id = $1 AND subject_id = $2", studentID, int64(subjectID))
	if err != nil {
		return fmt.Errorf("delete mark: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check mark delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
