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

const subjectColumns = `id, name, grade, theory_sub_code, theory_credit, theory_full_marks, theory_pass_marks,
        internal_sub_code, internal_credit, internal_full_marks, internal_pass_marks, created_at, updated_at`

// SubjectRepository handles persistence for the subject catalog.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects matching filters with pagination metadata.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects WHERE 1=1"
	var args []interface{}

	if filter.Grade != 0 {
		base += fmt.Sprintf(" AND grade = $%d", len(args)+1)
		args = append(args, filter.Grade)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(theory_sub_code) LIKE $%d OR LOWER(internal_sub_code) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	allowedSorts := map[string]bool{
		"id":         true,
		"name":       true,
		"created_at": true,
	}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "id"
	}
	order := sortOrder(filter.SortOrder, "ASC")
	size, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", subjectColumns, base, sortBy, order, size, offset)
	var rows []models.SubjectRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}
	return toSubjects(rows), total, nil
}

// ListByGrade returns the whole catalog of a grade in catalog (id) order.
func (r *SubjectRepository) ListByGrade(ctx context.Context, grade int) ([]models.Subject, error) {
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE grade = $1 ORDER BY id ASC", subjectColumns)
	var rows []models.SubjectRow
	if err := r.db.SelectContext(ctx, &rows, query, grade); err != nil {
		return nil, fmt.Errorf("list subjects by grade: %w", err)
	}
	return toSubjects(rows), nil
}

// ListByIDs returns the subjects with the given identifiers.
func (r *SubjectRepository) ListByIDs(ctx context.Context, ids []models.SubjectID) ([]models.Subject, error) {
	if len(ids) == 0 {
		return []models.Subject{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = int64(id)
	}
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE id IN (%s) ORDER BY id ASC", subjectColumns, strings.Join(placeholders, ","))
	var rows []models.SubjectRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects by ids: %w", err)
	}
	return toSubjects(rows), nil
}

// FindByID returns a subject by ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id models.SubjectID) (*models.Subject, error) {
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE id = $1", subjectColumns)
	var row models.SubjectRow
	if err := r.db.GetContext(ctx, &row, query, int64(id)); err != nil {
		return nil, err
	}
	subject := row.ToSubject()
	return &subject, nil
}

// ExistsBySubCode reports whether any subject already uses the code for either component.
func (r *SubjectRepository) ExistsBySubCode(ctx context.Context, code string, excludeID models.SubjectID) (bool, error) {
	query := "SELECT 1 FROM subjects WHERE (LOWER(theory_sub_code) = LOWER($1) OR LOWER(internal_sub_code) = LOWER($1))"
	args := []interface{}{code}
	if excludeID != 0 {
		query += " AND id <> $2"
		args = append(args, int64(excludeID))
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check subject code: %w", err)
	}
	return true, nil
}

// Create inserts a subject and assigns the generated identifier.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	row := models.NewSubjectRow(*subject)
	const query = `INSERT INTO subjects (name, grade, theory_sub_code, theory_credit, theory_full_marks, theory_pass_marks,
        internal_sub_code, internal_credit, internal_full_marks, internal_pass_marks, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	var id int64
	if err := r.db.QueryRowxContext(ctx, query,
		row.Name, row.Grade,
		row.TheorySubCode, row.TheoryCredit, row.TheoryFullMarks, row.TheoryPassMarks,
		row.InternalSubCode, row.InternalCredit, row.InternalFullMarks, row.InternalPassMarks,
		row.CreatedAt, row.UpdatedAt,
	).Scan(&id); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	subject.ID = models.SubjectID(id)
	return nil
}

// Update modifies an existing subject.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET name = :name, grade = :grade,
        theory_sub_code = :theory_sub_code, theory_credit = :theory_credit, theory_full_marks = :theory_full_marks, theory_pass_marks = :theory_pass_marks,
        internal_sub_code = :internal_sub_code, internal_credit = :internal_credit, internal_full_marks = :internal_full_marks, internal_pass_marks = :internal_pass_marks,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, models.NewSubjectRow(*subject)); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a subject permanently.
func (r *SubjectRepository) Delete(ctx context.Context, id models.SubjectID) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM subjects WHERE id = $1", int64(id)); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

// CountAssignments returns how many students are registered for the subject.
func (r *SubjectRepository) CountAssignments(ctx context.Context, id models.SubjectID) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM subject_assignments WHERE subject_id = $1", int64(id)); err != nil {
		return 0, fmt.Errorf("count subject assignments: %w", err)
	}
	return total, nil
}

func toSubjects(rows []models.SubjectRow) []models.Subject {
	subjects := make([]models.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, row.ToSubject())
	}
	return subjects
}
