package models

import "time"

// Assignment lists the subjects a student is registered for. SubjectIDs are the
// main subjects counted in GPA; ExtraCredit is graded for display only.
type Assignment struct {
	StudentID   string      `json:"student_id"`
	SubjectIDs  []SubjectID `json:"subject_ids"`
	ExtraCredit *SubjectID  `json:"extra_credit,omitempty"`
}

// IsMain reports whether the subject is one of the main subjects.
func (a Assignment) IsMain(id SubjectID) bool {
	for _, sid := range a.SubjectIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// IsExtraCredit reports whether the subject is the extra-credit subject.
func (a Assignment) IsExtraCredit(id SubjectID) bool {
	return a.ExtraCredit != nil && *a.ExtraCredit == id
}

// CountsInGPA reports whether the subject feeds the GPA. The extra-credit
// subject never does, even when it is also listed as a main subject.
func (a Assignment) CountsInGPA(id SubjectID) bool {
	return a.IsMain(id) && !a.IsExtraCredit(id)
}

// GPASubjectIDs returns the main subjects without the extra-credit subject.
func (a Assignment) GPASubjectIDs() []SubjectID {
	ids := make([]SubjectID, 0, len(a.SubjectIDs))
	for _, id := range a.SubjectIDs {
		if !a.IsExtraCredit(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Has reports whether the subject is assigned at all.
func (a Assignment) Has(id SubjectID) bool {
	return a.IsMain(id) || a.IsExtraCredit(id)
}

// AllSubjectIDs returns GPA subjects followed by the extra-credit subject.
func (a Assignment) AllSubjectIDs() []SubjectID {
	ids := a.GPASubjectIDs()
	if a.ExtraCredit != nil {
		ids = append(ids, *a.ExtraCredit)
	}
	return ids
}

// AssignmentRow is the persisted registration of one subject.
type AssignmentRow struct {
	StudentID     string    `db:"student_id"`
	SubjectID     SubjectID `db:"subject_id"`
	IsExtraCredit bool      `db:"is_extra_credit"`
	CreatedAt     time.Time `db:"created_at"`
}

// GroupAssignments folds rows into one Assignment per student.
func GroupAssignments(rows []AssignmentRow) map[string]Assignment {
	result := make(map[string]Assignment)
	for _, row := range rows {
		assignment := result[row.StudentID]
		assignment.StudentID = row.StudentID
		if row.IsExtraCredit {
			id := row.SubjectID
			assignment.ExtraCredit = &id
		} else {
			assignment.SubjectIDs = append(assignment.SubjectIDs, row.SubjectID)
		}
		result[row.StudentID] = assignment
	}
	return result
}
