package models

import "time"

// MarkPair holds obtained theory and internal marks for one subject.
type MarkPair struct {
	Theory   float64 `json:"theory"`
	Internal float64 `json:"internal"`
}

// Total is theory plus internal marks.
func (m MarkPair) Total() float64 {
	return m.Theory + m.Internal
}

// StudentMarks is the full mark record of one student. IsAbsent is kept once
// per student and never mixed into the per-subject map.
type StudentMarks struct {
	IsAbsent   bool                   `json:"is_absent"`
	PerSubject map[SubjectID]MarkPair `json:"subjects"`
}

// Lookup returns the marks recorded for a subject.
func (m StudentMarks) Lookup(id SubjectID) (MarkPair, bool) {
	if m.PerSubject == nil {
		return MarkPair{}, false
	}
	mark, ok := m.PerSubject[id]
	return mark, ok
}

// Mark is one persisted marks row.
type Mark struct {
	StudentID string    `db:"student_id" json:"student_id"`
	SubjectID SubjectID `db:"subject_id" json:"subject_id"`
	Theory    float64   `db:"theory" json:"theory"`
	Internal  float64   `db:"internal" json:"internal"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
