package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SubjectID identifies a subject across the catalog, marks and assignments.
type SubjectID int64

// String renders the identifier the way storage and JSON map keys expect it.
func (id SubjectID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseSubjectID converts a path/query/map key into a SubjectID.
func ParseSubjectID(raw string) (SubjectID, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid subject id %q", raw)
	}
	return SubjectID(value), nil
}

// Supported academic levels.
const (
	GradeEleven = 11
	GradeTwelve = 12
)

// SubjectComponent describes the theory or internal part of a subject.
type SubjectComponent struct {
	SubCode   string  `json:"sub_code"`
	Credit    float64 `json:"credit"`
	FullMarks int     `json:"full_marks"`
	PassMarks int     `json:"pass_marks"`
}

// Subject represents a catalog subject with its two graded components.
type Subject struct {
	ID        SubjectID        `json:"id"`
	Name      string           `json:"name"`
	Grade     int              `json:"grade"`
	Theory    SubjectComponent `json:"theory"`
	Internal  SubjectComponent `json:"internal"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TotalCredit is the credit hours of both components.
func (s Subject) TotalCredit() float64 {
	return s.Theory.Credit + s.Internal.Credit
}

// SubjectRow is the flattened database shape of Subject.
type SubjectRow struct {
	ID                SubjectID `db:"id"`
	Name              string    `db:"name"`
	Grade             int       `db:"grade"`
	TheorySubCode     string    `db:"theory_sub_code"`
	TheoryCredit      float64   `db:"theory_credit"`
	TheoryFullMarks   int       `db:"theory_full_marks"`
	TheoryPassMarks   int       `db:"theory_pass_marks"`
	InternalSubCode   string    `db:"internal_sub_code"`
	InternalCredit    float64   `db:"internal_credit"`
	InternalFullMarks int       `db:"internal_full_marks"`
	InternalPassMarks int       `db:"internal_pass_marks"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// ToSubject expands the row into the domain struct.
func (r SubjectRow) ToSubject() Subject {
	return Subject{
		ID:    r.ID,
		Name:  r.Name,
		Grade: r.Grade,
		Theory: SubjectComponent{
			SubCode:   r.TheorySubCode,
			Credit:    r.TheoryCredit,
			FullMarks: r.TheoryFullMarks,
			PassMarks: r.TheoryPassMarks,
		},
		Internal: SubjectComponent{
			SubCode:   r.InternalSubCode,
			Credit:    r.InternalCredit,
			FullMarks: r.InternalFullMarks,
			PassMarks: r.InternalPassMarks,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// NewSubjectRow flattens a subject for persistence.
func NewSubjectRow(s Subject) SubjectRow {
	return SubjectRow{
		ID:                s.ID,
		Name:              s.Name,
		Grade:             s.Grade,
		TheorySubCode:     s.Theory.SubCode,
		TheoryCredit:      s.Theory.Credit,
		TheoryFullMarks:   s.Theory.FullMarks,
		TheoryPassMarks:   s.Theory.PassMarks,
		InternalSubCode:   s.Internal.SubCode,
		InternalCredit:    s.Internal.Credit,
		InternalFullMarks: s.Internal.FullMarks,
		InternalPassMarks: s.Internal.PassMarks,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Grade     int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
