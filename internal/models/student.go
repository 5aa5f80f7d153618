package models

import "time"

// Student represents a learner registered with a school for one academic year.
type Student struct {
	ID           string    `db:"id" json:"id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	FullName     string    `db:"full_name" json:"full_name"`
	RollNumber   string    `db:"roll_number" json:"roll_number"`
	SymbolNumber string    `db:"symbol_number" json:"symbol_number"`
	Grade        int       `db:"grade" json:"grade"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Section      string    `db:"section" json:"section"`
	IsAbsent     bool      `db:"is_absent" json:"is_absent"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	SchoolID     string
	AcademicYear string
	Grade        int
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// ResultScope selects the students a ledger or grade computation covers.
type ResultScope struct {
	SchoolID     string `form:"schoolId" json:"school_id" validate:"required"`
	AcademicYear string `form:"year" json:"academic_year" validate:"required"`
	Grade        int    `form:"grade" json:"grade" validate:"required,oneof=11 12"`
}
