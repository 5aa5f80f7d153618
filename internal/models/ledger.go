package models

// LedgerPlaceholder is rendered in cells of subjects a student does not take.
const LedgerPlaceholder = "-"

// LedgerMode selects between mark-wise and grade-wise ledgers.
type LedgerMode string

const (
	LedgerModeMarks  LedgerMode = "marks"
	LedgerModeGrades LedgerMode = "grades"
)

// MarkCell is one student × subject cell of a mark-wise ledger.
type MarkCell struct {
	Assigned    bool    `json:"assigned"`
	ExtraCredit bool    `json:"extra_credit,omitempty"`
	Recorded    bool    `json:"recorded"`
	Theory      float64 `json:"theory"`
	Internal    float64 `json:"internal"`
}

// MarkLedgerRow is one student in a mark-wise ledger.
type MarkLedgerRow struct {
	Student    Student                `json:"student"`
	Assignment Assignment             `json:"assignment"`
	IsAbsent   bool                   `json:"is_absent"`
	Cells      map[SubjectID]MarkCell `json:"cells"`
	TotalMarks float64                `json:"total_marks"`
}

// MarkLedger is the mark-wise cross tab of students and subjects.
type MarkLedger struct {
	Subjects []Subject       `json:"subjects"`
	Rows     []MarkLedgerRow `json:"rows"`
}

// GradeCell is one student × subject cell of a grade-wise ledger.
type GradeCell struct {
	Assigned    bool    `json:"assigned"`
	ExtraCredit bool    `json:"extra_credit,omitempty"`
	Th          string  `json:"th"`
	In          string  `json:"in"`
	ThGP        float64 `json:"th_gp"`
	InGP        float64 `json:"in_gp"`
	FinalGrade  string  `json:"final_grade"`
}

// GradeLedgerRow is one student in a grade-wise ledger.
type GradeLedgerRow struct {
	Student    Student                 `json:"student"`
	Assignment Assignment              `json:"assignment"`
	Cells      map[SubjectID]GradeCell `json:"cells"`
	GPA        float64                 `json:"gpa"`
	GPADisplay string                  `json:"gpa_display"`
	FinalGrade string                  `json:"final_grade"`
	Status     GradeStatus             `json:"status"`
}

// GradeLedger is the grade-wise cross tab of students and subjects.
type GradeLedger struct {
	Subjects []Subject        `json:"subjects"`
	Rows     []GradeLedgerRow `json:"rows"`
}
