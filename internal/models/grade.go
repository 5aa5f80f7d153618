package models

// GradeStatus tells apart the meanings a zero GPA can carry.
type GradeStatus string

const (
	// GradeStatusGraded means GPA was computed from at least one subject.
	GradeStatusGraded GradeStatus = "GRADED"
	// GradeStatusAbsent means the student was marked absent.
	GradeStatusAbsent GradeStatus = "ABSENT"
	// GradeStatusNotGraded means no assigned subject carried marks and credit.
	GradeStatusNotGraded GradeStatus = "NOT_GRADED"
)

// NotGraded is the letter and display value for a zero grade point.
const NotGraded = "NG"

// GradeResult is the per-subject theory/internal outcome for one student.
type GradeResult struct {
	Th   string  `json:"th"`
	In   string  `json:"in"`
	ThGP float64 `json:"th_gp"`
	InGP float64 `json:"in_gp"`
}

// ExtraCreditGrade carries the display-only grade of the extra-credit subject.
type ExtraCreditGrade struct {
	SubjectID SubjectID   `json:"subject_id"`
	Result    GradeResult `json:"result"`
}

// StudentGrade summarises a student's graded subjects and overall GPA.
type StudentGrade struct {
	GPA         float64                   `json:"gpa"`
	Status      GradeStatus               `json:"status"`
	Subjects    map[SubjectID]GradeResult `json:"subjects"`
	ExtraCredit *ExtraCreditGrade         `json:"extra_credit,omitempty"`
}

// GradesMap is keyed by student identifier.
type GradesMap map[string]StudentGrade

// SubjectGradeLine is one printable marksheet row.
type SubjectGradeLine struct {
	SubjectID      SubjectID `json:"subject_id"`
	Name           string    `json:"name"`
	TheoryCode     string    `json:"theory_code"`
	InternalCode   string    `json:"internal_code"`
	TheoryCredit   float64   `json:"theory_credit"`
	InternalCredit float64   `json:"internal_credit"`
	Th             string    `json:"th"`
	In             string    `json:"in"`
	ThGP           float64   `json:"th_gp"`
	InGP           float64   `json:"in_gp"`
	WGPA           float64   `json:"wgpa"`
	FinalGrade     string    `json:"final_grade"`
	ExtraCredit    bool      `json:"extra_credit"`
}

// Marksheet is the grade sheet of one student.
type Marksheet struct {
	Student    Student            `json:"student"`
	School     *School            `json:"school,omitempty"`
	GPA        float64            `json:"gpa"`
	GPADisplay string             `json:"gpa_display"`
	FinalGrade string             `json:"final_grade"`
	Status     GradeStatus        `json:"status"`
	Subjects   []SubjectGradeLine `json:"subjects"`
}
