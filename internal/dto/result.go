package dto

import "github.com/noah-isme/result-ledger-api/internal/models"

// SchoolRequest is the create/update payload for schools.
type SchoolRequest struct {
	Code    string `json:"code" validate:"required,max=32"`
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address" validate:"max=255"`
	Phone   string `json:"phone" validate:"max=32"`
}

// StudentRequest is the create/update payload for students.
type StudentRequest struct {
	SchoolID     string `json:"school_id" validate:"required,uuid"`
	FullName     string `json:"full_name" validate:"required,max=255"`
	RollNumber   string `json:"roll_number" validate:"required,max=32"`
	SymbolNumber string `json:"symbol_number" validate:"max=32"`
	Grade        int    `json:"grade" validate:"required,oneof=11 12"`
	AcademicYear string `json:"academic_year" validate:"required,max=16"`
	Section      string `json:"section" validate:"max=16"`
}

// AbsentRequest toggles the absent flag of a student.
type AbsentRequest struct {
	IsAbsent *bool `json:"is_absent" validate:"required"`
}

// SubjectComponentRequest describes the theory or internal part of a subject.
type SubjectComponentRequest struct {
	SubCode   string  `json:"sub_code" validate:"required,max=32"`
	Credit    float64 `json:"credit" validate:"gt=0"`
	FullMarks int     `json:"full_marks" validate:"gt=0"`
	PassMarks int     `json:"pass_marks" validate:"gte=0"`
}

// SubjectRequest is the create/update payload for subjects.
type SubjectRequest struct {
	Name     string                  `json:"name" validate:"required,max=255"`
	Grade    int                     `json:"grade" validate:"required,oneof=11 12"`
	Theory   SubjectComponentRequest `json:"theory" validate:"required"`
	Internal SubjectComponentRequest `json:"internal" validate:"required"`
}

// AssignmentRequest replaces the subjects a student is registered for.
type AssignmentRequest struct {
	SubjectIDs  []models.SubjectID `json:"subject_ids" validate:"required,min=1,dive,gt=0"`
	ExtraCredit *models.SubjectID  `json:"extra_credit,omitempty" validate:"omitempty,gt=0"`
}

// BulkAssignRequest registers one subject for many students.
type BulkAssignRequest struct {
	StudentIDs    []string `json:"student_ids" validate:"required,min=1,dive,required"`
	IsExtraCredit bool     `json:"is_extra_credit"`
}

// MarkEntry is one subject's marks inside a student marks payload.
type MarkEntry struct {
	SubjectID models.SubjectID `json:"subject_id" validate:"required,gt=0"`
	Theory    float64          `json:"theory" validate:"gte=0"`
	Internal  float64          `json:"internal" validate:"gte=0"`
}

// StudentMarksRequest upserts marks for several subjects of one student.
type StudentMarksRequest struct {
	Marks []MarkEntry `json:"marks" validate:"required,min=1,dive"`
}

// BulkMarkEntry is one student's marks inside a bulk payload.
type BulkMarkEntry struct {
	StudentID string  `json:"student_id" validate:"required"`
	Theory    float64 `json:"theory" validate:"gte=0"`
	Internal  float64 `json:"internal" validate:"gte=0"`
}

// BulkMarksRequest upserts one subject's marks for many students.
type BulkMarksRequest struct {
	SubjectID      models.SubjectID `json:"subject_id" validate:"required,gt=0"`
	Entries        []BulkMarkEntry  `json:"entries" validate:"required,min=1,dive"`
	PartialOnError bool             `json:"partial_on_error"`
}

// BulkMarksResult reports the outcome of a bulk upsert.
type BulkMarksResult struct {
	Saved  int               `json:"saved"`
	Failed []BulkMarkFailure `json:"failed,omitempty"`
}

// BulkMarkFailure describes one rejected entry.
type BulkMarkFailure struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// StudentMarksResponse returns a student's absent flag with recorded marks.
type StudentMarksResponse struct {
	StudentID string        `json:"student_id"`
	IsAbsent  bool          `json:"is_absent"`
	Marks     []models.Mark `json:"marks"`
}
