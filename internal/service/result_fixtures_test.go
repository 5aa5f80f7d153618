package service

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/result-ledger-api/internal/models"
)

// fakeStudents is an in-memory student store shared by the result tests.
type fakeStudents struct {
	byID    map[string]models.Student
	deleted []string
	err     error
}

func newFakeStudents(students ...models.Student) *fakeStudents {
	f := &fakeStudents{byID: map[string]models.Student{}}
	for _, s := range students {
		f.byID[s.ID] = s
	}
	return f
}

func (f *fakeStudents) sorted() []models.Student {
	result := make([]models.Student, 0, len(f.byID))
	for _, s := range f.byID {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RollNumber < result[j].RollNumber })
	return result
}

func (f *fakeStudents) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	var result []models.Student
	for _, s := range f.sorted() {
		if filter.SchoolID != "" && s.SchoolID != filter.SchoolID {
			continue
		}
		result = append(result, s)
	}
	return result, len(result), nil
}

func (f *fakeStudents) ListByScope(ctx context.Context, scope models.ResultScope) ([]models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	var result []models.Student
	for _, s := range f.sorted() {
		if s.SchoolID == scope.SchoolID && s.AcademicYear == scope.AcademicYear && s.Grade == scope.Grade {
			result = append(result, s)
		}
	}
	return result, nil
}

func (f *fakeStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeStudents) ListByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	var result []models.Student
	for _, id := range ids {
		if s, ok := f.byID[id]; ok {
			result = append(result, s)
		}
	}
	return result, nil
}

func (f *fakeStudents) ExistsByRollNumber(ctx context.Context, student models.Student) (bool, error) {
	for _, s := range f.byID {
		if s.ID != student.ID && s.SchoolID == student.SchoolID && s.AcademicYear == student.AcademicYear &&
			s.Grade == student.Grade && strings.EqualFold(s.RollNumber, student.RollNumber) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStudents) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "student-" + strconv.Itoa(len(f.byID)+1)
	}
	f.byID[student.ID] = *student
	return nil
}

func (f *fakeStudents) Update(ctx context.Context, student *models.Student) error {
	f.byID[student.ID] = *student
	return nil
}

func (f *fakeStudents) SetAbsent(ctx context.Context, id string, absent bool) error {
	s := f.byID[id]
	s.IsAbsent = absent
	f.byID[id] = s
	return nil
}

func (f *fakeStudents) Delete(ctx context.Context, id string) error {
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSubjects struct {
	byID map[models.SubjectID]models.Subject
}

func newFakeSubjects(subjects ...models.Subject) *fakeSubjects {
	f := &fakeSubjects{byID: map[models.SubjectID]models.Subject{}}
	for _, s := range subjects {
		f.byID[s.ID] = s
	}
	return f
}

func (f *fakeSubjects) ListByGrade(ctx context.Context, grade int) ([]models.Subject, error) {
	var result []models.Subject
	for _, s := range f.byID {
		if s.Grade == grade {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeSubjects) ListByIDs(ctx context.Context, ids []models.SubjectID) ([]models.Subject, error) {
	var result []models.Subject
	for _, id := range ids {
		if s, ok := f.byID[id]; ok {
			result = append(result, s)
		}
	}
	return result, nil
}

type fakeAssignments struct {
	rows []models.AssignmentRow
}

func (f *fakeAssignments) ListByStudents(ctx context.Context, studentIDs []string) ([]models.AssignmentRow, error) {
	wanted := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = struct{}{}
	}
	var result []models.AssignmentRow
	for _, row := range f.rows {
		if _, ok := wanted[row.StudentID]; ok {
			result = append(result, row)
		}
	}
	return result, nil
}

func (f *fakeAssignments) Replace(ctx context.Context, assignment models.Assignment) error {
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.StudentID != assignment.StudentID {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	for _, id := range assignment.SubjectIDs {
		f.rows = append(f.rows, models.AssignmentRow{StudentID: assignment.StudentID, SubjectID: id})
	}
	if assignment.ExtraCredit != nil {
		f.rows = append(f.rows, models.AssignmentRow{StudentID: assignment.StudentID, SubjectID: *assignment.ExtraCredit, IsExtraCredit: true})
	}
	return nil
}

func (f *fakeAssignments) AssignSubject(ctx context.Context, subjectID models.SubjectID, studentIDs []string, extraCredit bool) error {
	for _, studentID := range studentIDs {
		if extraCredit {
			kept := f.rows[:0]
			for _, row := range f.rows {
				if !(row.StudentID == studentID && row.IsExtraCredit) {
					kept = append(kept, row)
				}
			}
			f.rows = kept
		}
		f.rows = append(f.rows, models.AssignmentRow{StudentID: studentID, SubjectID: subjectID, IsExtraCredit: extraCredit})
	}
	return nil
}

// assign registers main subjects for a student.
func (f *fakeAssignments) assign(studentID string, ids ...models.SubjectID) {
	for _, id := range ids {
		f.rows = append(f.rows, models.AssignmentRow{StudentID: studentID, SubjectID: id})
	}
}

type fakeMarks struct {
	marks     map[string]models.Mark
	bulkCalls int
	failFor   string
}

func newFakeMarks() *fakeMarks {
	return &fakeMarks{marks: map[string]models.Mark{}}
}

func markKey(studentID string, subjectID models.SubjectID) string {
	return studentID + "/" + subjectID.String()
}

func (f *fakeMarks) ListByStudents(ctx context.Context, studentIDs []string) ([]models.Mark, error) {
	wanted := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = struct{}{}
	}
	var result []models.Mark
	for _, mark := range f.marks {
		if _, ok := wanted[mark.StudentID]; ok {
			result = append(result, mark)
		}
	}
	sort.Slice(result, func(i, j int) bool { return markKey(result[i].StudentID, result[i].SubjectID) < markKey(result[j].StudentID, result[j].SubjectID) })
	return result, nil
}

func (f *fakeMarks) Upsert(ctx context.Context, mark *models.Mark) error {
	if f.failFor != "" && mark.StudentID == f.failFor {
		return sql.ErrConnDone
	}
	f.marks[markKey(mark.StudentID, mark.SubjectID)] = *mark
	return nil
}

func (f *fakeMarks) BulkUpsert(ctx context.Context, marks []models.Mark) error {
	f.bulkCalls++
	for _, mark := range marks {
		f.marks[markKey(mark.StudentID, mark.SubjectID)] = mark
	}
	return nil
}

func (f *fakeMarks) Delete(ctx context.Context, studentID string, subjectID models.SubjectID) error {
	key := markKey(studentID, subjectID)
	if _, ok := f.marks[key]; !ok {
		return sql.ErrNoRows
	}
	delete(f.marks, key)
	return nil
}

func (f *fakeMarks) put(studentID string, subjectID models.SubjectID, theory, internal float64) {
	f.marks[markKey(studentID, subjectID)] = models.Mark{StudentID: studentID, SubjectID: subjectID, Theory: theory, Internal: internal}
}

type fakeAudit struct {
	logs []*models.AuditLog
}

func (f *fakeAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func testSubject(id models.SubjectID, name string, grade int) models.Subject {
	return models.Subject{
		ID:       id,
		Name:     name,
		Grade:    grade,
		Theory:   models.SubjectComponent{SubCode: strings.ToUpper(name) + "-TH", Credit: 3, FullMarks: 75, PassMarks: 27},
		Internal: models.SubjectComponent{SubCode: strings.ToUpper(name) + "-IN", Credit: 1, FullMarks: 25, PassMarks: 10},
	}
}

func testStudent(id, schoolID, roll string) models.Student {
	return models.Student{
		ID:           id,
		SchoolID:     schoolID,
		FullName:     "Student " + roll,
		RollNumber:   roll,
		Grade:        models.GradeEleven,
		AcademicYear: "2081",
	}
}

// resultFixture wires the fakes behind a ResultLoader.
type resultFixture struct {
	students    *fakeStudents
	subjects    *fakeSubjects
	assignments *fakeAssignments
	marks       *fakeMarks
	loader      *ResultLoader
}

func newResultFixture() *resultFixture {
	f := &resultFixture{
		students: newFakeStudents(
			testStudent("st-1", "school-1", "001"),
			testStudent("st-2", "school-1", "002"),
			testStudent("st-3", "school-2", "001"),
		),
		subjects: newFakeSubjects(
			testSubject(1, "English", models.GradeEleven),
			testSubject(2, "Physics", models.GradeEleven),
			testSubject(3, "Music", models.GradeEleven),
			testSubject(10, "Biology", models.GradeTwelve),
		),
		assignments: &fakeAssignments{},
		marks:       newFakeMarks(),
	}
	f.loader = NewResultLoader(f.students, f.subjects, f.assignments, f.marks)
	return f
}

func scopeOf(schoolID string) models.ResultScope {
	return models.ResultScope{SchoolID: schoolID, AcademicYear: "2081", Grade: models.GradeEleven}
}
