package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/result-ledger-api/internal/models"
)

func TestBuildMarksheet(t *testing.T) {
	catalog := sampleCatalog()
	extra := models.SubjectID(4)
	assignment := models.Assignment{StudentID: "s1", SubjectIDs: []models.SubjectID{3, 1}, ExtraCredit: &extra}
	marks := models.StudentMarks{PerSubject: map[models.SubjectID]models.MarkPair{
		1: {Theory: 68, Internal: 20},
		4: {Theory: 60, Internal: 15},
	}}
	grade := ComputeStudentGrade(marks, assignment, catalog)
	student := models.Student{ID: "s1", FullName: "Asha Gurung", RollNumber: "7"}
	school := &models.School{Name: "Shree Janata Secondary School"}

	sheet := BuildMarksheet(student, school, catalog, assignment, grade)

	assert.Equal(t, "3.90", sheet.GPADisplay)
	assert.Equal(t, "A+", sheet.FinalGrade)
	assert.Equal(t, models.GradeStatusGraded, sheet.Status)
	assert.Same(t, school, sheet.School)
	require.Len(t, sheet.Subjects, 3)

	assert.Equal(t, models.SubjectID(1), sheet.Subjects[0].SubjectID)
	assert.Equal(t, "A+", sheet.Subjects[0].FinalGrade)
	assert.InDelta(t, 3.9, sheet.Subjects[0].WGPA, 1e-9)

	physics := sheet.Subjects[1]
	assert.Equal(t, models.SubjectID(3), physics.SubjectID)
	assert.Empty(t, physics.Th)
	assert.Empty(t, physics.FinalGrade)

	computer := sheet.Subjects[2]
	assert.True(t, computer.ExtraCredit)
	assert.Equal(t, "A", computer.Th)
	assert.Equal(t, "B", computer.In)
	assert.Equal(t, "A", computer.FinalGrade)
}

func TestBuildMarksheetAbsent(t *testing.T) {
	catalog := sampleCatalog()
	assignment := models.Assignment{StudentID: "s1", SubjectIDs: []models.SubjectID{1}}
	grade := ComputeStudentGrade(models.StudentMarks{IsAbsent: true, PerSubject: map[models.SubjectID]models.MarkPair{1: {Theory: 70, Internal: 25}}}, assignment, catalog)

	sheet := BuildMarksheet(models.Student{ID: "s1"}, nil, catalog, assignment, grade)

	assert.Equal(t, "NG", sheet.GPADisplay)
	assert.Equal(t, "NG", sheet.FinalGrade)
	assert.Equal(t, models.GradeStatusAbsent, sheet.Status)
	require.Len(t, sheet.Subjects, 1)
	assert.Empty(t, sheet.Subjects[0].Th)
}

func TestMarksheetTable(t *testing.T) {
	catalog := sampleCatalog()
	extra := models.SubjectID(4)
	assignment := models.Assignment{SubjectIDs: []models.SubjectID{1}, ExtraCredit: &extra}
	marks := models.StudentMarks{PerSubject: map[models.SubjectID]models.MarkPair{
		1: {Theory: 68, Internal: 20},
		4: {Theory: 60, Internal: 15},
	}}
	sheet := BuildMarksheet(models.Student{}, nil, catalog, assignment, ComputeStudentGrade(marks, assignment, catalog))

	table := MarksheetTable(sheet)

	assert.Equal(t, []string{"Code", "Subject", "Credit", "Grade", "GP", "Final"}, table.Headers)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, []string{"English-TH", "English (TH)", "2.25", "A+", "4.0", "A+"}, table.Rows[0])
	assert.Equal(t, []string{"English-IN", "English (IN)", "0.75", "A", "3.6", ""}, table.Rows[1])
	assert.Equal(t, []string{"Computer-TH", "Computer * (TH)", "2.25", "A", "3.6", "A"}, table.Rows[2])
}
