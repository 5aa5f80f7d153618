package grading

import (
	"strconv"

	"github.com/noah-isme/result-ledger-api/internal/models"
)

// BuildMarksheet lays out one student's grade sheet. Lines follow catalog
// order; the extra-credit subject comes last. Assigned subjects without a
// result keep blank letters so the sheet still lists everything registered.
func BuildMarksheet(student models.Student, school *models.School, catalog Catalog, assignment models.Assignment, grade models.StudentGrade) models.Marksheet {
	sheet := models.Marksheet{
		Student:    student,
		School:     school,
		GPA:        grade.GPA,
		GPADisplay: GPADisplay(grade.GPA),
		FinalGrade: FinalGradeFromWGPA(grade.GPA),
		Status:     grade.Status,
		Subjects:   []models.SubjectGradeLine{},
	}

	var extra *models.SubjectGradeLine
	for _, subject := range catalog.Subjects() {
		switch {
		case assignment.CountsInGPA(subject.ID):
			result, ok := grade.Subjects[subject.ID]
			sheet.Subjects = append(sheet.Subjects, gradeLine(subject, result, ok))
		case assignment.IsExtraCredit(subject.ID):
			var (
				result models.GradeResult
				ok     bool
			)
			if grade.ExtraCredit != nil && grade.ExtraCredit.SubjectID == subject.ID {
				result, ok = grade.ExtraCredit.Result, true
			}
			line := gradeLine(subject, result, ok)
			line.ExtraCredit = true
			extra = &line
		}
	}
	if extra != nil {
		sheet.Subjects = append(sheet.Subjects, *extra)
	}
	return sheet
}

func gradeLine(subject models.Subject, result models.GradeResult, graded bool) models.SubjectGradeLine {
	line := models.SubjectGradeLine{
		SubjectID:      subject.ID,
		Name:           subject.Name,
		TheoryCode:     subject.Theory.SubCode,
		InternalCode:   subject.Internal.SubCode,
		TheoryCredit:   subject.Theory.Credit,
		InternalCredit: subject.Internal.Credit,
	}
	if !graded {
		return line
	}
	line.Th = result.Th
	line.In = result.In
	line.ThGP = result.ThGP
	line.InGP = result.InGP
	line.WGPA = WeightedGradePoint(subject, result.ThGP, result.InGP)
	line.FinalGrade = FinalGradeFromWGPA(line.WGPA)
	return line
}

// MarksheetTable flattens a marksheet's subject lines for PDF rendering.
func MarksheetTable(sheet models.Marksheet) Table {
	table := Table{Headers: []string{"Code", "Subject", "Credit", "Grade", "GP", "Final"}}
	for _, line := range sheet.Subjects {
		name := line.Name
		if line.ExtraCredit {
			name += " *"
		}
		table.Rows = append(table.Rows,
			[]string{line.TheoryCode, name + " (TH)", formatMarks(line.TheoryCredit), line.Th, formatPoint(line.ThGP, line.Th), line.FinalGrade},
			[]string{line.InternalCode, name + " (IN)", formatMarks(line.InternalCredit), line.In, formatPoint(line.InGP, line.In), ""},
		)
	}
	return table
}

func formatPoint(point float64, letter string) string {
	if letter == "" {
		return ""
	}
	return strconv.FormatFloat(point, 'f', 1, 64)
}
