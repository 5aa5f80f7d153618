package grading

import (
	"fmt"
	"strconv"

	"github.com/noah-isme/result-ledger-api/internal/models"
)

// LedgerColumns returns the catalog subjects assigned, as main or extra
// credit, to at least one of the students, in catalog order.
func LedgerColumns(students []models.Student, catalog Catalog, assignments map[string]models.Assignment) []models.Subject {
	used := make(map[models.SubjectID]struct{})
	for _, student := range students {
		for _, id := range assignments[student.ID].AllSubjectIDs() {
			used[id] = struct{}{}
		}
	}

	columns := make([]models.Subject, 0, len(used))
	for _, subject := range catalog.subjects {
		if _, ok := used[subject.ID]; ok {
			columns = append(columns, subject)
		}
	}
	return columns
}

// BuildMarkLedger assembles the mark-wise ledger. TotalMarks sums theory and
// internal marks over assigned main subjects.
func BuildMarkLedger(students []models.Student, catalog Catalog, assignments map[string]models.Assignment, marks map[string]models.StudentMarks) models.MarkLedger {
	columns := LedgerColumns(students, catalog, assignments)
	ledger := models.MarkLedger{
		Subjects: columns,
		Rows:     make([]models.MarkLedgerRow, 0, len(students)),
	}

	for _, student := range students {
		assignment := assignments[student.ID]
		assignment.StudentID = student.ID
		record := marks[student.ID]

		row := models.MarkLedgerRow{
			Student:    student,
			Assignment: assignment,
			IsAbsent:   record.IsAbsent || student.IsAbsent,
			Cells:      make(map[models.SubjectID]models.MarkCell, len(columns)),
		}
		for _, subject := range columns {
			if !assignment.Has(subject.ID) {
				row.Cells[subject.ID] = models.MarkCell{}
				continue
			}
			cell := models.MarkCell{Assigned: true, ExtraCredit: assignment.IsExtraCredit(subject.ID)}
			if mark, ok := record.Lookup(subject.ID); ok {
				cell.Recorded = true
				cell.Theory = mark.Theory
				cell.Internal = mark.Internal
				if assignment.CountsInGPA(subject.ID) {
					row.TotalMarks += mark.Total()
				}
			}
			row.Cells[subject.ID] = cell
		}
		ledger.Rows = append(ledger.Rows, row)
	}

	return ledger
}

// BuildGradeLedger assembles the grade-wise ledger from computed grades.
func BuildGradeLedger(students []models.Student, catalog Catalog, assignments map[string]models.Assignment, grades models.GradesMap) models.GradeLedger {
	columns := LedgerColumns(students, catalog, assignments)
	ledger := models.GradeLedger{
		Subjects: columns,
		Rows:     make([]models.GradeLedgerRow, 0, len(students)),
	}

	for _, student := range students {
		assignment := assignments[student.ID]
		assignment.StudentID = student.ID
		grade, ok := grades[student.ID]
		if !ok {
			grade = models.StudentGrade{Status: models.GradeStatusNotGraded}
		}

		row := models.GradeLedgerRow{
			Student:    student,
			Assignment: assignment,
			Cells:      make(map[models.SubjectID]models.GradeCell, len(columns)),
			GPA:        grade.GPA,
			GPADisplay: GPADisplay(grade.GPA),
			FinalGrade: FinalGradeFromWGPA(grade.GPA),
			Status:     grade.Status,
		}
		for _, subject := range columns {
			if !assignment.Has(subject.ID) {
				row.Cells[subject.ID] = models.GradeCell{}
				continue
			}
			cell := models.GradeCell{Assigned: true}
			var result models.GradeResult
			var graded bool
			if assignment.CountsInGPA(subject.ID) {
				result, graded = grade.Subjects[subject.ID]
			} else {
				cell.ExtraCredit = true
				if extra := grade.ExtraCredit; extra != nil && extra.SubjectID == subject.ID {
					result, graded = extra.Result, true
				}
			}
			if graded {
				cell.Th = result.Th
				cell.In = result.In
				cell.ThGP = result.ThGP
				cell.InGP = result.InGP
				cell.FinalGrade = SubjectFinalGrade(subject, result)
			}
			row.Cells[subject.ID] = cell
		}
		ledger.Rows = append(ledger.Rows, row)
	}

	return ledger
}

// Table is a ledger flattened into printable rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// MarkLedgerTable flattens a mark ledger. Every subject contributes a theory
// and an internal column; unassigned cells show the placeholder.
func MarkLedgerTable(ledger models.MarkLedger) Table {
	table := Table{Headers: studentHeaders()}
	for _, subject := range ledger.Subjects {
		table.Headers = append(table.Headers, subjectHeaders(subject)...)
	}
	table.Headers = append(table.Headers, "Total", "Remarks")

	for _, row := range ledger.Rows {
		line := studentColumns(row.Student)
		for _, subject := range ledger.Subjects {
			cell := row.Cells[subject.ID]
			switch {
			case !cell.Assigned:
				line = append(line, models.LedgerPlaceholder, models.LedgerPlaceholder)
			case !cell.Recorded:
				line = append(line, "", "")
			default:
				line = append(line, formatMarks(cell.Theory), formatMarks(cell.Internal))
			}
		}
		remarks := ""
		if row.IsAbsent {
			remarks = "ABSENT"
		}
		line = append(line, formatMarks(row.TotalMarks), remarks)
		table.Rows = append(table.Rows, line)
	}
	return table
}

// GradeLedgerTable flattens a grade ledger into letter grades per component.
func GradeLedgerTable(ledger models.GradeLedger) Table {
	table := Table{Headers: studentHeaders()}
	for _, subject := range ledger.Subjects {
		table.Headers = append(table.Headers, subjectHeaders(subject)...)
	}
	table.Headers = append(table.Headers, "GPA", "Grade", "Status")

	for _, row := range ledger.Rows {
		line := studentColumns(row.Student)
		for _, subject := range ledger.Subjects {
			cell := row.Cells[subject.ID]
			if !cell.Assigned {
				line = append(line, models.LedgerPlaceholder, models.LedgerPlaceholder)
				continue
			}
			line = append(line, cell.Th, cell.In)
		}
		line = append(line, row.GPADisplay, row.FinalGrade, string(row.Status))
		table.Rows = append(table.Rows, line)
	}
	return table
}

func studentHeaders() []string {
	return []string{"Roll No", "Symbol No", "Name"}
}

func studentColumns(student models.Student) []string {
	return []string{student.RollNumber, student.SymbolNumber, student.FullName}
}

func subjectHeaders(subject models.Subject) []string {
	return []string{
		fmt.Sprintf("%s (%s)", subject.Name, subject.Theory.SubCode),
		fmt.Sprintf("%s (%s)", subject.Name, subject.Internal.SubCode),
	}
}

func formatMarks(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
