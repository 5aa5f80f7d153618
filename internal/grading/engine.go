package grading

import (
	"fmt"
	"sort"

	"github.com/noah-isme/result-ledger-api/internal/models"
)

// ComponentGrade is the outcome of one theory or internal component.
type ComponentGrade struct {
	Point float64
	Grade string
}

// SubjectGrade is the outcome of one subject for one student.
type SubjectGrade struct {
	Theory     ComponentGrade
	Internal   ComponentGrade
	WGPA       float64
	FinalGrade string
}

// Result converts the subject outcome into its stored projection.
func (g SubjectGrade) Result() models.GradeResult {
	return models.GradeResult{
		Th:   g.Theory.Grade,
		In:   g.Internal.Grade,
		ThGP: g.Theory.Point,
		InGP: g.Internal.Point,
	}
}

// Percentage returns obtained/fullMarks as a percentage, or 0 when the full
// marks are not positive.
func Percentage(obtained, fullMarks float64) float64 {
	if fullMarks <= 0 {
		return 0
	}
	return (obtained / fullMarks) * 100
}

// ComputeComponentGrade grades one component from obtained and full marks.
func ComputeComponentGrade(obtained, fullMarks float64) ComponentGrade {
	point, grade := LookupPercentage(Percentage(obtained, fullMarks))
	return ComponentGrade{Point: point, Grade: grade}
}

// WeightedGradePoint is the credit-weighted mean of the two component points.
func WeightedGradePoint(subject models.Subject, thGP, inGP float64) float64 {
	credits := subject.Theory.Credit + subject.Internal.Credit
	if credits <= 0 {
		return 0
	}
	return (thGP*subject.Theory.Credit + inGP*subject.Internal.Credit) / credits
}

// ComputeSubjectGrade grades both components of a subject and derives the
// subject's WGPA and final letter.
func ComputeSubjectGrade(subject models.Subject, mark models.MarkPair) SubjectGrade {
	theory := ComputeComponentGrade(mark.Theory, float64(subject.Theory.FullMarks))
	internal := ComputeComponentGrade(mark.Internal, float64(subject.Internal.FullMarks))
	wgpa := WeightedGradePoint(subject, theory.Point, internal.Point)
	return SubjectGrade{
		Theory:     theory,
		Internal:   internal,
		WGPA:       wgpa,
		FinalGrade: FinalGradeFromWGPA(wgpa),
	}
}

// SubjectFinalGrade recomputes a subject's final letter from stored points.
func SubjectFinalGrade(subject models.Subject, result models.GradeResult) string {
	return FinalGradeFromWGPA(WeightedGradePoint(subject, result.ThGP, result.InGP))
}

// GPADisplay renders a GPA, showing NG for zero.
func GPADisplay(gpa float64) string {
	if gpa == 0 {
		return models.NotGraded
	}
	return fmt.Sprintf("%.2f", gpa)
}

// ComputeStudentGPA returns the credit-weighted GPA over the assigned main
// subjects. Absent students, and students without any graded credit, get 0.
func ComputeStudentGPA(marks models.StudentMarks, assigned []models.SubjectID, catalog Catalog) float64 {
	gpa, _, _ := aggregate(marks, assigned, catalog)
	return gpa
}

// ComputeStudentGrade grades one student: main subjects feed the GPA and the
// extra-credit subject, when graded, is reported beside it. A subject named
// as extra credit stays out of the GPA even if it is also listed as main.
func ComputeStudentGrade(marks models.StudentMarks, assignment models.Assignment, catalog Catalog) models.StudentGrade {
	if marks.IsAbsent {
		return models.StudentGrade{
			GPA:      0,
			Status:   models.GradeStatusAbsent,
			Subjects: map[models.SubjectID]models.GradeResult{},
		}
	}

	gpa, subjects, graded := aggregate(marks, assignment.GPASubjectIDs(), catalog)
	grade := models.StudentGrade{
		GPA:      gpa,
		Status:   models.GradeStatusNotGraded,
		Subjects: subjects,
	}
	if graded {
		grade.Status = models.GradeStatusGraded
	}

	if extra := assignment.ExtraCredit; extra != nil {
		subject, okSubject := catalog.Lookup(*extra)
		mark, okMark := marks.Lookup(*extra)
		if okSubject && okMark {
			grade.ExtraCredit = &models.ExtraCreditGrade{
				SubjectID: *extra,
				Result:    ComputeSubjectGrade(subject, mark).Result(),
			}
		}
	}

	return grade
}

// ComputeGradesForStudents grades every listed student. Students without a
// marks record or an assignment are graded against empty inputs.
func ComputeGradesForStudents(studentIDs []string, allMarks map[string]models.StudentMarks, catalog Catalog, assignments map[string]models.Assignment) models.GradesMap {
	result := make(models.GradesMap, len(studentIDs))
	for _, id := range studentIDs {
		result[id] = ComputeStudentGrade(allMarks[id], assignments[id], catalog)
	}
	return result
}

// aggregate sums weighted points in ascending subject order so the result
// does not depend on the order of the assignment list.
func aggregate(marks models.StudentMarks, assigned []models.SubjectID, catalog Catalog) (float64, map[models.SubjectID]models.GradeResult, bool) {
	subjects := map[models.SubjectID]models.GradeResult{}
	if marks.IsAbsent {
		return 0, subjects, false
	}

	var totalWeighted, totalCredits float64
	for _, id := range uniqueSorted(assigned) {
		subject, ok := catalog.Lookup(id)
		if !ok {
			continue
		}
		mark, ok := marks.Lookup(id)
		if !ok {
			continue
		}

		graded := ComputeSubjectGrade(subject, mark)
		subjects[id] = graded.Result()
		totalWeighted += graded.Theory.Point*subject.Theory.Credit + graded.Internal.Point*subject.Internal.Credit
		totalCredits += subject.Theory.Credit + subject.Internal.Credit
	}

	if totalCredits <= 0 {
		return 0, subjects, false
	}
	return totalWeighted / totalCredits, subjects, true
}

func uniqueSorted(ids []models.SubjectID) []models.SubjectID {
	seen := make(map[models.SubjectID]struct{}, len(ids))
	out := make([]models.SubjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
