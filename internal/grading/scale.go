// Package grading converts raw marks into grade points, letter grades and
// credit-weighted GPAs using the national grading scale, and assembles
// student × subject ledgers from those results.
//
// Every function is pure: no I/O, no shared state, no errors. Callers are
// free to use it from concurrent goroutines.
package grading

import "github.com/noah-isme/result-ledger-api/internal/models"

// epsilon absorbs float64 representation error at band boundaries.
const epsilon = 1e-9

type percentageBand struct {
	min   float64
	point float64
	grade string
}

// percentageScale is ordered from the highest threshold down.
var percentageScale = []percentageBand{
	{min: 90, point: 4.0, grade: "A+"},
	{min: 80, point: 3.6, grade: "A"},
	{min: 70, point: 3.2, grade: "B+"},
	{min: 60, point: 2.8, grade: "B"},
	{min: 50, point: 2.4, grade: "C+"},
	{min: 40, point: 2.0, grade: "C"},
	{min: 35, point: 1.6, grade: "D"},
	{min: 0, point: 0.0, grade: models.NotGraded},
}

type wgpaBand struct {
	min   float64
	grade string
}

var wgpaScale = []wgpaBand{
	{min: 3.61, grade: "A+"},
	{min: 3.21, grade: "A"},
	{min: 2.81, grade: "B+"},
	{min: 2.41, grade: "B"},
	{min: 2.01, grade: "C+"},
	{min: 1.61, grade: "C"},
	{min: 1.21, grade: "D"},
	{min: 0, grade: models.NotGraded},
}

// LookupPercentage returns the grade point and letter for a percentage.
// Values above 100 resolve to the top band; negative values to NG.
func LookupPercentage(percentage float64) (float64, string) {
	for _, band := range percentageScale {
		if percentage+epsilon >= band.min {
			return band.point, band.grade
		}
	}
	return 0, models.NotGraded
}

// FinalGradeFromWGPA maps a weighted grade point average to its final letter.
// The same table grades a student's overall GPA.
func FinalGradeFromWGPA(wgpa float64) string {
	for _, band := range wgpaScale {
		if wgpa+epsilon >= band.min {
			return band.grade
		}
	}
	return models.NotGraded
}
