package models

import "fmt"

// PeriodsPerYear is the number of grading terms in a school year.
const PeriodsPerYear = 4

// Period identifies one of the four bimonthly grading terms of a year.
// (Ordinal, Year) pairs are unique.
type Period struct {
	ID      string `db:"id" json:"id"`
	Ordinal int    `db:"ordinal" json:"ordinal"`
	Year    int    `db:"year" json:"year"`
}

// Label renders the period the way report cards show it, e.g. "2º Bimestre/2025".
func (p Period) Label() string {
	return fmt.Sprintf("%dº Bimestre/%d", p.Ordinal, p.Year)
}

// ValidOrdinal reports whether the ordinal falls in the 1..4 range.
func ValidOrdinal(ordinal int) bool {
	return ordinal >= 1 && ordinal <= PeriodsPerYear
}
