// Package models defines the data structures for the Roomy matching engine.
package models

// DormQuery narrows the dorm and room listings a store returns. Stores may
// push these filters down; the matcher re-applies all of them in memory.
type DormQuery struct {
	MaxPrice   float64
	Areas      []string
	University string
	Gender     string
	ExcludeIDs []string
}

// RoommateQuery narrows the students a store returns as roommate candidates.
type RoommateQuery struct {
	ExcludeStudentID string
	ExcludeIDs       []string
	Gender           string
	// NeedsDorm selects students without a place; otherwise students
	// seeking a roommate are selected.
	NeedsDorm bool
}
