package models

import "time"

// CohortScope names which cohorts a lesson was held for.
type CohortScope string

const (
	ScopeJunior CohortScope = "Junior"
	ScopeSenior CohortScope = "Senior"
	ScopeBoth   CohortScope = "Both"
)

// Valid returns true when the scope is one of the supported values.
func (s CohortScope) Valid() bool {
	switch s {
	case ScopeJunior, ScopeSenior, ScopeBoth:
		return true
	default:
		return false
	}
}

// Chapter range accepted by the lesson form.
const (
	DefaultChapterMin = 1
	DefaultChapterMax = 20
)

// DateLayout is the wire format for lesson dates.
const DateLayout = "2006-01-02"

// Lesson is a catechism lesson held on a single calendar date.
type Lesson struct {
	ID        string      `db:"id" json:"id"`
	Date      Date        `db:"date" json:"date"`
	GroupType CohortScope `db:"group_type" json:"group_type"`
	Chapter   *int        `db:"chapter" json:"chapter,omitempty"`
	Notes     *string     `db:"notes" json:"notes,omitempty"`
	CreatedBy *string     `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// DateString formats the lesson date using DateLayout.
func (l Lesson) DateString() string {
	return l.Date.String()
}

// ChapterInRange reports whether the recorded chapter falls in the accepted range.
// Lessons without a chapter are accepted.
func (l Lesson) ChapterInRange() bool {
	if l.Chapter == nil {
		return true
	}
	return *l.Chapter >= DefaultChapterMin && *l.Chapter <= DefaultChapterMax
}
