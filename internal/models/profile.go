package models

// ProfileRole represents the portal roles stored on profiles.
type ProfileRole string

const (
	RoleAdmin   ProfileRole = "admin"
	RoleTeacher ProfileRole = "teacher"
)

// ProfileStatus marks whether a profile participates in portal workflows.
type ProfileStatus string

// StatusActive is the only status the report reads.
const StatusActive ProfileStatus = "active"

// Cohort is the derived teaching group of a teacher.
type Cohort string

const (
	CohortJunior       Cohort = "Junior"
	CohortSenior       Cohort = "Senior"
	CohortUnclassified Cohort = ""
)

// JuniorMaxYearLevel is the highest class year level taught in the junior cohort.
const JuniorMaxYearLevel = 5

// CohortForYearLevel classifies a class year level.
func CohortForYearLevel(yearLevel int) Cohort {
	if yearLevel <= JuniorMaxYearLevel {
		return CohortJunior
	}
	return CohortSenior
}

// TeacherProfile is an active teacher joined with the assigned class.
type TeacherProfile struct {
	ID              string        `db:"id" json:"id"`
	FullName        string        `db:"full_name" json:"full_name"`
	Email           string        `db:"email" json:"email"`
	Role            ProfileRole   `db:"role" json:"role"`
	Status          ProfileStatus `db:"status" json:"status"`
	AssignedClassID *string       `db:"assigned_class_id" json:"assigned_class_id,omitempty"`
	ClassName       *string       `db:"class_name" json:"class_name,omitempty"`
	YearLevel       *int          `db:"year_level" json:"year_level,omitempty"`
}

// Cohort derives the teacher's cohort; a missing class relation is unclassified.
func (t TeacherProfile) Cohort() Cohort {
	if t.AssignedClassID == nil || t.YearLevel == nil {
		return CohortUnclassified
	}
	return CohortForYearLevel(*t.YearLevel)
}

// ClassLabel returns the class name or a placeholder when unknown.
func (t TeacherProfile) ClassLabel() string {
	if t.ClassName == nil || *t.ClassName == "" {
		return "No class"
	}
	return *t.ClassName
}

// AdminRecipient is an active admin that receives the weekly report.
type AdminRecipient struct {
	ID       string `db:"id" json:"id"`
	Email    string `db:"email" json:"email"`
	FullName string `db:"full_name" json:"full_name"`
}
