package models

import (
	"math"
	"time"
)

// TeacherProgress is the submission state of one teacher for a lesson date.
type TeacherProgress struct {
	Teacher       TeacherProfile `json:"teacher"`
	HasAttendance bool           `json:"hasAttendance"`
	HasEvaluation bool           `json:"hasEvaluation"`
	IsComplete    bool           `json:"isComplete"`
	Cohort        Cohort         `json:"cohort"`
}

// NewTeacherProgress builds progress keeping IsComplete consistent with the two flags.
func NewTeacherProgress(teacher TeacherProfile, hasAttendance, hasEvaluation bool) TeacherProgress {
	return TeacherProgress{
		Teacher:       teacher,
		HasAttendance: hasAttendance,
		HasEvaluation: hasEvaluation,
		IsComplete:    hasAttendance && hasEvaluation,
		Cohort:        teacher.Cohort(),
	}
}

// ReportStatistics aggregates completion counts over a progress set.
type ReportStatistics struct {
	Total               int `json:"total"`
	CompletedBoth       int `json:"completedBoth"`
	CompletedAttendance int `json:"completedAttendance"`
	CompletedEvaluation int `json:"completedEvaluation"`
	CompletedNeither    int `json:"completedNeither"`
	AttendanceRate      int `json:"attendanceRate"`
	EvaluationRate      int `json:"evaluationRate"`
	CompletionRate      int `json:"completionRate"`
}

// ComputeStatistics aggregates progress entries. Rates are 0 for an empty set.
func ComputeStatistics(progress []TeacherProgress) ReportStatistics {
	stats := ReportStatistics{Total: len(progress)}
	for _, p := range progress {
		if p.HasAttendance && p.HasEvaluation {
			stats.CompletedBoth++
		}
		if p.HasAttendance {
			stats.CompletedAttendance++
		}
		if p.HasEvaluation {
			stats.CompletedEvaluation++
		}
		if !p.HasAttendance && !p.HasEvaluation {
			stats.CompletedNeither++
		}
	}
	stats.AttendanceRate = Percent(stats.CompletedAttendance, stats.Total)
	stats.EvaluationRate = Percent(stats.CompletedEvaluation, stats.Total)
	stats.CompletionRate = Percent(stats.CompletedBoth, stats.Total)
	return stats
}

// AttendanceOnly counts teachers with attendance but no evaluation.
func (s ReportStatistics) AttendanceOnly() int {
	return s.CompletedAttendance - s.CompletedBoth
}

// EvaluationOnly counts teachers with an evaluation but no attendance.
func (s ReportStatistics) EvaluationOnly() int {
	return s.CompletedEvaluation - s.CompletedBoth
}

// Percent returns round(count/total*100), or 0 when total is 0.
func Percent(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// WeeklyReport is the transient result of one build, handed to the dispatcher.
type WeeklyReport struct {
	Lesson          Lesson            `json:"lesson"`
	Statistics      ReportStatistics  `json:"statistics"`
	TeacherProgress []TeacherProgress `json:"teacherProgress"`
	JuniorProgress  []TeacherProgress `json:"juniorProgress"`
	SeniorProgress  []TeacherProgress `json:"seniorProgress"`
	GeneratedAt     time.Time         `json:"generatedAt"`
}

// NewWeeklyReport assembles a report from progress entries, deriving the statistics
// and the cohort partitions from them.
func NewWeeklyReport(lesson Lesson, progress []TeacherProgress, generatedAt time.Time) *WeeklyReport {
	if progress == nil {
		progress = []TeacherProgress{}
	}
	return &WeeklyReport{
		Lesson:          lesson,
		Statistics:      ComputeStatistics(progress),
		TeacherProgress: progress,
		JuniorProgress:  FilterCohort(progress, CohortJunior),
		SeniorProgress:  FilterCohort(progress, CohortSenior),
		GeneratedAt:     generatedAt,
	}
}

// FilterCohort returns the entries of one cohort, keeping their order.
func FilterCohort(progress []TeacherProgress, cohort Cohort) []TeacherProgress {
	out := make([]TeacherProgress, 0, len(progress))
	for _, p := range progress {
		if p.Cohort == cohort {
			out = append(out, p)
		}
	}
	return out
}

// Normalized rebuilds a report received from outside the builder. Completion is
// recomputed from the two submission flags and the statistics and partitions from
// the entries. TeacherProgress is the source when present, otherwise the junior and
// senior lists. A teacher without a class keeps the cohort of the list it came in.
func (r WeeklyReport) Normalized() *WeeklyReport {
	declared := make(map[string]Cohort, len(r.JuniorProgress)+len(r.SeniorProgress))
	for _, p := range r.JuniorProgress {
		declared[p.Teacher.ID] = CohortJunior
	}
	for _, p := range r.SeniorProgress {
		declared[p.Teacher.ID] = CohortSenior
	}

	source := r.TeacherProgress
	if len(source) == 0 {
		source = make([]TeacherProgress, 0, len(r.JuniorProgress)+len(r.SeniorProgress))
		source = append(append(source, r.JuniorProgress...), r.SeniorProgress...)
	}

	seen := make(map[string]struct{}, len(source))
	progress := make([]TeacherProgress, 0, len(source))
	for _, p := range source {
		if _, dup := seen[p.Teacher.ID]; dup {
			continue
		}
		seen[p.Teacher.ID] = struct{}{}

		entry := NewTeacherProgress(p.Teacher, p.HasAttendance, p.HasEvaluation)
		if entry.Cohort == CohortUnclassified {
			entry.Cohort = declaredCohort(declared[p.Teacher.ID], p.Cohort)
		}
		progress = append(progress, entry)
	}
	return NewWeeklyReport(r.Lesson, progress, r.GeneratedAt)
}

func declaredCohort(candidates ...Cohort) Cohort {
	for _, c := range candidates {
		if c == CohortJunior || c == CohortSenior {
			return c
		}
	}
	return CohortUnclassified
}
