package models

// RecipientOutcome records one delivery attempt.
type RecipientOutcome struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DispatchSummary aggregates the per-recipient outcomes of one send.
type DispatchSummary struct {
	LessonDate   string             `json:"lessonDate"`
	Total        int                `json:"total"`
	SuccessCount int                `json:"successCount"`
	FailCount    int                `json:"failCount"`
	Results      []RecipientOutcome `json:"results"`
	Failures     []RecipientOutcome `json:"failures,omitempty"`
}

// Summarize counts outcomes into a DispatchSummary.
func Summarize(lessonDate string, outcomes []RecipientOutcome) DispatchSummary {
	summary := DispatchSummary{LessonDate: lessonDate, Total: len(outcomes), Results: outcomes}
	for _, o := range outcomes {
		if o.Success {
			summary.SuccessCount++
			continue
		}
		summary.FailCount++
		summary.Failures = append(summary.Failures, o)
	}
	return summary
}

// Delivered reports whether at least one recipient received the report.
func (s DispatchSummary) Delivered() bool {
	return s.SuccessCount > 0
}
