package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SubmissionRepository checks whether teachers submitted attendance and evaluations.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// HasAttendance reports whether at least one attendance row exists for the teacher on date.
func (r *SubmissionRepository) HasAttendance(ctx context.Context, teacherID, date string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM attendance_records WHERE teacher_id = $1 AND date = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, teacherID, date); err != nil {
		return false, fmt.Errorf("check attendance for %s: %w", teacherID, err)
	}
	return exists, nil
}

// HasEvaluation reports whether at least one lesson evaluation exists for the teacher on date.
func (r *SubmissionRepository) HasEvaluation(ctx context.Context, teacherID, date string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM lesson_evaluations WHERE teacher_id = $1 AND lesson_date = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, teacherID, date); err != nil {
		return false, fmt.Errorf("check evaluation for %s: %w", teacherID, err)
	}
	return exists, nil
}
