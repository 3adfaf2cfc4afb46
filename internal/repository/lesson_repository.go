package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/teachers-portal-api/internal/models"
)

// LessonRepository reads lessons recorded by staff.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// FindByDate fetches the lesson held on date (YYYY-MM-DD). It returns sql.ErrNoRows when none exists.
func (r *LessonRepository) FindByDate(ctx context.Context, date string) (*models.Lesson, error) {
	const query = `SELECT id, date, group_type, chapter, notes, created_by, created_at FROM lessons WHERE date = $1 LIMIT 1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, date); err != nil {
		return nil, err
	}
	return &lesson, nil
}
