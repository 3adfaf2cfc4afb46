package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/teachers-portal-api/internal/models"
)

// ProfileRepository reads teacher and admin profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// ListActiveTeachers returns active teachers with an assigned class and the class year level.
func (r *ProfileRepository) ListActiveTeachers(ctx context.Context) ([]models.TeacherProfile, error) {
	const query = `SELECT p.id, p.full_name, p.email, p.role, p.status, p.assigned_class_id, c.name AS class_name, c.year_level
FROM profiles p
LEFT JOIN classes c ON c.id = p.assigned_class_id
WHERE p.role = $1 AND p.status = $2 AND p.assigned_class_id IS NOT NULL
ORDER BY p.full_name ASC`
	var teachers []models.TeacherProfile
	if err := r.db.SelectContext(ctx, &teachers, query, models.RoleTeacher, models.StatusActive); err != nil {
		return nil, fmt.Errorf("list active teachers: %w", err)
	}
	return teachers, nil
}

// ListActiveAdmins returns report recipients.
func (r *ProfileRepository) ListActiveAdmins(ctx context.Context) ([]models.AdminRecipient, error) {
	const query = `SELECT id, email, full_name FROM profiles WHERE role = $1 AND status = $2 AND email <> '' ORDER BY full_name ASC`
	var admins []models.AdminRecipient
	if err := r.db.SelectContext(ctx, &admins, query, models.RoleAdmin, models.StatusActive); err != nil {
		return nil, fmt.Errorf("list active admins: %w", err)
	}
	return admins, nil
}
