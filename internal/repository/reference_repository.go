package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ReferenceRepository reads the subjects, teachers and class instances owned by the
// rest of the console. It never writes.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository creates a new reference data repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// FindClassInstance loads a class instance. It returns sql.ErrNoRows when absent.
func (r *ReferenceRepository) FindClassInstance(ctx context.Context, id string) (*models.ClassInstance, error) {
	const query = `SELECT id, grade, section, school_code FROM class_instances WHERE id = $1`
	var instance models.ClassInstance
	if err := r.db.GetContext(ctx, &instance, query, id); err != nil {
		return nil, err
	}
	return &instance, nil
}

// ListSubjects returns the subjects with the given ids.
func (r *ReferenceRepository) ListSubjects(ctx context.Context, ids []string) ([]models.Subject, error) {
	subjects := make([]models.Subject, 0, len(ids))
	if len(ids) == 0 {
		return subjects, nil
	}
	query, args, err := sqlx.In(`SELECT id, subject_name FROM subjects WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build subjects query: %w", err)
	}
	if err := r.db.SelectContext(ctx, &subjects, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// ListTeachers returns the teaching admins with the given ids.
func (r *ReferenceRepository) ListTeachers(ctx context.Context, ids []string) ([]models.Teacher, error) {
	teachers := make([]models.Teacher, 0, len(ids))
	if len(ids) == 0 {
		return teachers, nil
	}
	query, args, err := sqlx.In(`SELECT id, full_name, role FROM admin WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build teachers query: %w", err)
	}
	if err := r.db.SelectContext(ctx, &teachers, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}
