package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dojohub/backend/internal/models"
)

// Repository handles mentor, guardian, and student persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an accounts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const mentorColumns = `m.id, m.user_id, u.first_name, u.last_name, u.email, m.bio, m.active, m.created_at`

func scanMentor(row pgx.Row) (*models.Mentor, error) {
	var m models.Mentor
	if err := row.Scan(&m.ID, &m.UserID, &m.FirstName, &m.LastName, &m.Email, &m.Bio, &m.Active, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMentorByID returns a mentor profile.
func (r *Repository) GetMentorByID(ctx context.Context, id uuid.UUID) (*models.Mentor, error) {
	q := `SELECT ` + mentorColumns + ` FROM mentors m JOIN users u ON u.id = m.user_id WHERE m.id = $1`
	m, err := scanMentor(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get mentor: %w", err)
	}
	return m, nil
}

// GetMentorByUserID returns the mentor profile for a login account.
func (r *Repository) GetMentorByUserID(ctx context.Context, userID uuid.UUID) (*models.Mentor, error) {
	q := `SELECT ` + mentorColumns + ` FROM mentors m JOIN users u ON u.id = m.user_id WHERE m.user_id = $1`
	m, err := scanMentor(r.pool.QueryRow(ctx, q, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get mentor by user: %w", err)
	}
	return m, nil
}

// ListActiveMentors returns active mentor profiles for the directory.
func (r *Repository) ListActiveMentors(ctx context.Context) ([]*models.Mentor, error) {
	q := `SELECT ` + mentorColumns + ` FROM mentors m JOIN users u ON u.id = m.user_id WHERE m.active ORDER BY u.last_name, u.first_name`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list mentors: %w", err)
	}
	defer rows.Close()
	var list []*models.Mentor
	for rows.Next() {
		m, err := scanMentor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mentor: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

const guardianColumns = `g.id, g.user_id, u.first_name, u.last_name, u.email, g.phone, g.created_at`

// GetGuardianByUserID returns the guardian profile for a login account.
func (r *Repository) GetGuardianByUserID(ctx context.Context, userID uuid.UUID) (*models.Guardian, error) {
	q := `SELECT ` + guardianColumns + ` FROM guardians g JOIN users u ON u.id = g.user_id WHERE g.user_id = $1`
	var g models.Guardian
	err := r.pool.QueryRow(ctx, q, userID).Scan(&g.ID, &g.UserID, &g.FirstName, &g.LastName, &g.Email, &g.Phone, &g.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get guardian by user: %w", err)
	}
	return &g, nil
}

const studentColumns = `id, guardian_id, first_name, last_name, birthday, gender, created_at, updated_at`

// GetStudentByID returns a student.
func (r *Repository) GetStudentByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	q := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	var s models.Student
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.GuardianID, &s.FirstName, &s.LastName, &s.Birthday, &s.Gender, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &s, nil
}

// ListStudentsByGuardian returns the guardian's students.
func (r *Repository) ListStudentsByGuardian(ctx context.Context, guardianID uuid.UUID) ([]*models.Student, error) {
	q := `SELECT ` + studentColumns + ` FROM students WHERE guardian_id = $1 ORDER BY first_name`
	rows, err := r.pool.Query(ctx, q, guardianID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()
	var list []*models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.GuardianID, &s.FirstName, &s.LastName, &s.Birthday, &s.Gender, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// CreateStudent inserts a student under the guardian.
func (r *Repository) CreateStudent(ctx context.Context, s *models.Student) error {
	const q = `INSERT INTO students (id, guardian_id, first_name, last_name, birthday, gender)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, s.GuardianID, s.FirstName, s.LastName, s.Birthday, s.Gender).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// UpdateStudent saves edits to a student's profile.
func (r *Repository) UpdateStudent(ctx context.Context, s *models.Student) error {
	const q = `UPDATE students SET first_name = $2, last_name = $3, birthday = $4, gender = $5, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, s.ID, s.FirstName, s.LastName, s.Birthday, s.Gender)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}
