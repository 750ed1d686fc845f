package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dojohub/backend/internal/models"
	"github.com/dojohub/backend/pkg/database"
)

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, password_hash, first_name, last_name, role, active, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns the user with the given email, or nil.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetByID returns the user, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Create inserts a user together with its mentor or guardian profile row.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	return database.WithTx(ctx, r.pool, func(txCtx context.Context) error {
		tx := database.TxFromContext(txCtx)
		const q = `INSERT INTO users (id, email, password_hash, first_name, last_name, role)
			VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
			RETURNING id, active, created_at, updated_at`
		err := tx.QueryRow(txCtx, q, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role).
			Scan(&u.ID, &u.Active, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		switch u.Role {
		case models.RoleMentor:
			_, err = tx.Exec(txCtx, `INSERT INTO mentors (id, user_id) VALUES (gen_random_uuid(), $1)`, u.ID)
		case models.RoleGuardian:
			_, err = tx.Exec(txCtx, `INSERT INTO guardians (id, user_id) VALUES (gen_random_uuid(), $1)`, u.ID)
		}
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
}
