package donations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dojohub/backend/internal/models"
)

// Repository handles donation persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a donations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const donationColumns = `id, first_name, last_name, email, amount_cents, verified, receipt_sent, created_at`

// Create inserts an unverified donation.
func (r *Repository) Create(ctx context.Context, d *models.Donation) error {
	const q = `INSERT INTO donations (id, first_name, last_name, email, amount_cents)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, verified, receipt_sent, created_at`
	err := r.pool.QueryRow(ctx, q, d.FirstName, d.LastName, d.Email, d.AmountCents).
		Scan(&d.ID, &d.Verified, &d.ReceiptSent, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

// GetByID returns a donation, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Donation, error) {
	var d models.Donation
	err := r.pool.QueryRow(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = $1`, id).
		Scan(&d.ID, &d.FirstName, &d.LastName, &d.Email, &d.AmountCents, &d.Verified, &d.ReceiptSent, &d.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get donation: %w", err)
	}
	return &d, nil
}

// MarkVerified sets verified and, when the receipt has not gone out yet,
// claims the receipt send. Returns whether this call claimed it.
func (r *Repository) MarkVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE donations SET verified = TRUE, receipt_sent = TRUE
		WHERE id = $1 AND NOT receipt_sent
		RETURNING id`
	var claimed uuid.UUID
	err := r.pool.QueryRow(ctx, q, id).Scan(&claimed)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Already verified before; still make sure the flag is set.
			_, uerr := r.pool.Exec(ctx, `UPDATE donations SET verified = TRUE WHERE id = $1`, id)
			if uerr != nil {
				return false, fmt.Errorf("verify donation: %w", uerr)
			}
			return false, nil
		}
		return false, fmt.Errorf("verify donation: %w", err)
	}
	return true, nil
}
