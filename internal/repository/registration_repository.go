package repository

import (
	"context"
	"fmt"
	"time"

	"athena-be/internal/domain"
	"athena-be/pkg/database"

	"github.com/jackc/pgx/v5"
)

// RegistrationRepository is the transactional registration ledger. It guards
// the per-hackathon invariants across instances; the hackathon entry's tags
// remain the record clients read.
type RegistrationRepository struct {
	db *database.PostgresDB
}

func NewRegistrationRepository(db *database.PostgresDB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Reserve records the participant unless they are already registered or the
// hackathon is at maxParticipants (0 means unlimited)
func (r *RegistrationRepository) Reserve(ctx context.Context, hackathonID string, p domain.Participant, maxParticipants int) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		// serializes reservations for one hackathon until commit
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, hackathonID); err != nil {
			return fmt.Errorf("failed to lock hackathon registrations: %w", err)
		}

		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM hackathon_registrations WHERE hackathon_id = $1 AND user_id = $2)`,
			hackathonID, p.UserID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check registration: %w", err)
		}
		if exists {
			return domain.ErrAlreadyRegistered
		}

		if maxParticipants > 0 {
			var count int
			err := tx.QueryRow(ctx,
				`SELECT COUNT(*) FROM hackathon_registrations WHERE hackathon_id = $1`,
				hackathonID,
			).Scan(&count)
			if err != nil {
				return fmt.Errorf("failed to count registrations: %w", err)
			}
			if count >= maxParticipants {
				return domain.ErrHackathonFull
			}
		}

		registeredAt := p.RegisteredAt
		if registeredAt.IsZero() {
			registeredAt = time.Now().UTC()
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO hackathon_registrations (hackathon_id, user_id, user_email, user_name, registered_at)
			VALUES ($1, $2, $3, $4, $5)
		`, hackathonID, p.UserID, p.UserEmail, p.UserName, registeredAt)
		if database.IsUniqueViolation(err) {
			return domain.ErrAlreadyRegistered
		}
		if err != nil {
			return fmt.Errorf("failed to insert registration: %w", err)
		}
		return nil
	})
}

// Release removes a reservation whose blob write did not go through
func (r *RegistrationRepository) Release(ctx context.Context, hackathonID, userID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM hackathon_registrations WHERE hackathon_id = $1 AND user_id = $2`,
		hackathonID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to release registration: %w", err)
	}
	return nil
}
