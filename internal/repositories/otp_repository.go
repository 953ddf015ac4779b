package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/models"
)

type OTPRepository interface {
	// CreateCode stores a fresh code hash for the user, invalidating
	// any prior unconsumed code in the same statement batch.
	CreateCode(ctx context.Context, userID uuid.UUID, codeHash string, expiresAt time.Time) error
	// GetActive returns the newest unconsumed code row for the user,
	// or nil when there is none.
	GetActive(ctx context.Context, userID uuid.UUID) (*models.OtpCode, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	Consume(ctx context.Context, id uuid.UUID) error
	CleanupExpired(ctx context.Context) error
}

type otpRepository struct {
	db DB
}

func NewOTPRepository(db DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) CreateCode(ctx context.Context, userID uuid.UUID, codeHash string, expiresAt time.Time) error {
	// One active code per user: the purge and the insert run as a
	// single statement, so a failure leaves no half-applied state.
	q := `
        WITH purged AS (
            DELETE FROM otp_codes WHERE user_id = $2 AND consumed = FALSE
        )
        INSERT INTO otp_codes (id, user_id, code_hash, expires_at, attempts, consumed, created_at)
        VALUES ($1, $2, $3, $4, 0, FALSE, NOW())
    `
	_, err := r.db.Exec(ctx, q, uuid.New(), userID, codeHash, expiresAt)
	return err
}

func (r *otpRepository) GetActive(ctx context.Context, userID uuid.UUID) (*models.OtpCode, error) {
	q := `
        SELECT id, user_id, code_hash, expires_at, attempts, consumed, created_at
        FROM otp_codes
        WHERE user_id = $1 AND consumed = FALSE
        ORDER BY created_at DESC
        LIMIT 1
    `
	row := r.db.QueryRow(ctx, q, userID)
	var rec models.OtpCode
	err := row.Scan(&rec.ID, &rec.UserID, &rec.CodeHash, &rec.ExpiresAt, &rec.Attempts, &rec.Consumed, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *otpRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	q := `UPDATE otp_codes SET attempts = attempts + 1 WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id)
	return err
}

func (r *otpRepository) Consume(ctx context.Context, id uuid.UUID) error {
	q := `UPDATE otp_codes SET consumed = TRUE WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id)
	return err
}

func (r *otpRepository) CleanupExpired(ctx context.Context) error {
	q := `DELETE FROM otp_codes WHERE consumed = TRUE OR expires_at < NOW()`
	_, err := r.db.Exec(ctx, q)
	return err
}
