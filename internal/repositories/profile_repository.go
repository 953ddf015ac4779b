package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/models"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.OnboardingProfile, error)
	// Upsert writes the profile row. A row that already reached
	// Complete with consent is immutable and the write is rejected
	// with ErrProfileImmutable.
	Upsert(ctx context.Context, p *models.OnboardingProfile) error
}

type profileRepository struct {
	db DB
}

func NewProfileRepository(db DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.OnboardingProfile, error) {
	q := `
        SELECT user_id, step, full_name, national_id, employer, monthly_income, consent, created_at, updated_at
        FROM onboarding_profiles
        WHERE user_id = $1
    `
	row := r.db.QueryRow(ctx, q, userID)
	var p models.OnboardingProfile
	err := row.Scan(&p.UserID, &p.Step, &p.FullName, &p.NationalID, &p.Employer, &p.MonthlyIncome, &p.Consent, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) Upsert(ctx context.Context, p *models.OnboardingProfile) error {
	// The WHERE clause on the conflict update is the immutability
	// guard: a completed, consented profile never changes again.
	q := `
        INSERT INTO onboarding_profiles
            (user_id, step, full_name, national_id, employer, monthly_income, consent, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            step = EXCLUDED.step,
            full_name = EXCLUDED.full_name,
            national_id = EXCLUDED.national_id,
            employer = EXCLUDED.employer,
            monthly_income = EXCLUDED.monthly_income,
            consent = EXCLUDED.consent,
            updated_at = NOW()
        WHERE NOT (onboarding_profiles.step = $8 AND onboarding_profiles.consent = TRUE)
    `
	tag, err := r.db.Exec(ctx, q,
		p.UserID, p.Step, p.FullName, p.NationalID, p.Employer, p.MonthlyIncome, p.Consent,
		models.StepComplete,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrProfileImmutable
	}
	return nil
}
