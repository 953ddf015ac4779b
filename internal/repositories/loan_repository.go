package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/models"
)

type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.Loan, error)
}

type loanRepository struct {
	db DB
}

func NewLoanRepository(db DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	q := `
        INSERT INTO loans (id, user_id, amount, reason, status, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
    `
	_, err := r.db.Exec(ctx, q, loan.ID, loan.UserID, loan.Amount, loan.Reason, loan.Status)
	return err
}

func (r *loanRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.Loan, error) {
	q := `
        SELECT id, user_id, amount, reason, status, created_at
        FROM loans
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		var l models.Loan
		if err := rows.Scan(&l.ID, &l.UserID, &l.Amount, &l.Reason, &l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}
