package models

import (
	"time"

	"github.com/google/uuid"
)

type LoanStatusType string

const (
	LoanStatusPending  LoanStatusType = "PENDING"
	LoanStatusApproved LoanStatusType = "APPROVED"
	LoanStatusRejected LoanStatusType = "REJECTED"
)

// Loan for the loans table.
type Loan struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Amount    float64        `json:"amount"`
	Reason    string         `json:"reason"`
	Status    LoanStatusType `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}
