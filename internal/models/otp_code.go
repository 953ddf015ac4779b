package models

import (
	"time"

	"github.com/google/uuid"
)

// OtpCode for the otp_codes table. Only the HMAC of the code is ever
// stored; the plaintext exists in memory on the issuing path only.
type OtpCode struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
	Consumed  bool
	CreatedAt time.Time
}
