package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/config"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/repositories"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

type VerifyReason string

const (
	VerifyReasonOK               VerifyReason = "ok"
	VerifyReasonNoActive         VerifyReason = "no_active_otp"
	VerifyReasonExpired          VerifyReason = "expired"
	VerifyReasonAttemptsExceeded VerifyReason = "attempts_exceeded"
	VerifyReasonMismatch         VerifyReason = "mismatch"
)

type VerifyResult struct {
	OK     bool
	Reason VerifyReason
}

// OTPService issues and verifies one-time codes. Only the HMAC of a
// code is stored; the plaintext is returned to the caller exactly once
// for delivery and never logged.
type OTPService interface {
	// Issue replaces any active code for the user with a fresh one and
	// returns the plaintext. Re-issuance is rate-limited per user.
	Issue(ctx context.Context, userID uuid.UUID, chatID string) (string, error)
	// Verify checks a submitted code against the active record. A
	// consumed or expired record can never verify again.
	Verify(ctx context.Context, userID uuid.UUID, code string) (VerifyResult, error)
}

type otpService struct {
	repo        repositories.OTPRepository
	rateLimiter RateLimiterService
	cfg         *config.Config
}

func NewOTPService(repo repositories.OTPRepository, rateLimiter RateLimiterService, cfg *config.Config) OTPService {
	return &otpService{repo: repo, rateLimiter: rateLimiter, cfg: cfg}
}

func (s *otpService) hashCode(code string) string {
	mac := hmac.New(sha256.New, s.cfg.OTPSecret)
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *otpService) Issue(ctx context.Context, userID uuid.UUID, chatID string) (string, error) {
	if err := s.rateLimiter.CheckOTPIssueRateLimit(ctx, chatID); err != nil {
		return "", err
	}

	code, err := utils.RandomNumericString(s.cfg.OTPCodeLength)
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(s.cfg.OTPExpiry)
	if err := s.repo.CreateCode(ctx, userID, s.hashCode(code), expiresAt); err != nil {
		return "", err
	}
	utils.Logger.Debugf("Issued OTP for user %s, expires at %s", userID, expiresAt.Format(time.RFC3339))
	return code, nil
}

func (s *otpService) Verify(ctx context.Context, userID uuid.UUID, code string) (VerifyResult, error) {
	rec, err := s.repo.GetActive(ctx, userID)
	if err != nil {
		return VerifyResult{}, err
	}
	if rec == nil {
		return VerifyResult{OK: false, Reason: VerifyReasonNoActive}, nil
	}

	if time.Now().After(rec.ExpiresAt) {
		return VerifyResult{OK: false, Reason: VerifyReasonExpired}, nil
	}
	if rec.Attempts >= s.cfg.OTPMaxAttempts {
		return VerifyResult{OK: false, Reason: VerifyReasonAttemptsExceeded}, nil
	}

	if err := s.repo.IncrementAttempts(ctx, rec.ID); err != nil {
		return VerifyResult{}, err
	}

	submitted := s.hashCode(code)
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(rec.CodeHash)) != 1 {
		return VerifyResult{OK: false, Reason: VerifyReasonMismatch}, nil
	}

	if err := s.repo.Consume(ctx, rec.ID); err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{OK: true, Reason: VerifyReasonOK}, nil
}
