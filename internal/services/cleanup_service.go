package services

import (
	"context"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/repositories"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

// CleanupService sweeps expired OTP rows and stale rate-limit windows.
// Scheduled from main on a cron.
type CleanupService struct {
	otpRepo       repositories.OTPRepository
	rateLimitRepo repositories.RateLimitRepository
}

func NewCleanupService(otpRepo repositories.OTPRepository, rateLimitRepo repositories.RateLimitRepository) *CleanupService {
	return &CleanupService{otpRepo: otpRepo, rateLimitRepo: rateLimitRepo}
}

func (s *CleanupService) Run(ctx context.Context) {
	if err := s.otpRepo.CleanupExpired(ctx); err != nil {
		utils.Logger.WithError(err).Error("Failed to clean up expired OTP codes")
	}
	if err := s.rateLimitRepo.CleanupExpired(ctx); err != nil {
		utils.Logger.WithError(err).Error("Failed to clean up expired rate limit windows")
	}
	utils.Logger.Debug("Cleanup sweep finished")
}
