package services

import (
	"context"
	"fmt"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/config"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/repositories"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

// RateLimiterService provides a high-level interface for checking rate limits.
type RateLimiterService interface {
	// CheckOTPIssueRateLimit caps how often a single user can be
	// issued a fresh one-time code within the rolling window.
	CheckOTPIssueRateLimit(ctx context.Context, chatID string) error
}

type rateLimiterService struct {
	repo repositories.RateLimitRepository
	cfg  *config.Config
}

func NewRateLimiterService(repo repositories.RateLimitRepository, cfg *config.Config) RateLimiterService {
	return &rateLimiterService{repo: repo, cfg: cfg}
}

func (s *rateLimiterService) CheckOTPIssueRateLimit(ctx context.Context, chatID string) error {
	key := fmt.Sprintf("otp:user:%s", chatID)
	allowed, err := s.repo.IncrementAndCheck(ctx, key, s.cfg.OTPIssueLimitPerHour, s.cfg.RateLimitWindow)
	if err != nil {
		return err
	}
	if !allowed {
		utils.Logger.Warnf("OTP issue rate limit exceeded (key: %s)", key)
		return utils.ErrRateLimitExceeded
	}
	return nil
}
