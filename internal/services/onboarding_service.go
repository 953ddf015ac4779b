package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/config"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/dispatch"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/models"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/repositories"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

const (
	promptName       = "Welcome to onboarding. What is your full name?"
	promptNationalID = "Thanks. Please enter your national ID number."
	promptEmployer   = "Who is your employer (or 'self-employed')?"
	promptIncome     = "What is your estimated monthly income in KES?"
	promptOtp        = "We sent a verification code to you. Please reply with the code, or 'resend' for a new one."
	promptConsent    = "Do you consent to storing this info for onboarding? Reply YES or NO."

	repromptName       = "Please enter your full name (at least 3 characters)."
	repromptNationalID = "Please enter a valid national ID number (5 to 10 digits)."
	repromptEmployer   = "Please enter your employer name."
	repromptIncome     = "Please enter a positive numeric income amount."
	repromptConsent    = "Please reply YES or NO."

	otpExpiredReply   = "That code has expired. Reply 'resend' to get a new one."
	otpExceededReply  = "Too many wrong attempts. Reply 'resend' to get a new one."
	otpMismatchReply  = "That code is not correct. Please try again."
	otpNoActiveReply  = "There is no active code. Reply 'resend' to get a new one."
	otpCooldownReply  = "You have requested too many codes. Please wait a while before trying again."
	otpResentReply    = "A new verification code is on its way."

	completeReply  = "Onboarding complete. You can now apply for a loan with /apply_loan."
	noConsentReply = "Onboarding stopped because consent was not granted. You can start again with /onboard."
	cancelledReply = "Onboarding cancelled. You can start again anytime with /onboard."

	storeErrorReply = "Something went wrong saving your answer. Please try again."
)

var nationalIDPattern = regexp.MustCompile(`^\d{5,10}$`)

// OnboardingService drives the per-user profile-capture dialogue.
// Callers must already hold the per-user lock; all persistence for one
// accepted step is a single write.
type OnboardingService interface {
	// CurrentStep reports where the user's dialogue stands.
	CurrentStep(ctx context.Context, user *models.User) (models.OnboardingStep, error)
	// Start begins (or restarts) the dialogue and returns the first prompt.
	Start(ctx context.Context, user *models.User) (string, error)
	// Advance consumes one message and returns the next prompt or a
	// re-prompt. Invalid input never advances the step.
	Advance(ctx context.Context, user *models.User, channel dispatch.Channel, input string) (string, error)
	// Cancel aborts an in-progress dialogue.
	Cancel(ctx context.Context, user *models.User) (string, error)
	// Summary renders the stored profile.
	Summary(ctx context.Context, user *models.User) (string, error)
}

type onboardingService struct {
	profiles repositories.ProfileRepository
	otp      OTPService
	queue    *dispatch.Queue
	cfg      *config.Config
}

func NewOnboardingService(
	profiles repositories.ProfileRepository,
	otp OTPService,
	queue *dispatch.Queue,
	cfg *config.Config,
) OnboardingService {
	return &onboardingService{profiles: profiles, otp: otp, queue: queue, cfg: cfg}
}

func (s *onboardingService) CurrentStep(ctx context.Context, user *models.User) (models.OnboardingStep, error) {
	p, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil {
		return models.StepNotStarted, err
	}
	if p == nil {
		return models.StepNotStarted, nil
	}
	return p.Step, nil
}

func (s *onboardingService) Start(ctx context.Context, user *models.User) (string, error) {
	existing, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.Step == models.StepComplete && existing.Consent {
		return "You have already completed onboarding. See /profile.", nil
	}

	p := &models.OnboardingProfile{
		UserID: user.ID,
		Step:   models.StepAwaitingName,
	}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return "", err
	}
	return promptName, nil
}

func (s *onboardingService) Cancel(ctx context.Context, user *models.User) (string, error) {
	p, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if p == nil || !p.Step.InProgress() {
		return "Nothing to cancel.", nil
	}
	p.Step = models.StepCancelled
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return "", err
	}
	return cancelledReply, nil
}

func (s *onboardingService) Advance(ctx context.Context, user *models.User, channel dispatch.Channel, input string) (string, error) {
	p, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if p == nil || !p.Step.InProgress() {
		return "Onboarding has not started. Use /onboard to begin.", nil
	}

	text := strings.TrimSpace(input)

	switch p.Step {
	case models.StepAwaitingName:
		if len(text) < 3 {
			return repromptName, nil
		}
		p.FullName = text
		return s.commit(ctx, p, models.StepAwaitingNationalID, promptNationalID)

	case models.StepAwaitingNationalID:
		if !nationalIDPattern.MatchString(text) {
			return repromptNationalID, nil
		}
		p.NationalID = text
		return s.commit(ctx, p, models.StepAwaitingEmployer, promptEmployer)

	case models.StepAwaitingEmployer:
		if len(text) < 2 {
			return repromptEmployer, nil
		}
		p.Employer = text
		return s.commit(ctx, p, models.StepAwaitingIncome, promptIncome)

	case models.StepAwaitingIncome:
		income, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil || income <= 0 {
			return repromptIncome, nil
		}
		p.MonthlyIncome = income
		reply, err := s.commit(ctx, p, models.StepAwaitingOtp, promptOtp)
		if err != nil {
			return "", err
		}
		// State is persisted first; only then does the code go out, and
		// only via the dispatch queue.
		if issueReply := s.issueAndEnqueue(ctx, user, channel); issueReply != "" {
			return issueReply, nil
		}
		return reply, nil

	case models.StepAwaitingOtp:
		return s.advanceOtp(ctx, user, p, channel, text)

	case models.StepAwaitingConsent:
		switch strings.ToLower(text) {
		case "yes":
			p.Consent = true
			return s.commit(ctx, p, models.StepComplete, completeReply)
		case "no":
			p.Consent = false
			return s.commit(ctx, p, models.StepCancelled, noConsentReply)
		default:
			return repromptConsent, nil
		}
	}

	return "Onboarding state invalid. Please start again with /onboard.", nil
}

func (s *onboardingService) advanceOtp(ctx context.Context, user *models.User, p *models.OnboardingProfile, channel dispatch.Channel, text string) (string, error) {
	if strings.EqualFold(text, "resend") {
		if reply := s.issueAndEnqueue(ctx, user, channel); reply != "" {
			return reply, nil
		}
		return otpResentReply, nil
	}

	result, err := s.otp.Verify(ctx, user.ID, text)
	if err != nil {
		return "", err
	}

	switch result.Reason {
	case VerifyReasonOK:
		return s.commit(ctx, p, models.StepAwaitingConsent, promptConsent)
	case VerifyReasonExpired:
		return otpExpiredReply, nil
	case VerifyReasonAttemptsExceeded:
		return otpExceededReply, nil
	case VerifyReasonNoActive:
		return otpNoActiveReply, nil
	default:
		return otpMismatchReply, nil
	}
}

// commit persists one accepted step and returns its prompt. The step
// write is all-or-nothing: a storage failure leaves the dialogue where
// it was.
func (s *onboardingService) commit(ctx context.Context, p *models.OnboardingProfile, next models.OnboardingStep, prompt string) (string, error) {
	prev := p.Step
	p.Step = next
	if err := s.profiles.Upsert(ctx, p); err != nil {
		p.Step = prev
		if errors.Is(err, utils.ErrProfileImmutable) {
			return "Your profile is already finalized and cannot be changed.", nil
		}
		return "", fmt.Errorf("%w: %v", utils.ErrStoreUnavailable, err)
	}
	return prompt, nil
}

func (s *onboardingService) issueAndEnqueue(ctx context.Context, user *models.User, channel dispatch.Channel) string {
	return issueAndDeliver(ctx, s.otp, s.queue, s.cfg.OrganizationName, user, channel)
}

func (s *onboardingService) Summary(ctx context.Context, user *models.User) (string, error) {
	p, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if p == nil || p.Step != models.StepComplete {
		return "No profile on file. Start with /onboard.", nil
	}
	consent := "no"
	if p.Consent {
		consent = "yes"
	}
	return fmt.Sprintf(
		"Name: %s\nNational ID: %s\nEmployer: %s\nMonthly income: KES %.0f\nConsent: %s",
		p.FullName, p.NationalID, p.Employer, p.MonthlyIncome, consent,
	), nil
}
