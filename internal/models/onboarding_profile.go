package models

import (
	"time"

	"github.com/google/uuid"
)

// OnboardingStep is the profile-capture dialogue state. Steps only
// advance forward; Complete and Cancelled are terminal.
type OnboardingStep string

const (
	StepNotStarted         OnboardingStep = "NOT_STARTED"
	StepAwaitingName       OnboardingStep = "AWAITING_NAME"
	StepAwaitingNationalID OnboardingStep = "AWAITING_NATIONAL_ID"
	StepAwaitingEmployer   OnboardingStep = "AWAITING_EMPLOYER"
	StepAwaitingIncome     OnboardingStep = "AWAITING_INCOME"
	StepAwaitingOtp        OnboardingStep = "AWAITING_OTP"
	StepAwaitingConsent    OnboardingStep = "AWAITING_CONSENT"
	StepComplete           OnboardingStep = "COMPLETE"
	StepCancelled          OnboardingStep = "CANCELLED"
)

// Terminal reports whether no further input can mutate the profile.
func (s OnboardingStep) Terminal() bool {
	return s == StepComplete || s == StepCancelled
}

// InProgress reports whether the user is mid-dialogue and inbound text
// belongs to the onboarding flow rather than the answer engine.
func (s OnboardingStep) InProgress() bool {
	return s != StepNotStarted && !s.Terminal()
}

// OnboardingProfile for the onboarding_profiles table. One row per
// user; immutable once Complete with consent recorded.
type OnboardingProfile struct {
	UserID        uuid.UUID
	Step          OnboardingStep
	FullName      string
	NationalID    string
	Employer      string
	MonthlyIncome float64
	Consent       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
