package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/models"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/repositories"
)

const (
	loanGateReply      = "Loan applications require a completed profile with consent. Start with /onboard."
	loanAmountPrompt   = "How much would you like to borrow (KES)?"
	loanAmountReprompt = "Please enter a positive loan amount."
	loanReasonPrompt   = "What is the loan for?"
	loanReasonReprompt = "Please tell us briefly what the loan is for."
	loanNoneReply      = "You have no loan applications yet. Apply with /apply_loan."
	loanCancelReply    = "Loan application cancelled."
)

type loanSessionStep int

const (
	loanAwaitingAmount loanSessionStep = iota
	loanAwaitingReason
)

type loanSession struct {
	step   loanSessionStep
	amount float64
}

// LoanService runs the short amount-then-reason intake dialogue and
// records applications. Intake sessions are in memory only; an
// abandoned session just times out with the process.
type LoanService interface {
	// InSession reports whether the user has an intake dialogue open.
	InSession(userID uuid.UUID) bool
	// Begin opens an intake dialogue if the user's profile allows it.
	Begin(ctx context.Context, user *models.User) (string, error)
	// Advance consumes one intake answer.
	Advance(ctx context.Context, user *models.User, input string) (string, error)
	// Cancel drops an open intake dialogue.
	Cancel(userID uuid.UUID) (string, bool)
	// List renders the user's applications, newest first.
	List(ctx context.Context, user *models.User) (string, error)
}

type loanService struct {
	loans    repositories.LoanRepository
	profiles repositories.ProfileRepository

	mu       sync.Mutex
	sessions map[uuid.UUID]*loanSession
}

func NewLoanService(loans repositories.LoanRepository, profiles repositories.ProfileRepository) LoanService {
	return &loanService{
		loans:    loans,
		profiles: profiles,
		sessions: make(map[uuid.UUID]*loanSession),
	}
}

func (s *loanService) InSession(userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	return ok
}

func (s *loanService) Begin(ctx context.Context, user *models.User) (string, error) {
	p, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if p == nil || p.Step != models.StepComplete || !p.Consent {
		return loanGateReply, nil
	}

	s.mu.Lock()
	s.sessions[user.ID] = &loanSession{step: loanAwaitingAmount}
	s.mu.Unlock()
	return loanAmountPrompt, nil
}

func (s *loanService) Advance(ctx context.Context, user *models.User, input string) (string, error) {
	s.mu.Lock()
	session, ok := s.sessions[user.ID]
	s.mu.Unlock()
	if !ok {
		return loanGateReply, nil
	}

	text := strings.TrimSpace(input)

	switch session.step {
	case loanAwaitingAmount:
		amount, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil || amount <= 0 {
			return loanAmountReprompt, nil
		}
		session.amount = amount
		session.step = loanAwaitingReason
		return loanReasonPrompt, nil

	case loanAwaitingReason:
		if text == "" {
			return loanReasonReprompt, nil
		}
		loan := &models.Loan{
			ID:     uuid.New(),
			UserID: user.ID,
			Amount: session.amount,
			Reason: text,
			Status: models.LoanStatusPending,
		}
		if err := s.loans.Create(ctx, loan); err != nil {
			return "", err
		}
		s.mu.Lock()
		delete(s.sessions, user.ID)
		s.mu.Unlock()
		return s.submittedReply(ctx, user, session.amount), nil
	}

	return loanGateReply, nil
}

// submittedReply adds a pre-approval hint when the amount sits within
// 1.5x the declared monthly income.
func (s *loanService) submittedReply(ctx context.Context, user *models.User, amount float64) string {
	reply := fmt.Sprintf("Loan application for KES %.0f submitted. Status: PENDING.", amount)
	p, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil || p == nil || p.MonthlyIncome <= 0 {
		return reply
	}
	if amount <= 1.5*p.MonthlyIncome {
		return reply + " Based on your income you are likely to be pre-approved."
	}
	return reply + " Amounts above 1.5x your monthly income need manual review."
}

func (s *loanService) Cancel(userID uuid.UUID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; !ok {
		return "", false
	}
	delete(s.sessions, userID)
	return loanCancelReply, true
}

func (s *loanService) List(ctx context.Context, user *models.User) (string, error) {
	loans, err := s.loans.ListByUserID(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if len(loans) == 0 {
		return loanNoneReply, nil
	}

	var b strings.Builder
	b.WriteString("Your loan applications:\n")
	for i, l := range loans {
		fmt.Fprintf(&b, "%d. KES %.0f for %q on %s: %s\n",
			i+1, l.Amount, l.Reason, l.CreatedAt.Format("2006-01-02"), l.Status)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
