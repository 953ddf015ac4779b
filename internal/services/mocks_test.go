package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/config"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/models"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		AppName:              "chat-agents-test",
		OrganizationName:     "Test SACCO",
		MinConfidence:        0.15,
		OTPSecret:            []byte("test-secret"),
		OTPCodeLength:        6,
		OTPExpiry:            5 * time.Minute,
		OTPMaxAttempts:       5,
		OTPIssueLimitPerHour: 3,
		RateLimitWindow:      time.Hour,
	}
}

// fakeOTPRepo keeps at most one active code per user, like the real
// table after CreateCode's delete-then-insert.
type fakeOTPRepo struct {
	mu    sync.Mutex
	codes map[uuid.UUID]*models.OtpCode
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{codes: make(map[uuid.UUID]*models.OtpCode)}
}

func (f *fakeOTPRepo) CreateCode(_ context.Context, userID uuid.UUID, codeHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[userID] = &models.OtpCode{
		ID:        uuid.New(),
		UserID:    userID,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeOTPRepo) GetActive(_ context.Context, userID uuid.UUID) (*models.OtpCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.codes[userID]
	if !ok || rec.Consumed {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeOTPRepo) IncrementAttempts(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.codes {
		if rec.ID == id {
			rec.Attempts++
		}
	}
	return nil
}

func (f *fakeOTPRepo) Consume(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.codes {
		if rec.ID == id {
			rec.Consumed = true
		}
	}
	return nil
}

func (f *fakeOTPRepo) CleanupExpired(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for userID, rec := range f.codes {
		if rec.Consumed || now.After(rec.ExpiresAt) {
			delete(f.codes, userID)
		}
	}
	return nil
}

// expire backdates the active code for tests.
func (f *fakeOTPRepo) expire(userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.codes[userID]; ok {
		rec.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

// fakeRateLimiter counts issuances per chat id.
type fakeRateLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	limit  int
}

func newFakeRateLimiter(limit int) *fakeRateLimiter {
	return &fakeRateLimiter{counts: make(map[string]int), limit: limit}
}

func (f *fakeRateLimiter) CheckOTPIssueRateLimit(_ context.Context, chatID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[chatID]++
	if f.counts[chatID] > f.limit {
		return utils.ErrRateLimitExceeded
	}
	return nil
}

// fakeProfileRepo mirrors the table's immutability guard.
type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.OnboardingProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uuid.UUID]*models.OnboardingProfile)}
}

func (f *fakeProfileRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*models.OnboardingProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepo) Upsert(_ context.Context, p *models.OnboardingProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.profiles[p.UserID]; ok {
		if existing.Step == models.StepComplete && existing.Consent {
			return utils.ErrProfileImmutable
		}
	}
	cp := *p
	f.profiles[p.UserID] = &cp
	return nil
}

// fakeUserRepo is keyed by chat id, like the users table.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, chatID string, phone, pinSalt, pinHash *string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[chatID]; ok {
		cp := *u
		return &cp, nil
	}
	u := &models.User{
		ID:        uuid.New(),
		ChatID:    chatID,
		Phone:     phone,
		PinSalt:   pinSalt,
		PinHash:   pinHash,
		CreatedAt: time.Now(),
	}
	f.users[chatID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByChatID(_ context.Context, chatID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[chatID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpdatePhone(_ context.Context, id uuid.UUID, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			p := phone
			u.Phone = &p
		}
	}
	return nil
}

func (f *fakeUserRepo) UpdatePin(_ context.Context, id uuid.UUID, pinSalt, pinHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			s, h := pinSalt, pinHash
			u.PinSalt = &s
			u.PinHash = &h
		}
	}
	return nil
}

// fakeLoanRepo stores loans newest-first like the real ORDER BY.
type fakeLoanRepo struct {
	mu    sync.Mutex
	loans []models.Loan
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{}
}

func (f *fakeLoanRepo) Create(_ context.Context, loan *models.Loan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := *loan
	l.CreatedAt = time.Now()
	f.loans = append([]models.Loan{l}, f.loans...)
	return nil
}

func (f *fakeLoanRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]models.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Loan
	for _, l := range f.loans {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}
