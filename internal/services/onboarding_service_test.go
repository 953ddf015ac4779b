package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/dispatch"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/models"
)

type onboardingFixture struct {
	svc      OnboardingService
	profiles *fakeProfileRepo
	queue    *dispatch.Queue
	user     *models.User
}

func newOnboardingFixture(t *testing.T) *onboardingFixture {
	t.Helper()
	profiles := newFakeProfileRepo()
	otpRepo := newFakeOTPRepo()
	queue := dispatch.NewQueue(16, time.Minute)
	cfg := testConfig()
	otp := NewOTPService(otpRepo, newFakeRateLimiter(3), cfg)

	return &onboardingFixture{
		svc:      NewOnboardingService(profiles, otp, queue, cfg),
		profiles: profiles,
		queue:    queue,
		user:     &models.User{ID: uuid.New(), ChatID: "chat-1"},
	}
}

// drainCode pulls the delivery task off the queue and extracts the
// plaintext code from its payload.
func (f *onboardingFixture) drainCode(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	task, err := f.queue.Dequeue(ctx)
	require.NoError(t, err)
	f.queue.Complete(task, dispatch.StatusDelivered)

	idx := strings.LastIndex(task.Payload, " ")
	require.Greater(t, idx, 0)
	code := task.Payload[idx+1:]
	require.Len(t, code, 6)
	return code
}

func (f *onboardingFixture) advance(t *testing.T, input string) string {
	t.Helper()
	reply, err := f.svc.Advance(context.Background(), f.user, dispatch.ChannelTelegram, input)
	require.NoError(t, err)
	return reply
}

func TestOnboardingHappyPath(t *testing.T) {
	f := newOnboardingFixture(t)
	ctx := context.Background()

	reply, err := f.svc.Start(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, promptName, reply)

	require.Equal(t, promptNationalID, f.advance(t, "Jane Wanjiku"))
	require.Equal(t, promptEmployer, f.advance(t, "12345678"))
	require.Equal(t, promptIncome, f.advance(t, "Acme Ltd"))
	require.Equal(t, promptOtp, f.advance(t, "85,000"))

	code := f.drainCode(t)
	require.Equal(t, promptConsent, f.advance(t, code))
	require.Equal(t, completeReply, f.advance(t, "YES"))

	p, err := f.profiles.GetByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	require.Equal(t, models.StepComplete, p.Step)
	require.True(t, p.Consent)
	require.Equal(t, "Jane Wanjiku", p.FullName)
	require.Equal(t, 85000.0, p.MonthlyIncome)
}

func TestOnboardingInvalidInputKeepsStep(t *testing.T) {
	f := newOnboardingFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user)
	require.NoError(t, err)

	require.Equal(t, repromptName, f.advance(t, "Jo"))
	step, err := f.svc.CurrentStep(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, models.StepAwaitingName, step)

	f.advance(t, "Jane Wanjiku")
	require.Equal(t, repromptNationalID, f.advance(t, "abc"))
	require.Equal(t, repromptNationalID, f.advance(t, "1234"))
	require.Equal(t, repromptNationalID, f.advance(t, "12345678901"))
	step, err = f.svc.CurrentStep(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, models.StepAwaitingNationalID, step)

	f.advance(t, "12345678")
	f.advance(t, "Acme Ltd")
	require.Equal(t, repromptIncome, f.advance(t, "-5"))
	require.Equal(t, repromptIncome, f.advance(t, "lots"))
	step, err = f.svc.CurrentStep(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, models.StepAwaitingIncome, step)
}

func TestOnboardingWrongThenRightCode(t *testing.T) {
	f := newOnboardingFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user)
	require.NoError(t, err)
	f.advance(t, "Jane Wanjiku")
	f.advance(t, "12345678")
	f.advance(t, "Acme Ltd")
	f.advance(t, "85000")
	code := f.drainCode(t)

	require.Equal(t, otpMismatchReply, f.advance(t, "000000"))
	step, err := f.svc.CurrentStep(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, models.StepAwaitingOtp, step)

	require.Equal(t, promptConsent, f.advance(t, code))
}

func TestOnboardingResendIssuesNewCode(t *testing.T) {
	f := newOnboardingFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user)
	require.NoError(t, err)
	f.advance(t, "Jane Wanjiku")
	f.advance(t, "12345678")
	f.advance(t, "Acme Ltd")
	f.advance(t, "85000")
	f.drainCode(t)

	require.Equal(t, otpResentReply, f.advance(t, "resend"))
	code := f.drainCode(t)
	require.Equal(t, promptConsent, f.advance(t, code))
}

func TestOnboardingResendRateLimited(t *testing.T) {
	f := newOnboardingFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user)
	require.NoError(t, err)
	f.advance(t, "Jane Wanjiku")
	f.advance(t, "12345678")
	f.advance(t, "Acme Ltd")
	f.advance(t, "85000")

	// The income step already consumed one issuance; two resends
	// exhaust the limit of three.
	f.advance(t, "resend")
	f.advance(t, "resend")
	require.Equal(t, otpCooldownReply, f.advance(t, "resend"))
}

func TestOnboardingConsentDeclined(t *testing.T) {
	f := newOnboardingFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user)
	require.NoError(t, err)
	f.advance(t, "Jane Wanjiku")
	f.advance(t, "12345678")
	f.advance(t, "Acme Ltd")
	f.advance(t, "85000")
	code := f.drainCode(t)
	f.advance(t, code)

	require.Equal(t, repromptConsent, f.advance(t, "maybe"))
	require.Equal(t, noConsentReply, f.advance(t, "no"))

	p, err := f.profiles.GetByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	require.Equal(t, models.StepCancelled, p.Step)
	require.False(t, p.Consent)
}

func TestOnboardingCancel(t *testing.T) {
	f := newOnboardingFixture(t)
	ctx := context.Background()

	reply, err := f.svc.Cancel(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, "Nothing to cancel.", reply)

	_, err = f.svc.Start(ctx, f.user)
	require.NoError(t, err)
	f.advance(t, "Jane Wanjiku")

	reply, err = f.svc.Cancel(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, cancelledReply, reply)

	step, err := f.svc.CurrentStep(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, models.StepCancelled, step)
}

func TestOnboardingCompletedProfileImmutable(t *testing.T) {
	f := newOnboardingFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user)
	require.NoError(t, err)
	f.advance(t, "Jane Wanjiku")
	f.advance(t, "12345678")
	f.advance(t, "Acme Ltd")
	f.advance(t, "85000")
	code := f.drainCode(t)
	f.advance(t, code)
	f.advance(t, "yes")

	reply, err := f.svc.Start(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, "You have already completed onboarding. See /profile.", reply)

	p, err := f.profiles.GetByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	require.Equal(t, models.StepComplete, p.Step)
}

func TestOnboardingSummary(t *testing.T) {
	f := newOnboardingFixture(t)
	ctx := context.Background()

	summary, err := f.svc.Summary(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, "No profile on file. Start with /onboard.", summary)

	_, err = f.svc.Start(ctx, f.user)
	require.NoError(t, err)
	f.advance(t, "Jane Wanjiku")
	f.advance(t, "12345678")
	f.advance(t, "Acme Ltd")
	f.advance(t, "85000")
	code := f.drainCode(t)
	f.advance(t, code)
	f.advance(t, "yes")

	summary, err = f.svc.Summary(ctx, f.user)
	require.NoError(t, err)
	require.Contains(t, summary, "Jane Wanjiku")
	require.Contains(t, summary, "12345678")
	require.Contains(t, summary, "Acme Ltd")
	require.Contains(t, summary, "85000")
	require.Contains(t, summary, "Consent: yes")
}
