package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

func newTestOTPService(t *testing.T) (OTPService, *fakeOTPRepo, *fakeRateLimiter) {
	t.Helper()
	repo := newFakeOTPRepo()
	limiter := newFakeRateLimiter(3)
	return NewOTPService(repo, limiter, testConfig()), repo, limiter
}

func TestOTPIssueAndVerify(t *testing.T) {
	svc, repo, _ := newTestOTPService(t)
	ctx := context.Background()
	userID := uuid.New()

	code, err := svc.Issue(ctx, userID, "chat-1")
	require.NoError(t, err)
	require.Len(t, code, 6)

	// Only the HMAC lands in storage.
	rec, err := repo.GetActive(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.NotEqual(t, code, rec.CodeHash)

	res, err := svc.Verify(ctx, userID, code)
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, VerifyReasonOK, res.Reason)
}

func TestOTPCodeIsSingleUse(t *testing.T) {
	svc, _, _ := newTestOTPService(t)
	ctx := context.Background()
	userID := uuid.New()

	code, err := svc.Issue(ctx, userID, "chat-1")
	require.NoError(t, err)

	res, err := svc.Verify(ctx, userID, code)
	require.NoError(t, err)
	require.True(t, res.OK)

	res, err = svc.Verify(ctx, userID, code)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, VerifyReasonNoActive, res.Reason)
}

func TestOTPWrongCode(t *testing.T) {
	svc, _, _ := newTestOTPService(t)
	ctx := context.Background()
	userID := uuid.New()

	code, err := svc.Issue(ctx, userID, "chat-1")
	require.NoError(t, err)

	res, err := svc.Verify(ctx, userID, "000000")
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, VerifyReasonMismatch, res.Reason)

	// The right code still works after one bad attempt.
	res, err = svc.Verify(ctx, userID, code)
	require.NoError(t, err)
	require.True(t, res.OK)
}

func TestOTPAttemptsExceeded(t *testing.T) {
	svc, _, _ := newTestOTPService(t)
	ctx := context.Background()
	userID := uuid.New()

	code, err := svc.Issue(ctx, userID, "chat-1")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		res, err := svc.Verify(ctx, userID, "000000")
		require.NoError(t, err)
		require.False(t, res.OK)
	}

	// Even the correct code is refused once the budget is spent.
	res, err := svc.Verify(ctx, userID, code)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, VerifyReasonAttemptsExceeded, res.Reason)
}

func TestOTPExpiredCode(t *testing.T) {
	svc, repo, _ := newTestOTPService(t)
	ctx := context.Background()
	userID := uuid.New()

	code, err := svc.Issue(ctx, userID, "chat-1")
	require.NoError(t, err)

	repo.expire(userID)

	res, err := svc.Verify(ctx, userID, code)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, VerifyReasonExpired, res.Reason)
}

func TestOTPReissueInvalidatesPrevious(t *testing.T) {
	svc, _, _ := newTestOTPService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Issue(ctx, userID, "chat-1")
	require.NoError(t, err)
	second, err := svc.Issue(ctx, userID, "chat-1")
	require.NoError(t, err)

	if first != second {
		res, err := svc.Verify(ctx, userID, first)
		require.NoError(t, err)
		require.False(t, res.OK)
	}

	res, err := svc.Verify(ctx, userID, second)
	require.NoError(t, err)
	require.True(t, res.OK)
}

func TestOTPIssueRateLimited(t *testing.T) {
	svc, _, _ := newTestOTPService(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := svc.Issue(ctx, userID, "chat-1")
		require.NoError(t, err)
	}

	_, err := svc.Issue(ctx, userID, "chat-1")
	require.ErrorIs(t, err, utils.ErrRateLimitExceeded)
}
