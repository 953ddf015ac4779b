package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/dispatch"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/models"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

// issueAndDeliver issues a fresh code and hands delivery to the
// dispatch workers. The code itself never travels back to the caller;
// a non-empty return is a user-facing failure message.
func issueAndDeliver(ctx context.Context, otp OTPService, queue *dispatch.Queue, orgName string, user *models.User, channel dispatch.Channel) string {
	code, err := otp.Issue(ctx, user.ID, user.ChatID)
	if err != nil {
		if errors.Is(err, utils.ErrRateLimitExceeded) {
			return otpCooldownReply
		}
		utils.Logger.WithError(err).Errorf("Failed to issue OTP for user %s", user.ID)
		return storeErrorReply
	}

	taskChannel, destination := deliveryTarget(user, channel)
	payload := fmt.Sprintf("Your %s verification code is %s", orgName, code)
	task := dispatch.NewTask(user.ID, taskChannel, destination, payload)
	if err := queue.Enqueue(task); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to enqueue OTP delivery for user %s", user.ID)
		return storeErrorReply
	}
	return ""
}

// deliveryTarget prefers the verified phone over the originating chat:
// a code sent out-of-band is worth more than one echoed in-channel.
func deliveryTarget(user *models.User, channel dispatch.Channel) (dispatch.Channel, string) {
	if user.HasPhone() {
		return dispatch.ChannelWhatsApp, *user.Phone
	}
	return channel, user.ChatID
}
