package dispatch

import (
	"context"
	"fmt"
	"strconv"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/telegram"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

// TelegramSender delivers tasks whose destination is a Telegram chat id.
type TelegramSender struct {
	client *telegram.Client
}

func NewTelegramSender(client *telegram.Client) *TelegramSender {
	return &TelegramSender{client: client}
}

func (s *TelegramSender) Send(ctx context.Context, task *Task) error {
	chatID, err := strconv.ParseInt(task.Destination, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad telegram chat id %q", utils.ErrPermanentDeliveryFailure, task.Destination)
	}
	return s.client.SendMessage(ctx, chatID, task.Payload)
}
