package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

// TwilioSender delivers WhatsApp and SMS tasks through the Twilio
// message API.
type TwilioSender struct {
	client       *twilio.RestClient
	smsFrom      string
	whatsappFrom string
}

func NewTwilioSender(accountSID, authToken, smsFrom, whatsappFrom string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{
		client:       client,
		smsFrom:      smsFrom,
		whatsappFrom: whatsappFrom,
	}
}

func (s *TwilioSender) Send(ctx context.Context, task *Task) error {
	if task.Destination == "" {
		return fmt.Errorf("%w: empty destination", utils.ErrPermanentDeliveryFailure)
	}

	to := task.Destination
	from := s.smsFrom
	if task.Channel == ChannelWhatsApp {
		from = "whatsapp:" + s.whatsappFrom
		if !strings.HasPrefix(to, "whatsapp:") {
			to = "whatsapp:" + to
		}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(task.Payload)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("%w: failed to send via twilio: %v", utils.ErrExternalServiceFailure, err)
	}
	return nil
}
