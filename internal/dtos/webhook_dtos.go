package dtos

// TwilioInboundMessage is the form-encoded payload Twilio posts for an
// inbound WhatsApp or SMS message. Only the fields we act on.
type TwilioInboundMessage struct {
	MessageSid string `validate:"required"`
	From       string `validate:"required"`
	Body       string
}

type HealthCheckResponse struct {
	Status string `json:"status"`
}
