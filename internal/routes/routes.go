package routes

const (
	Health        = "/health"
	TwilioWebhook = "/api/v1/webhooks/twilio"
)
