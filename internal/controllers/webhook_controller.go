package controllers

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	twilioClient "github.com/twilio/twilio-go/client"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/config"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/dispatch"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/dtos"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/services"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

type WebhookController struct {
	cfg          *config.Config
	router       *services.RouterService
	queue        *dispatch.Queue
	validate     *validator.Validate
	sigValidator twilioClient.RequestValidator
}

func NewWebhookController(cfg *config.Config, router *services.RouterService, queue *dispatch.Queue) *WebhookController {
	return &WebhookController{
		cfg:          cfg,
		router:       router,
		queue:        queue,
		validate:     validator.New(),
		sigValidator: twilioClient.NewRequestValidator(cfg.TwilioAuthToken),
	}
}

// TwilioWebhookHandler -> POST /api/v1/webhooks/twilio
//
// Replies go out through the dispatch queue rather than inline TwiML,
// so webhook latency stays flat and delivery gets the retry policy.
func (c *WebhookController) TwilioWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Malformed form payload", nil, err)
		return
	}

	if !c.validSignature(r) {
		utils.RespondErrorWithCode(w, http.StatusForbidden, utils.ErrCodeUnauthorized, "Invalid webhook signature", nil)
		return
	}

	msg := dtos.TwilioInboundMessage{
		MessageSid: r.PostFormValue("MessageSid"),
		From:       r.PostFormValue("From"),
		Body:       r.PostFormValue("Body"),
	}
	if err := c.validate.Struct(msg); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Missing required webhook fields", nil, err)
		return
	}

	// Twilio prefixes WhatsApp senders with "whatsapp:"; the bare
	// number is the chat identity.
	chatID := strings.TrimPrefix(msg.From, "whatsapp:")

	reply := c.router.Route(r.Context(), dispatch.ChannelWhatsApp, chatID, msg.Body)

	task := dispatch.NewTask(uuid.Nil, dispatch.ChannelWhatsApp, chatID, reply)
	if err := c.queue.Enqueue(task); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to enqueue webhook reply for %s", chatID)
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Reply queue full", nil, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// validSignature checks X-Twilio-Signature against the URL Twilio hit
// and the posted params. No auth token configured means the check is
// skipped with a warning; that mode is for local runs only.
func (c *WebhookController) validSignature(r *http.Request) bool {
	if c.cfg.TwilioAuthToken == "" {
		utils.Logger.Warn("TWILIO_AUTH_TOKEN not set; skipping webhook signature validation")
		return true
	}

	provided := r.Header.Get("X-Twilio-Signature")
	if provided == "" {
		return false
	}

	scheme := "https"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS == nil {
		scheme = "http"
	}
	url := scheme + "://" + r.Host + r.URL.RequestURI()

	params := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		params[k] = r.PostFormValue(k)
	}

	return c.sigValidator.Validate(url, params, provided)
}
