package config

import (
	"os"
	"strconv"
	"time"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

// Config holds all application configuration, including secrets and
// tuning knobs.
type Config struct {
	AppName          string
	OrganizationName string
	AppPort          string
	DBUrl            string

	FAQPath       string
	MinConfidence float64

	OTPSecret            []byte
	OTPCodeLength        int
	OTPExpiry            time.Duration
	OTPMaxAttempts       int
	OTPIssueLimitPerHour int
	RateLimitWindow      time.Duration

	TelegramToken      string
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioPhoneNumber  string
	TwilioWhatsAppFrom string

	SendGridAPIKey string
	AlertFromEmail string
	AlertToEmail   string

	DispatchWorkers  int
	QueueCapacity    int
	DeliveryLeaseTTL time.Duration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
}

// Defaults; env vars override where noted in LoadConfig.
const (
	AppName          = "chat-agents"
	OrganizationName = "Zac SACCO"

	DefaultAppPort       = "8080"
	DefaultFAQPath       = "faq.yml"
	DefaultMinConfidence = 0.15

	OTPCodeLength               = 6
	DefaultOTPExpiry            = 5 * time.Minute
	OTPMaxAttempts              = 5
	DefaultOTPIssueLimitPerHour = 3
	DefaultRateLimitWindow      = 1 * time.Hour

	DefaultDispatchWorkers  = 2
	DefaultQueueCapacity    = 256
	DefaultDeliveryLeaseTTL = 1 * time.Minute
	DefaultRetryMaxAttempts = 3
	DefaultRetryBaseDelay   = 2 * time.Second
	DefaultRetryMaxDelay    = 30 * time.Second
)

// LoadConfig reads the environment and returns a *Config. Required
// variables are fatal when missing; optional channels log a warning
// and stay disabled.
func LoadConfig() *Config {
	dbUrl := os.Getenv("DB_URL")
	if dbUrl == "" {
		utils.Logger.Fatal("DB_URL env var is missing")
	}

	otpSecret := os.Getenv("OTP_SECRET")
	if otpSecret == "" {
		utils.Logger.Fatal("OTP_SECRET env var is missing")
	}

	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		appPort = DefaultAppPort
	}

	faqPath := os.Getenv("FAQ_PATH")
	if faqPath == "" {
		faqPath = DefaultFAQPath
	}

	minConfidence := DefaultMinConfidence
	if raw := os.Getenv("MIN_CONFIDENCE"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			utils.Logger.Fatalf("Invalid MIN_CONFIDENCE %q; expected a float in [0,1]", raw)
		}
		minConfidence = parsed
	}

	otpExpiry := DefaultOTPExpiry
	if raw := os.Getenv("OTP_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			utils.Logger.Fatalf("Invalid OTP_TTL %q; expected a positive duration", raw)
		}
		otpExpiry = parsed
	}

	telegramToken := os.Getenv("TELEGRAM_TOKEN")
	if telegramToken == "" {
		utils.Logger.Warn("TELEGRAM_TOKEN not set; Telegram channel disabled")
	}

	twilioSID := os.Getenv("TWILIO_ACCOUNT_SID")
	twilioToken := os.Getenv("TWILIO_AUTH_TOKEN")
	if twilioSID == "" || twilioToken == "" {
		utils.Logger.Warn("Twilio credentials not set; WhatsApp/SMS channel disabled")
	}

	sendGridAPIKey := os.Getenv("SENDGRID_API_KEY")
	if sendGridAPIKey == "" {
		utils.Logger.Warn("SENDGRID_API_KEY not set; delivery-failure alert emails disabled")
	}

	workers := DefaultDispatchWorkers
	if raw := os.Getenv("DISPATCH_WORKERS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.Logger.Fatalf("Invalid DISPATCH_WORKERS %q; expected a positive integer", raw)
		}
		workers = parsed
	}

	return &Config{
		AppName:          AppName,
		OrganizationName: OrganizationName,
		AppPort:          appPort,
		DBUrl:            dbUrl,

		FAQPath:       faqPath,
		MinConfidence: minConfidence,

		OTPSecret:            []byte(otpSecret),
		OTPCodeLength:        OTPCodeLength,
		OTPExpiry:            otpExpiry,
		OTPMaxAttempts:       OTPMaxAttempts,
		OTPIssueLimitPerHour: DefaultOTPIssueLimitPerHour,
		RateLimitWindow:      DefaultRateLimitWindow,

		TelegramToken:      telegramToken,
		TwilioAccountSID:   twilioSID,
		TwilioAuthToken:    twilioToken,
		TwilioPhoneNumber:  os.Getenv("TWILIO_PHONE_NUMBER"),
		TwilioWhatsAppFrom: os.Getenv("TWILIO_WHATSAPP_NUMBER"),

		SendGridAPIKey: sendGridAPIKey,
		AlertFromEmail: os.Getenv("ALERT_FROM_EMAIL"),
		AlertToEmail:   os.Getenv("ALERT_TO_EMAIL"),

		DispatchWorkers:  workers,
		QueueCapacity:    DefaultQueueCapacity,
		DeliveryLeaseTTL: DefaultDeliveryLeaseTTL,
		RetryMaxAttempts: DefaultRetryMaxAttempts,
		RetryBaseDelay:   DefaultRetryBaseDelay,
		RetryMaxDelay:    DefaultRetryMaxDelay,
	}
}
