package main

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	_ "time/tzdata"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/app"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/config"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/controllers"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/dispatch"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/knowledge"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/repositories"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/routes"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/services"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/telegram"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

const cleanupCronSpec = "@hourly"

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize app:", err)
	}
	defer application.Close()

	ctx := context.Background()

	// Repositories
	userRepo := repositories.NewUserRepository(application.DB)
	otpRepo := repositories.NewOTPRepository(application.DB)
	profileRepo := repositories.NewProfileRepository(application.DB)
	loanRepo := repositories.NewLoanRepository(application.DB)
	rateLimitRepo := repositories.NewRateLimitRepository(application.DB)

	// Knowledge base
	records, err := knowledge.LoadCorpus(cfg.FAQPath)
	if err != nil {
		utils.Logger.Fatal("Failed to load FAQ corpus:", err)
	}
	engine := knowledge.NewEngine(records)
	utils.Logger.Infof("Loaded %d FAQ entries from %s", engine.Size(), cfg.FAQPath)

	// Outbound dispatch
	queue := dispatch.NewQueue(cfg.QueueCapacity, cfg.DeliveryLeaseTTL)

	senders := map[dispatch.Channel]dispatch.Sender{}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		twilioSender := dispatch.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, cfg.TwilioWhatsAppFrom)
		senders[dispatch.ChannelWhatsApp] = twilioSender
		senders[dispatch.ChannelSMS] = twilioSender
	}

	var telegramClient *telegram.Client
	if cfg.TelegramToken != "" {
		telegramClient = telegram.NewClient(cfg.TelegramToken)
		senders[dispatch.ChannelTelegram] = dispatch.NewTelegramSender(telegramClient)
	}

	var auditor dispatch.Auditor = dispatch.LogAuditor{}
	if cfg.SendGridAPIKey != "" && cfg.AlertToEmail != "" {
		auditor = dispatch.NewEmailAuditor(cfg.SendGridAPIKey, cfg.AlertFromEmail, cfg.AlertToEmail, cfg.OrganizationName)
	}

	policy := dispatch.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
	}
	dispatcher := dispatch.NewDispatcher(queue, senders, policy, auditor)
	dispatcher.Start(ctx, cfg.DispatchWorkers)

	// Services
	answerService := services.NewAnswerService(engine, cfg.MinConfidence)
	rateLimiterService := services.NewRateLimiterService(rateLimitRepo, cfg)
	otpService := services.NewOTPService(otpRepo, rateLimiterService, cfg)
	onboardingService := services.NewOnboardingService(profileRepo, otpService, queue, cfg)
	loanService := services.NewLoanService(loanRepo, profileRepo)
	routerService := services.NewRouterService(userRepo, answerService, onboardingService, loanService, otpService, queue, cfg)
	cleanupService := services.NewCleanupService(otpRepo, rateLimitRepo)

	// Telegram long poll
	if telegramClient != nil {
		route := func(ctx context.Context, chatID, text string) string {
			return routerService.Route(ctx, dispatch.ChannelTelegram, chatID, text)
		}
		reply := func(chatID, text string) {
			task := dispatch.NewTask(uuid.Nil, dispatch.ChannelTelegram, chatID, text)
			if err := queue.Enqueue(task); err != nil {
				utils.Logger.WithError(err).Errorf("Failed to enqueue Telegram reply for chat %s", chatID)
			}
		}
		poller := telegram.NewPoller(telegramClient, route, reply)
		go poller.Run(ctx)
	}

	// Controllers
	healthController := controllers.NewHealthController(application)
	webhookController := controllers.NewWebhookController(cfg, routerService, queue)

	// Router setup
	router := mux.NewRouter()
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.TwilioWebhook, webhookController.TwilioWebhookHandler).Methods(http.MethodPost)

	// Cron job setup
	c := cron.New(cron.WithLocation(time.UTC))
	_, err = c.AddFunc(cleanupCronSpec, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		cleanupService.Run(jobCtx)
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule cleanup cron")
	}
	c.Start()
	utils.Logger.Info("Scheduled cleanup cron job")

	co := cors.New(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Twilio-Signature"},
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Server failed to start:", err)
	}
}
