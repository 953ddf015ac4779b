package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/config"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/dispatch"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/models"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/repositories"
	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

const (
	genericErrorReply = "Sorry, something went wrong on our side. Please try again in a moment."

	helpReply = "Here is what I can do:\n" +
		"/register - link your phone and set a PIN\n" +
		"/onboard - complete your member profile\n" +
		"/profile - view your profile\n" +
		"/balance <pin> - check your account balance\n" +
		"/apply_loan - apply for a loan\n" +
		"/loans - list your loan applications\n" +
		"/send_otp - get a verification code\n" +
		"/verify_otp <code> - verify a code\n" +
		"/cancel - stop the current dialogue\n" +
		"Or just ask me a question."

	registerStartPrompt    = "Let's get you registered. Send your phone number in international format (e.g. +254712345678), or just a 4 to 6 digit PIN."
	registerStartReprompt  = "Send a phone number like +254712345678, or a 4 to 6 digit PIN."
	registerPinPrompt      = "Got it. Now choose a PIN (4 to 6 digits)."
	registerPinReprompt    = "PINs must be 4 to 6 digits."
	registerDoneReply      = "You are registered. Continue with /onboard to complete your profile."
	alreadyRegisteredReply = "You are already registered. Continue with /onboard."
	notRegisteredReply     = "Please /register first."

	verifyUsageReply     = "Usage: /verify_otp <code>"
	balancePinUsageReply = "Please include your PIN: /balance <pin>"
	balancePinWrongReply = "That PIN is not correct."
	otpSentReply         = "A verification code is on its way."
	otpVerifiedReply     = "Your code checked out. You are verified."
	nothingToCancelReply = "Nothing to cancel."
)

var phonePattern = regexp.MustCompile(`^\+?\d{7,15}$`)

// whatsappAliases maps bare words WhatsApp users type to the slash
// commands Telegram users send, so both channels hit the same handlers.
var whatsappAliases = map[string]string{
	"register":   "/register",
	"onboard":    "/onboard",
	"profile":    "/profile",
	"balance":    "/balance",
	"loans":      "/loans",
	"loan":       "/apply_loan",
	"apply loan": "/apply_loan",
	"send otp":   "/send_otp",
	"cancel":     "/cancel",
	"help":       "/help",
}

type registerStep int

const (
	registerAwaitingPhoneOrPin registerStep = iota
	registerAwaitingPin
)

// RouterService is the single entry point for inbound messages from
// every channel. All handling for one user is serialized on a keyed
// lock, so two messages from the same chat never interleave.
type RouterService struct {
	users      repositories.UserRepository
	answers    *AnswerService
	onboarding OnboardingService
	loans      LoanService
	otp        OTPService
	queue      *dispatch.Queue
	cfg        *config.Config

	locks *utils.KeyLock

	mu               sync.Mutex
	registerSessions map[uuid.UUID]registerStep
}

func NewRouterService(
	users repositories.UserRepository,
	answers *AnswerService,
	onboarding OnboardingService,
	loans LoanService,
	otp OTPService,
	queue *dispatch.Queue,
	cfg *config.Config,
) *RouterService {
	return &RouterService{
		users:            users,
		answers:          answers,
		onboarding:       onboarding,
		loans:            loans,
		otp:              otp,
		queue:            queue,
		cfg:              cfg,
		locks:            utils.NewKeyLock(),
		registerSessions: make(map[uuid.UUID]registerStep),
	}
}

// Route handles one inbound message and returns the reply text. It
// never returns an error to the channel layer; failures become a
// generic reply and a log line.
func (s *RouterService) Route(ctx context.Context, channel dispatch.Channel, chatID, text string) string {
	lockKey := string(channel) + ":" + chatID
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	user, err := s.users.GetByChatID(ctx, chatID)
	if err != nil {
		utils.Logger.WithError(err).Errorf("Failed to load user for chat %s", chatID)
		return genericErrorReply
	}
	if user == nil {
		user, err = s.users.Create(ctx, chatID, nil, nil, nil)
		if err != nil {
			utils.Logger.WithError(err).Errorf("Failed to create user for chat %s", chatID)
			return genericErrorReply
		}
	}

	text = strings.TrimSpace(text)
	if channel == dispatch.ChannelWhatsApp {
		text = normalizeWhatsApp(text)
	}

	if strings.HasPrefix(text, "/") {
		return s.handleCommand(ctx, user, channel, text)
	}
	return s.handleFreeText(ctx, user, channel, text)
}

// normalizeWhatsApp rewrites well-known bare words into slash commands.
// "verify otp 123456" keeps its argument.
func normalizeWhatsApp(text string) string {
	lower := strings.ToLower(text)
	if cmd, ok := whatsappAliases[lower]; ok {
		return cmd
	}
	if rest, ok := strings.CutPrefix(lower, "verify otp"); ok {
		return "/verify_otp " + strings.TrimSpace(rest)
	}
	return text
}

func parseCommand(text string) (string, string) {
	cmd, arg, _ := strings.Cut(text, " ")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}

func (s *RouterService) handleCommand(ctx context.Context, user *models.User, channel dispatch.Channel, text string) string {
	cmd, arg := parseCommand(text)

	switch cmd {
	case "/start":
		return "Welcome! " + helpReply
	case "/help":
		return helpReply
	case "/register":
		return s.beginRegister(user)
	case "/onboard":
		if !s.registered(user) {
			return notRegisteredReply
		}
		return s.reply(s.onboarding.Start(ctx, user))
	case "/profile":
		return s.reply(s.onboarding.Summary(ctx, user))
	case "/balance":
		return s.balanceReply(user, arg)
	case "/apply_loan":
		return s.reply(s.loans.Begin(ctx, user))
	case "/loans":
		return s.reply(s.loans.List(ctx, user))
	case "/send_otp":
		return s.sendOtp(ctx, user, channel)
	case "/verify_otp":
		return s.verifyOtp(ctx, user, channel, arg)
	case "/cancel":
		return s.cancel(ctx, user)
	default:
		return "I don't know that command. Try /help."
	}
}

func (s *RouterService) handleFreeText(ctx context.Context, user *models.User, channel dispatch.Channel, text string) string {
	if step, ok := s.registerSession(user.ID); ok {
		return s.advanceRegister(ctx, user, step, text)
	}

	currentStep, err := s.onboarding.CurrentStep(ctx, user)
	if err != nil {
		utils.Logger.WithError(err).Errorf("Failed to load onboarding step for user %s", user.ID)
		return genericErrorReply
	}
	if currentStep.InProgress() {
		return s.reply(s.onboarding.Advance(ctx, user, channel, text))
	}

	if s.loans.InSession(user.ID) {
		return s.reply(s.loans.Advance(ctx, user, text))
	}

	return s.answers.Answer(text).Reply
}

func (s *RouterService) registered(user *models.User) bool {
	return user.PinHash != nil || user.HasPhone()
}

func (s *RouterService) beginRegister(user *models.User) string {
	if s.registered(user) {
		return alreadyRegisteredReply
	}
	s.mu.Lock()
	s.registerSessions[user.ID] = registerAwaitingPhoneOrPin
	s.mu.Unlock()
	return registerStartPrompt
}

func (s *RouterService) registerSession(userID uuid.UUID) (registerStep, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	step, ok := s.registerSessions[userID]
	return step, ok
}

func (s *RouterService) advanceRegister(ctx context.Context, user *models.User, step registerStep, text string) string {
	text = strings.TrimSpace(text)

	switch step {
	case registerAwaitingPhoneOrPin:
		// A bare 4-6 digit PIN registers on its own; the shapes are
		// disjoint because phone numbers need at least 7 digits.
		if looksLikePin(text) {
			return s.savePin(ctx, user, text)
		}
		if !phonePattern.MatchString(text) {
			return registerStartReprompt
		}
		if err := s.users.UpdatePhone(ctx, user.ID, text); err != nil {
			utils.Logger.WithError(err).Errorf("Failed to save phone for user %s", user.ID)
			return genericErrorReply
		}
		s.mu.Lock()
		s.registerSessions[user.ID] = registerAwaitingPin
		s.mu.Unlock()
		return registerPinPrompt

	case registerAwaitingPin:
		if !looksLikePin(text) {
			return registerPinReprompt
		}
		return s.savePin(ctx, user, text)
	}

	return genericErrorReply
}

func (s *RouterService) savePin(ctx context.Context, user *models.User, pin string) string {
	salt, hash, err := utils.MakePinHash(pin)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to hash PIN")
		return genericErrorReply
	}
	if err := s.users.UpdatePin(ctx, user.ID, salt, hash); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to save PIN for user %s", user.ID)
		return genericErrorReply
	}
	s.mu.Lock()
	delete(s.registerSessions, user.ID)
	s.mu.Unlock()
	return registerDoneReply
}

func looksLikePin(s string) bool {
	return len(s) >= 4 && len(s) <= 6 && isDigits(s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func (s *RouterService) balanceReply(user *models.User, pin string) string {
	if !s.registered(user) {
		return notRegisteredReply
	}
	// Account data needs the PIN when one is set.
	if user.PinHash != nil && user.PinSalt != nil {
		if pin == "" {
			return balancePinUsageReply
		}
		if !utils.VerifyPin(pin, *user.PinSalt, *user.PinHash) {
			return balancePinWrongReply
		}
	}
	return fmt.Sprintf("Your current balance is KES %.2f.", user.Balance)
}

func (s *RouterService) sendOtp(ctx context.Context, user *models.User, channel dispatch.Channel) string {
	if !s.registered(user) {
		return notRegisteredReply
	}
	if reply := issueAndDeliver(ctx, s.otp, s.queue, s.cfg.OrganizationName, user, channel); reply != "" {
		return reply
	}
	return otpSentReply
}

func (s *RouterService) verifyOtp(ctx context.Context, user *models.User, channel dispatch.Channel, code string) string {
	if code == "" {
		return verifyUsageReply
	}

	// Mid-onboarding the code belongs to the state machine, which also
	// moves the dialogue forward on success.
	step, err := s.onboarding.CurrentStep(ctx, user)
	if err != nil {
		utils.Logger.WithError(err).Errorf("Failed to load onboarding step for user %s", user.ID)
		return genericErrorReply
	}
	if step.InProgress() {
		return s.reply(s.onboarding.Advance(ctx, user, channel, code))
	}

	result, err := s.otp.Verify(ctx, user.ID, code)
	if err != nil {
		utils.Logger.WithError(err).Errorf("Failed to verify code for user %s", user.ID)
		return genericErrorReply
	}
	switch result.Reason {
	case VerifyReasonOK:
		return otpVerifiedReply
	case VerifyReasonExpired:
		return otpExpiredReply
	case VerifyReasonAttemptsExceeded:
		return otpExceededReply
	case VerifyReasonNoActive:
		return otpNoActiveReply
	default:
		return otpMismatchReply
	}
}

func (s *RouterService) cancel(ctx context.Context, user *models.User) string {
	if reply, ok := s.loans.Cancel(user.ID); ok {
		return reply
	}
	s.mu.Lock()
	_, inRegister := s.registerSessions[user.ID]
	delete(s.registerSessions, user.ID)
	s.mu.Unlock()
	if inRegister {
		return "Registration cancelled."
	}

	step, err := s.onboarding.CurrentStep(ctx, user)
	if err != nil {
		utils.Logger.WithError(err).Errorf("Failed to load onboarding step for user %s", user.ID)
		return genericErrorReply
	}
	if step.InProgress() {
		return s.reply(s.onboarding.Cancel(ctx, user))
	}
	return nothingToCancelReply
}

func (s *RouterService) reply(text string, err error) string {
	if err != nil {
		utils.Logger.WithError(err).Error("Handler failed")
		return genericErrorReply
	}
	return text
}
