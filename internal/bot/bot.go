// Package bot implements the guest-facing Telegram bot: a step-by-step
// booking conversation backed by the scheduling core, plus manager tools.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ainaru/internal/models"
	"ainaru/internal/scheduling"
	"ainaru/internal/session"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	SelfUser() tgbotapi.User
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.api.Request(msg)
}

func (c *realTelegramClient) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

func (c *realTelegramClient) SelfUser() tgbotapi.User {
	return c.api.Self
}

// Directory is the catalog and lookup surface the bot needs beyond the
// scheduler.
type Directory interface {
	ListActiveServices(ctx context.Context) ([]models.Service, error)
	ListAvailableTherapists(ctx context.Context) ([]models.Therapist, error)
	GetBookingByCode(ctx context.Context, code string) (*models.Booking, error)
	ListBookingsForDate(ctx context.Context, date string, therapistID *int64) ([]models.Booking, error)
}

// Bot runs the Telegram conversation.
type Bot struct {
	scheduler *scheduling.Scheduler
	directory Directory
	sessions  session.Store
	tg        telegramClient
	sender    *sender
	managers  map[int64]struct{}
	logger    *zerolog.Logger
}

// New authorizes against the Telegram API and wires the bot.
func New(token string, scheduler *scheduling.Scheduler, directory Directory, sessions session.Store, managers []int64, logger *zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return newBot(&realTelegramClient{api: api}, scheduler, directory, sessions, managers, logger)
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(tg telegramClient, scheduler *scheduling.Scheduler, directory Directory, sessions session.Store, managers []int64, logger *zerolog.Logger) (*Bot, error) {
	return newBot(tg, scheduler, directory, sessions, managers, logger)
}

func newBot(tg telegramClient, scheduler *scheduling.Scheduler, directory Directory, sessions session.Store, managers []int64, logger *zerolog.Logger) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	mgrs := make(map[int64]struct{})
	for _, id := range managers {
		mgrs[id] = struct{}{}
	}
	return &Bot{
		scheduler: scheduler,
		directory: directory,
		sessions:  sessions,
		tg:        tg,
		sender:    newSender(tg, logger),
		managers:  mgrs,
		logger:    logger,
	}, nil
}

func (b *Bot) isManager(userID int64) bool {
	_, ok := b.managers[userID]
	return ok
}

var mainMenu = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("💆 Book a massage"),
		tgbotapi.NewKeyboardButton("🔎 Find my booking"),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("ℹ️ Help"),
	),
)

var managerMenu = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("💆 Book a massage"),
		tgbotapi.NewKeyboardButton("📅 Today's schedule"),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("🔎 Find my booking"),
		tgbotapi.NewKeyboardButton("ℹ️ Help"),
	),
)

func (b *Bot) sendMainMenu(ctx context.Context, chatID, userID int64) {
	msg := tgbotapi.NewMessage(chatID, "What would you like to do?")
	if b.isManager(userID) {
		msg.ReplyMarkup = managerMenu
	} else {
		msg.ReplyMarkup = mainMenu
	}
	b.sender.send(ctx, msg)
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("bot authorized")

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			requestID := uuid.New().String()
			l := b.logger.With().Str("request_id", requestID).Logger()
			b.handleUpdate(l.WithContext(ctx), &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	if update.CallbackQuery != nil {
		l.Debug().
			Int64("user_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("handling callback query")
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil {
		l.Debug().
			Int64("user_id", update.Message.From.ID).
			Str("text", update.Message.Text).
			Msg("handling message")
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID

	// Commands interrupt any active flow.
	if strings.HasPrefix(text, "/") {
		switch {
		case strings.HasPrefix(text, "/start"):
			_ = b.sessions.Clear(ctx, chatID)
			b.reply(ctx, chatID, "Welcome to Ainaru Massage! I can book your session any day from 10:00 until 02:00 after midnight.")
			b.sendMainMenu(ctx, chatID, msg.From.ID)
		case strings.HasPrefix(text, "/book"):
			b.startBooking(ctx, chatID)
		case strings.HasPrefix(text, "/cancel"):
			b.handleCancelCommand(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/cancel")))
		case strings.HasPrefix(text, "/help"):
			b.sendHelp(ctx, chatID)
		default:
			b.reply(ctx, chatID, "Unknown command. Try /book, /cancel <code> or /help.")
		}
		return
	}

	switch text {
	case "💆 Book a massage":
		b.startBooking(ctx, chatID)
		return
	case "🔎 Find my booking":
		b.reply(ctx, chatID, "Send me your booking code (it starts with AM).")
		return
	case "📅 Today's schedule":
		if b.isManager(msg.From.ID) {
			b.showSchedulePage(ctx, chatID, 0, 0)
			return
		}
	case "ℹ️ Help":
		b.sendHelp(ctx, chatID)
		return
	}

	if looksLikeBookingCode(text) {
		b.showBookingByCode(ctx, chatID, strings.ToUpper(text))
		return
	}

	// Free text feeds the notes step of an active conversation.
	sess, err := b.sessions.Get(ctx, chatID)
	if err == nil && sess.Step == session.StepConfirm {
		sess.Draft.Notes = text
		if err := b.sessions.Set(ctx, sess); err != nil {
			b.logger.Error().Err(err).Msg("save session")
		}
		b.reply(ctx, chatID, "Noted. Press Confirm when you are ready.")
		return
	}

	b.sendMainMenu(ctx, chatID, msg.From.ID)
}

func (b *Bot) sendHelp(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID,
		"/book starts a new booking.\n"+
			"/cancel <code> cancels a booking by its AM code.\n"+
			"Send a booking code at any time to look it up.\n"+
			"We are open daily from 10:00 until 02:00 after midnight.")
}

func (b *Bot) handleCancelCommand(ctx context.Context, chatID int64, code string) {
	if code == "" {
		b.reply(ctx, chatID, "Usage: /cancel <booking code>")
		return
	}
	booking, err := b.directory.GetBookingByCode(ctx, strings.ToUpper(code))
	if err != nil {
		b.reply(ctx, chatID, "I could not find a booking with that code.")
		return
	}

	if _, err := b.scheduler.CancelBooking(ctx, booking.ID, chatID, "cancelled via bot"); err != nil {
		if errors.Is(err, scheduling.ErrNotCancellable) {
			b.reply(ctx, chatID, "This booking can no longer be cancelled. Confirmed sessions close for changes 24 hours before the start.")
			return
		}
		b.logger.Error().Err(err).Str("code", code).Msg("cancel booking")
		b.reply(ctx, chatID, "Something went wrong, please try again later.")
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Booking %s is cancelled. We hope to see you another time!", booking.BookingCode))
}

func (b *Bot) showBookingByCode(ctx context.Context, chatID int64, code string) {
	booking, err := b.directory.GetBookingByCode(ctx, code)
	if err != nil {
		b.reply(ctx, chatID, "I could not find a booking with that code.")
		return
	}
	b.reply(ctx, chatID, formatBooking(booking))
}

func formatBooking(booking *models.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Booking %s\n", booking.BookingCode)
	fmt.Fprintf(&sb, "Date: %s\n", booking.Date)
	fmt.Fprintf(&sb, "Time: %s\n", booking.Interval().Display())
	fmt.Fprintf(&sb, "Status: %s\n", booking.Status)
	if booking.TotalPrice > 0 {
		fmt.Fprintf(&sb, "Price: %d THB\n", booking.TotalPrice)
	}
	if booking.Notes != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", booking.Notes)
	}
	return sb.String()
}

func looksLikeBookingCode(text string) bool {
	text = strings.ToUpper(text)
	if !strings.HasPrefix(text, "AM") || len(text) != 11 {
		return false
	}
	for _, r := range text[2:] {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	b.sender.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.tg.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.logger.Debug().Err(err).Msg("answer callback")
	}
}

func parseCallbackID(data, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(data, prefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
