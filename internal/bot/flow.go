package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"ainaru/internal/scheduling"
	"ainaru/internal/session"
	"ainaru/internal/timeslot"
)

// Callback prefixes of the booking conversation.
const (
	cbService   = "svc:"
	cbDate      = "date:"
	cbSlot      = "slot:"
	cbTherapist = "ther:"
	cbConfirm   = "confirm:"
	cbPage      = "page:"
	cbNoop      = "noop"
)

func (b *Bot) startBooking(ctx context.Context, chatID int64) {
	services, err := b.directory.ListActiveServices(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("list services")
		b.reply(ctx, chatID, "Something went wrong, please try again later.")
		return
	}
	if len(services) == 0 {
		b.reply(ctx, chatID, "No services are available right now.")
		return
	}

	sess := &session.Session{ChatID: chatID, Step: session.StepService}
	if err := b.sessions.Set(ctx, sess); err != nil {
		b.logger.Error().Err(err).Msg("save session")
	}

	msg := tgbotapi.NewMessage(chatID, "Choose your massage:")
	msg.ReplyMarkup = serviceKeyboard(services)
	b.sender.send(ctx, msg)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data

	if data == cbNoop {
		b.answerCallback(cb, "")
		return
	}
	if strings.HasPrefix(data, cbPage) {
		b.answerCallback(cb, "")
		page := 0
		fmt.Sscanf(strings.TrimPrefix(data, cbPage), "%d", &page)
		b.showSchedulePage(ctx, chatID, cb.Message.MessageID, page)
		return
	}

	sess, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			b.answerCallback(cb, "This conversation has expired, use /book to start over.")
			return
		}
		b.logger.Error().Err(err).Msg("load session")
		b.answerCallback(cb, "Please try again.")
		return
	}

	switch {
	case strings.HasPrefix(data, cbService):
		b.stepService(ctx, cb, sess)
	case strings.HasPrefix(data, cbDate):
		b.stepDate(ctx, cb, sess)
	case strings.HasPrefix(data, cbSlot):
		b.stepSlot(ctx, cb, sess)
	case strings.HasPrefix(data, cbTherapist):
		b.stepTherapist(ctx, cb, sess)
	case strings.HasPrefix(data, cbConfirm):
		b.stepConfirm(ctx, cb, sess)
	default:
		b.answerCallback(cb, "")
	}
}

func (b *Bot) stepService(ctx context.Context, cb *tgbotapi.CallbackQuery, sess *session.Session) {
	chatID := cb.Message.Chat.ID
	id, ok := parseCallbackID(cb.Data, cbService)
	if !ok {
		b.answerCallback(cb, "")
		return
	}

	svc, err := b.scheduler.Service(ctx, id)
	if err != nil {
		b.answerCallback(cb, "That service is no longer available.")
		return
	}

	sess.Step = session.StepDate
	sess.Draft = session.Draft{
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		Duration:    svc.DurationMinutes,
	}
	if err := b.sessions.Set(ctx, sess); err != nil {
		b.logger.Error().Err(err).Msg("save session")
	}
	b.answerCallback(cb, "")

	now := time.Now()
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, cb.Message.MessageID,
		fmt.Sprintf("%s (%d min). Pick a date:", svc.Name, svc.DurationMinutes),
		calendarKeyboard(now.Year(), int(now.Month()), now),
	)
	b.sender.send(ctx, edit)
}

func (b *Bot) stepDate(ctx context.Context, cb *tgbotapi.CallbackQuery, sess *session.Session) {
	chatID := cb.Message.Chat.ID
	date := strings.TrimPrefix(cb.Data, cbDate)
	if _, err := time.Parse("2006-01-02", date); err != nil {
		b.answerCallback(cb, "")
		return
	}

	slots, err := b.scheduler.AvailableSlots(ctx, date, sess.Draft.Duration, nil)
	if err != nil {
		if errors.Is(err, scheduling.ErrInvalidRequest) {
			b.answerCallback(cb, "That date cannot be booked.")
			return
		}
		b.logger.Error().Err(err).Str("date", date).Msg("availability")
		b.answerCallback(cb, "Please try again.")
		return
	}
	if len(slots) == 0 {
		b.answerCallback(cb, "That day is fully booked, pick another date.")
		return
	}

	sess.Step = session.StepTime
	sess.Draft.Date = date
	if err := b.sessions.Set(ctx, sess); err != nil {
		b.logger.Error().Err(err).Msg("save session")
	}
	b.answerCallback(cb, "")

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, cb.Message.MessageID,
		fmt.Sprintf("%s on %s. Pick a start time:", sess.Draft.ServiceName, date),
		slotKeyboard(slots),
	)
	b.sender.send(ctx, edit)
}

func (b *Bot) stepSlot(ctx context.Context, cb *tgbotapi.CallbackQuery, sess *session.Session) {
	chatID := cb.Message.Chat.ID
	raw := strings.TrimPrefix(cb.Data, cbSlot)
	start, err := timeslot.ParseTimeOfDay(raw)
	if err != nil {
		b.answerCallback(cb, "")
		return
	}

	therapists, err := b.directory.ListAvailableTherapists(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("list therapists")
		b.answerCallback(cb, "Please try again.")
		return
	}

	sess.Step = session.StepTherapist
	sess.Draft.Start = start.String()
	if err := b.sessions.Set(ctx, sess); err != nil {
		b.logger.Error().Err(err).Msg("save session")
	}
	b.answerCallback(cb, "")

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, cb.Message.MessageID,
		fmt.Sprintf("Starting at %s. Choose a therapist:", start.Display()),
		therapistKeyboard(therapists),
	)
	b.sender.send(ctx, edit)
}

func (b *Bot) stepTherapist(ctx context.Context, cb *tgbotapi.CallbackQuery, sess *session.Session) {
	chatID := cb.Message.Chat.ID
	raw := strings.TrimPrefix(cb.Data, cbTherapist)

	if raw != "any" {
		id, ok := parseCallbackID(cb.Data, cbTherapist)
		if !ok {
			b.answerCallback(cb, "")
			return
		}
		sess.Draft.TherapistID = id
	} else {
		sess.Draft.TherapistID = 0
	}

	sess.Step = session.StepConfirm
	if err := b.sessions.Set(ctx, sess); err != nil {
		b.logger.Error().Err(err).Msg("save session")
	}
	b.answerCallback(cb, "")

	start, _ := timeslot.ParseTimeOfDay(sess.Draft.Start)
	summary := fmt.Sprintf(
		"Please confirm your booking:\n\n%s\n%s at %s (%d min)\n\nYou can also send a message with any special requests before confirming.",
		sess.Draft.ServiceName, sess.Draft.Date, start.Display(), sess.Draft.Duration,
	)
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, cb.Message.MessageID, summary, confirmKeyboard(),
	)
	b.sender.send(ctx, edit)
}

func (b *Bot) stepConfirm(ctx context.Context, cb *tgbotapi.CallbackQuery, sess *session.Session) {
	chatID := cb.Message.Chat.ID

	if strings.TrimPrefix(cb.Data, cbConfirm) != "yes" {
		_ = b.sessions.Clear(ctx, chatID)
		b.answerCallback(cb, "")
		b.reply(ctx, chatID, "Booking cancelled. Use /book whenever you are ready.")
		return
	}

	start, err := timeslot.ParseTimeOfDay(sess.Draft.Start)
	if err != nil {
		b.answerCallback(cb, "This conversation has expired, use /book to start over.")
		return
	}

	req := scheduling.CreateBookingRequest{
		Date:      sess.Draft.Date,
		Start:     start,
		ServiceID: sess.Draft.ServiceID,
		Notes:     sess.Draft.Notes,
		ClientRef: uuid.New().String(),
	}
	if sess.Draft.TherapistID > 0 {
		req.TherapistID = &sess.Draft.TherapistID
	}
	if sess.Draft.HotelID > 0 {
		req.HotelID = &sess.Draft.HotelID
	}

	booking, err := b.scheduler.CreateBooking(ctx, req)
	if err != nil {
		b.answerCallback(cb, "")
		switch {
		case errors.Is(err, scheduling.ErrSlotUnavailable):
			b.reply(ctx, chatID, "Sorry, that time was just taken. Use /book to pick another slot.")
		case errors.Is(err, scheduling.ErrTherapistUnavailable):
			b.reply(ctx, chatID, "That therapist is not available. Use /book to start over.")
		case errors.Is(err, scheduling.ErrOutsideBusinessHours), errors.Is(err, scheduling.ErrInvalidRequest):
			b.reply(ctx, chatID, "That booking is not valid any more. Use /book to start over.")
		default:
			b.logger.Error().Err(err).Msg("create booking")
			b.reply(ctx, chatID, "Something went wrong, please try again later.")
		}
		_ = b.sessions.Clear(ctx, chatID)
		return
	}

	_ = b.sessions.Clear(ctx, chatID)
	b.answerCallback(cb, "Booked!")
	b.reply(ctx, chatID, fmt.Sprintf(
		"Your booking is in! 🎉\n\nCode: %s\n%s\n%s at %s\n\nKeep the code to look up or cancel the booking.",
		booking.BookingCode, sess.Draft.ServiceName, booking.Date, booking.Interval().Display(),
	))
}
