package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ainaru/internal/models"
)

const bookingsPerPage = 8

// showSchedulePage renders one page of today's bookings for managers.
// messageID 0 sends a new message, otherwise the existing one is edited.
func (b *Bot) showSchedulePage(ctx context.Context, chatID int64, messageID, page int) {
	date := models.DateOf(time.Now())
	bookings, err := b.directory.ListBookingsForDate(ctx, date, nil)
	if err != nil {
		b.logger.Error().Err(err).Str("date", date).Msg("list bookings")
		b.reply(ctx, chatID, "Could not load the schedule, please try again.")
		return
	}
	if len(bookings) == 0 {
		b.reply(ctx, chatID, fmt.Sprintf("No bookings for %s yet.", date))
		return
	}

	totalPages := (len(bookings) + bookingsPerPage - 1) / bookingsPerPage
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}
	startIdx := page * bookingsPerPage
	endIdx := startIdx + bookingsPerPage
	if endIdx > len(bookings) {
		endIdx = len(bookings)
	}

	var message strings.Builder
	fmt.Fprintf(&message, "Schedule for %s\n", date)
	fmt.Fprintf(&message, "Page %d of %d\n\n", page+1, totalPages)
	for i, booking := range bookings[startIdx:endIdx] {
		therapist := "unassigned"
		if booking.TherapistID != nil {
			therapist = fmt.Sprintf("therapist %d", *booking.TherapistID)
		}
		fmt.Fprintf(&message, "%d. %s  %s  %s (%s)\n",
			startIdx+i+1,
			booking.Interval().Display(),
			booking.BookingCode,
			therapist,
			booking.Status,
		)
	}

	var navButtons []tgbotapi.InlineKeyboardButton
	if page > 0 {
		navButtons = append(navButtons,
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("%s%d", cbPage, page-1)))
	}
	if endIdx < len(bookings) {
		navButtons = append(navButtons,
			tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("%s%d", cbPage, page+1)))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if len(navButtons) > 0 {
		rows = append(rows, navButtons)
	}
	markup := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}

	if messageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, message.String())
		if len(rows) > 0 {
			edit.ReplyMarkup = &markup
		}
		b.sender.send(ctx, edit)
		return
	}

	msg := tgbotapi.NewMessage(chatID, message.String())
	if len(rows) > 0 {
		msg.ReplyMarkup = markup
	}
	b.sender.send(ctx, msg)
}
