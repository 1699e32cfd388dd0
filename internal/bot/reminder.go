package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ainaru/internal/models"
)

// StartDailyDigest sends each manager tomorrow's schedule every day at the
// given local hour.
func (b *Bot) StartDailyDigest(ctx context.Context, hour int) {
	if len(b.managers) == 0 {
		return
	}

	go func() {
		timer := time.NewTimer(timeUntilNextHour(hour))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				b.sendTomorrowDigest(ctx)
				timer.Reset(24 * time.Hour)
			}
		}
	}()
}

func (b *Bot) sendTomorrowDigest(ctx context.Context) {
	date := models.DateOf(time.Now().Add(24 * time.Hour))

	bookings, err := b.directory.ListBookingsForDate(ctx, date, nil)
	if err != nil {
		b.logger.Error().Err(err).Str("date", date).Msg("digest: list bookings")
		return
	}

	text := formatDigest(date, bookings)
	for chatID := range b.managers {
		b.sender.send(ctx, tgbotapi.NewMessage(chatID, text))
	}
}

func formatDigest(date string, bookings []models.Booking) string {
	if len(bookings) == 0 {
		return fmt.Sprintf("No bookings scheduled for %s.", date)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Schedule for %s (%d bookings):\n\n", date, len(bookings))
	for _, booking := range bookings {
		therapist := "unassigned"
		if booking.TherapistID != nil {
			therapist = fmt.Sprintf("therapist %d", *booking.TherapistID)
		}
		fmt.Fprintf(&sb, "%s  %s  %s (%s)\n",
			booking.Interval().Display(),
			booking.BookingCode,
			therapist,
			booking.Status,
		)
	}
	return sb.String()
}

func timeUntilNextHour(hour int) time.Duration {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
