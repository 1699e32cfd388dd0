package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ainaru/internal/models"
	"ainaru/internal/scheduling"
)

func serviceKeyboard(services []models.Service) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(services))
	for _, svc := range services {
		label := fmt.Sprintf("%s — %d min", svc.Name, svc.DurationMinutes)
		if svc.Price > 0 {
			label = fmt.Sprintf("%s, %d THB", label, svc.Price)
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", cbService, svc.ID)),
		})
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// calendarKeyboard builds a Monday-first month grid. Days before today are
// rendered inert.
func calendarKeyboard(year, month int, now time.Time) tgbotapi.InlineKeyboardMarkup {
	firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())
	weekdayOffset := int(firstDay.Weekday())
	if weekdayOffset == 0 {
		weekdayOffset = 7
	}
	daysInMonth := daysIn(time.Month(month), year)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	rows := make([][]tgbotapi.InlineKeyboardButton, 0)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s %d", time.Month(month).String(), year), cbNoop),
	})
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Mo", cbNoop),
		tgbotapi.NewInlineKeyboardButtonData("Tu", cbNoop),
		tgbotapi.NewInlineKeyboardButtonData("We", cbNoop),
		tgbotapi.NewInlineKeyboardButtonData("Th", cbNoop),
		tgbotapi.NewInlineKeyboardButtonData("Fr", cbNoop),
		tgbotapi.NewInlineKeyboardButtonData("Sa", cbNoop),
		tgbotapi.NewInlineKeyboardButtonData("Su", cbNoop),
	})

	day := 1
	for day <= daysInMonth {
		row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
		for col := 1; col <= 7; col++ {
			if len(rows) == 2 && col < weekdayOffset {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(" ", cbNoop))
				continue
			}
			if day > daysInMonth {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(" ", cbNoop))
				continue
			}
			date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
			if date.Before(today) {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData("·", cbNoop))
			} else {
				dateStr := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("%d", day), cbDate+dateStr))
			}
			day++
		}
		rows = append(rows, row)
	}

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// slotKeyboard lays out the available start times three per row, labelled
// with wall-clock times; callback data carries the extended form.
func slotKeyboard(slots []scheduling.Slot) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0)
	var current []tgbotapi.InlineKeyboardButton
	for _, slot := range slots {
		current = append(current, tgbotapi.NewInlineKeyboardButtonData(
			slot.Display, cbSlot+slot.Start))
		if len(current) == 3 {
			rows = append(rows, current)
			current = nil
		}
	}
	if len(current) > 0 {
		rows = append(rows, current)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func therapistKeyboard(therapists []models.Therapist) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData("✨ Any available therapist", cbTherapist+"any")},
	}
	for _, t := range therapists {
		label := t.DisplayName
		if t.Rating > 0 {
			label = fmt.Sprintf("%s ⭐ %.1f", label, t.Rating)
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", cbTherapist, t.ID)),
		})
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", cbConfirm+"yes"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cbConfirm+"no"),
		),
	)
}

func daysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
