package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// sender serializes outgoing messages through a token bucket so bursts of
// conversation traffic stay under Telegram's flood limits.
type sender struct {
	tg      telegramClient
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func newSender(tg telegramClient, logger *zerolog.Logger) *sender {
	// Telegram allows ~30 messages per second per bot.
	return &sender{
		tg:      tg,
		limiter: rate.NewLimiter(rate.Limit(25), 5),
		logger:  logger,
	}
}

func (s *sender) send(ctx context.Context, msg tgbotapi.Chattable) {
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := s.tg.Send(msg); err != nil {
		s.logger.Error().Err(err).Msg("send message")
	}
}
