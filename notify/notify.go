package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Logger is the subset of the logging sink used here
type Logger interface {
	Error(format string, args ...interface{})
	Warning(format string, args ...interface{})
}

// Sender delivers a text message to a chat
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ErrorSink reports run-aborting failures. It always logs; when a Telegram
// chat is configured it also sends the message there.
type ErrorSink struct {
	logger Logger
	bot    Sender
	chatID int64
	prefix string
}

// NewErrorSink creates an ErrorSink that only logs
func NewErrorSink(logger Logger) *ErrorSink {
	return &ErrorSink{logger: logger}
}

// NewTelegramErrorSink creates an ErrorSink that also messages chatID
func NewTelegramErrorSink(logger Logger, token string, chatID int64, prefix string) (*ErrorSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return NewErrorSinkWithSender(logger, bot, chatID, prefix), nil
}

// NewErrorSinkWithSender creates an ErrorSink around an existing sender
func NewErrorSinkWithSender(logger Logger, bot Sender, chatID int64, prefix string) *ErrorSink {
	return &ErrorSink{
		logger: logger,
		bot:    bot,
		chatID: chatID,
		prefix: prefix,
	}
}

// ReportFatal records msg as the reason the run stopped
func (s *ErrorSink) ReportFatal(msg string) {
	s.logger.Error("%s", msg)
	if s.bot == nil {
		return
	}

	text := msg
	if s.prefix != "" {
		text = fmt.Sprintf("❌ %s\n%s", s.prefix, msg)
	}
	if _, err := s.bot.Send(tgbotapi.NewMessage(s.chatID, text)); err != nil {
		s.logger.Warning("failed to send Telegram notification: %v", err)
	}
}
