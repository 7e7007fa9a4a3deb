package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrBotNotConfigured is returned when a notification is attempted without a bot token.
var ErrBotNotConfigured = errors.New("telegram bot not initialized")

// MessageSender is the subset of *bot.Bot used for notifications.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
}

// NotificationService sends forecast summaries to Telegram chats.
type NotificationService struct {
	sender  MessageSender
	breaker *CircuitBreaker
	logger  *logrus.Logger
}

// NewNotificationService creates a Telegram-backed notifier. An empty token yields a
// service whose sends fail with ErrBotNotConfigured.
func NewNotificationService(telegramBotToken string, logger *logrus.Logger) (*NotificationService, error) {
	if telegramBotToken == "" {
		return NewNotificationServiceWithSender(nil, logger), nil
	}

	telegramBot, err := bot.New(telegramBotToken, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return NewNotificationServiceWithSender(telegramBot, logger), nil
}

// NewNotificationServiceWithSender wraps an existing sender.
func NewNotificationServiceWithSender(sender MessageSender, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		sender:  sender,
		breaker: NewCircuitBreaker("telegram", CircuitBreakerConfig{FailureThreshold: 5, Cooldown: time.Minute}, logger),
		logger:  logger,
	}
}

// Enabled reports whether a bot is attached.
func (ns *NotificationService) Enabled() bool {
	return ns.sender != nil
}

// BreakerStatus reports the Telegram circuit state and its counters.
func (ns *NotificationService) BreakerStatus() (string, CircuitBreakerStats) {
	return ns.breaker.State().String(), ns.breaker.Stats()
}

// NotifyForecast sends a forecast summary to the given chat.
func (ns *NotificationService) NotifyForecast(ctx context.Context, chatID string, prediction models.Prediction) error {
	if ns.sender == nil {
		return ErrBotNotConfigured
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}

	params := &bot.SendMessageParams{
		ChatID:    id,
		Text:      ns.FormatForecastMessage(prediction),
		ParseMode: tgmodels.ParseModeHTML,
	}
	err = ns.breaker.Execute(ctx, func(ctx context.Context) error {
		_, err := ns.sender.SendMessage(ctx, params)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	ns.logger.WithFields(logrus.Fields{
		"chat_id":   id,
		"bank_name": prediction.BankName,
		"tenure":    prediction.TenureMonths,
	}).Debug("Forecast notification sent")
	return nil
}

// FormatForecastMessage renders a prediction as an HTML chat message.
func (ns *NotificationService) FormatForecastMessage(prediction models.Prediction) string {
	var b strings.Builder
	b.WriteString("📊 <b>FD Rate Forecast</b>\n\n")
	fmt.Fprintf(&b, "<b>%s</b> · %d months\n", html.EscapeString(prediction.BankName), prediction.TenureMonths)
	fmt.Fprintf(&b, "%s Next rate: <b>%.2f%%</b>\n", trendIcon(prediction.Trend), prediction.PredictedRate)
	fmt.Fprintf(&b, "Trend: %s\n", titleCase(prediction.Trend))
	fmt.Fprintf(&b, "Confidence: %d%%\n", prediction.Confidence)
	fmt.Fprintf(&b, "Based on %d data points", prediction.BasedOnDataPoints)
	return b.String()
}

// titleCase builds a fresh Caser per call; a Caser is stateful and not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func trendIcon(trend string) string {
	switch trend {
	case "increasing":
		return "📈"
	case "decreasing":
		return "📉"
	default:
		return "➡️"
	}
}
