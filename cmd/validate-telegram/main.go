// Command validate-telegram checks the Telegram bot configuration used for forecast
// notifications and can send a sample forecast to a chat.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/irfndi/fdtrend-go/internal/config"
	"github.com/irfndi/fdtrend-go/internal/logging"
	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/irfndi/fdtrend-go/internal/services"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// botClient is the subset of *bot.Bot the checks need.
type botClient interface {
	services.MessageSender
	GetMe(ctx context.Context) (*tgmodels.User, error)
}

func main() {
	chatID := pflag.String("chat-id", "", "send a sample forecast to this chat")
	pflag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  Warning: Could not load .env file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Telegram.BotToken == "" {
		fmt.Println("❌ TELEGRAM_BOT_TOKEN is not configured")
		os.Exit(1)
	}

	b, err := bot.New(cfg.Telegram.BotToken, bot.WithSkipGetMe())
	if err != nil {
		fmt.Printf("❌ Failed to create Telegram bot: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := logging.New(cfg.LogLevel, cfg.Environment)
	if err := validate(ctx, os.Stdout, b, services.NewNotificationServiceWithSender(b, logger), cfg.Telegram, *chatID); err != nil {
		os.Exit(1)
	}
}

func validate(ctx context.Context, out io.Writer, client botClient, notifier services.ForecastNotifier, cfg config.TelegramConfig, chatID string) error {
	fmt.Fprintf(out, "✅ TELEGRAM_BOT_TOKEN is configured (length: %d)\n", len(cfg.BotToken))
	if !cfg.Enabled {
		fmt.Fprintln(out, "⚠️  telegram.enabled is false, the server will not send notifications")
	}

	fmt.Fprintln(out, "🔍 Testing bot API connection...")
	info, err := client.GetMe(ctx)
	if err != nil {
		fmt.Fprintf(out, "❌ Failed to get bot info: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "✅ Bot API connection successful: @%s (id %d)\n", info.Username, info.ID)

	if chatID == "" {
		fmt.Fprintln(out, "\n🎉 All Telegram bot configuration checks passed!")
		return nil
	}

	sample := models.Prediction{
		BankName:          "Sample Bank",
		TenureMonths:      12,
		PredictedRate:     7.25,
		Confidence:        90,
		Trend:             "increasing",
		BasedOnDataPoints: 6,
		PredictionDate:    time.Now().UTC(),
	}
	if err := notifier.NotifyForecast(ctx, chatID, sample); err != nil {
		fmt.Fprintf(out, "❌ Failed to send sample forecast: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "✅ Sample forecast sent to chat %s\n", chatID)
	fmt.Fprintln(out, "\n🎉 All Telegram bot configuration checks passed!")
	return nil
}
