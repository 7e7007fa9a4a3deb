package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/irfndi/fdtrend-go/internal/models"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func samplePrediction() models.Prediction {
	return models.Prediction{
		BankName:          "ICICI <Bank>",
		TenureMonths:      12,
		PredictedRate:     7.456,
		Confidence:        88,
		Trend:             "increasing",
		BasedOnDataPoints: 6,
	}
}

func TestNewNotificationService(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()

	ns, err := NewNotificationService("", logger)
	require.NoError(t, err)
	assert.False(t, ns.Enabled())

	err = ns.NotifyForecast(context.Background(), "1", samplePrediction())
	assert.ErrorIs(t, err, ErrBotNotConfigured)
}

func TestNotificationService_NotifyForecast(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	sender := new(MockMessageSender)
	ns := NewNotificationServiceWithSender(sender, logger)

	sender.On("SendMessage", mock.Anything, mock.MatchedBy(func(p *bot.SendMessageParams) bool {
		return p.ChatID == int64(4242) && p.ParseMode == tgmodels.ParseModeHTML
	})).Return(&tgmodels.Message{ID: 1}, nil)

	require.NoError(t, ns.NotifyForecast(context.Background(), "4242", samplePrediction()))
	sender.AssertExpectations(t)
}

func TestNotificationService_NotifyForecastErrors(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	sender := new(MockMessageSender)
	ns := NewNotificationServiceWithSender(sender, logger)

	err := ns.NotifyForecast(context.Background(), "not-a-chat", samplePrediction())
	assert.ErrorContains(t, err, "invalid chat ID")

	sender.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("forbidden"))
	err = ns.NotifyForecast(context.Background(), "99", samplePrediction())
	assert.ErrorContains(t, err, "failed to send telegram message")
}

func TestNotificationService_FormatForecastMessage(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	message := NewNotificationServiceWithSender(nil, logger).FormatForecastMessage(samplePrediction())

	assert.Contains(t, message, "<b>ICICI &lt;Bank&gt;</b> · 12 months")
	assert.Contains(t, message, "📈 Next rate: <b>7.46%</b>")
	assert.Contains(t, message, "Trend: Increasing")
	assert.Contains(t, message, "Confidence: 88%")
	assert.Contains(t, message, "Based on 6 data points")
}

func TestNotificationService_FormatForecastMessageConcurrent(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	ns := NewNotificationServiceWithSender(nil, logger)
	trends := []string{"increasing", "decreasing", "stable"}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				prediction := samplePrediction()
				prediction.Trend = trends[(g+i)%len(trends)]
				message := ns.FormatForecastMessage(prediction)
				if !strings.Contains(message, "Trend: "+strings.ToUpper(prediction.Trend[:1])+prediction.Trend[1:]) {
					t.Errorf("unexpected trend line in %q", message)
					return
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestNotificationService_BreakerStopsSending(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	sender := new(MockMessageSender)
	ns := NewNotificationServiceWithSender(sender, logger)
	sender.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("bad gateway"))

	for i := 0; i < 5; i++ {
		assert.Error(t, ns.NotifyForecast(context.Background(), "7", samplePrediction()))
	}
	err := ns.NotifyForecast(context.Background(), "7", samplePrediction())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	sender.AssertNumberOfCalls(t, "SendMessage", 5)

	circuit, stats := ns.BreakerStatus()
	assert.Equal(t, "open", circuit)
	assert.Equal(t, int64(6), stats.TotalRequests)
	assert.Equal(t, int64(5), stats.FailedRequests)
	assert.Equal(t, int64(1), stats.RejectedRequests)
}
