package controller

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBotService struct {
	updates []*dto.TelegramUpdate
}

func (f *fakeBotService) HandleUpdate(ctx context.Context, update *dto.TelegramUpdate) {
	f.updates = append(f.updates, update)
}

func newWebhookApp(bot *fakeBotService) *fiber.App {
	app := fiber.New()
	NewWebhookController(bot).RegisterRoutes(app)
	return app
}

func TestWebhookDeliversUpdate(t *testing.T) {
	bot := &fakeBotService{}
	app := newWebhookApp(bot)

	body := `{"update_id":7,"message":{"message_id":1,"text":"salam","from":{"id":2,"first_name":"A"},"chat":{"id":3}}}`
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	responseBody, _ := io.ReadAll(res.Body)
	assert.Equal(t, "OK", string(responseBody))

	require.Len(t, bot.updates, 1)
	assert.EqualValues(t, 7, bot.updates[0].UpdateId)
	assert.Equal(t, "salam", bot.updates[0].Message.Text)
}

func TestWebhookMalformedBodyStillAcked(t *testing.T) {
	bot := &fakeBotService{}
	app := newWebhookApp(bot)

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader("not json at all"))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode, "Telegram must never see an error, or it re-delivers forever")
	assert.Empty(t, bot.updates)
}
