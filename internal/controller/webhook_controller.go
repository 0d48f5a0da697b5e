package controller

import (
	"github.com/TheAfghanCode/telegram-ai-bot/internal/dto"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	Handle(ctx *fiber.Ctx) error
}

type webhookController struct {
	bot service.IBotService
}

func NewWebhookController(bot service.IBotService) IWebhookController {
	return &webhookController{bot: bot}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	r.Post("/webhook", c.Handle)
}

// Handle always acknowledges with 200 so Telegram never re-delivers because
// of an internal failure. The pipeline runs to completion before responding.
func (c *webhookController) Handle(ctx *fiber.Ctx) error {
	var update dto.TelegramUpdate
	if err := ctx.BodyParser(&update); err == nil {
		c.bot.HandleUpdate(ctx.UserContext(), &update)
	}
	return ctx.Status(fiber.StatusOK).SendString("OK")
}
