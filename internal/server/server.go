package server

import (
	"log"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/bootstrap"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/config"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 2 * 1024 * 1024, // 2MB, Telegram updates are small
	})

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Bot server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	c.WebhookController.RegisterRoutes(app)
	c.AdminController.RegisterRoutes(app)
}
