package bootstrap

import (
	"log"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/config"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/constant"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/controller"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/pkg/logger"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/repository/contract"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/repository/filestore"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/repository/implementation"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/service"
	"github.com/TheAfghanCode/telegram-ai-bot/pkg/gemini"
	"github.com/TheAfghanCode/telegram-ai-bot/pkg/telegram"

	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	WebhookController controller.IWebhookController
	AdminController   controller.IAdminController

	// Exposed for graceful shutdown in main.go
	LogSink   service.ILogSink
	SysLogger logger.ILogger
}

// NewContainer wires the whole bot. db may be nil when the file backend is
// configured; the postgres backend requires a live connection.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Storage
	var historyRepo contract.HistoryRepository
	var ruleRepo contract.GlobalRuleRepository
	if cfg.History.Backend == constant.HistoryBackendFile {
		var err error
		historyRepo, err = filestore.NewHistoryRepository(cfg.History.Dir)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize file history store: %v", err)
		}
		ruleRepo, err = filestore.NewGlobalRuleRepository(cfg.History.Dir)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize file rule store: %v", err)
		}
		log.Printf("[INFO] Using History Backend: FILE (%s)", cfg.History.Dir)
	} else {
		if db == nil {
			log.Fatalf("[FATAL] Postgres history backend configured without a database connection")
		}
		historyRepo = implementation.NewHistoryRepository(db)
		ruleRepo = implementation.NewGlobalRuleRepository(db)
		log.Printf("[INFO] Using History Backend: POSTGRES")
	}

	// 3. Outbound Clients
	tgClient := telegram.NewClient(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken)

	aiClient, err := gemini.NewClient(
		cfg.Gemini.APIKey,
		cfg.Gemini.APIBaseURL,
		cfg.Gemini.Model,
		cfg.Gemini.TemplatePath,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Gemini client: %v", err)
	}
	log.Printf("[INFO] Using Gemini Model: %s", cfg.Gemini.Model)

	// 4. Services
	sinkLogger := logger.NewIsolatedLogger("logs/channel_sink.log")
	logSink := service.NewLogSink(tgClient, cfg, sinkLogger)

	historyService := service.NewHistoryService(
		historyRepo,
		ruleRepo,
		tgClient,
		cfg.Channels.Archive,
		cfg.History.MaxTurns,
		cfg.History.Unlimited,
		sysLogger,
	)
	botService := service.NewBotService(
		historyService,
		aiClient,
		tgClient,
		logSink,
		sysLogger,
		cfg,
	)
	adminService := service.NewAdminService(historyService, historyRepo, logSink, sysLogger)

	// 5. Controllers
	return &Container{
		WebhookController: controller.NewWebhookController(botService),
		AdminController:   controller.NewAdminController(adminService, cfg.Admin.SecretKey),

		LogSink:   logSink,
		SysLogger: sysLogger,
	}
}
