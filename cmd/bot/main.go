package main

import (
	"log"

	"github.com/TheAfghanCode/telegram-ai-bot/internal/bootstrap"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/config"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/constant"
	"github.com/TheAfghanCode/telegram-ai-bot/internal/server"
	"github.com/TheAfghanCode/telegram-ai-bot/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (postgres backend only)
	var gormDB *gorm.DB
	if cfg.History.Backend == constant.HistoryBackendPostgres {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.LogSink.Close()
	defer container.SysLogger.Sync()

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}
