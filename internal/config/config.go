package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Telegram TelegramConfig
	Gemini   GeminiConfig
	History  HistoryConfig
	Admin    AdminConfig
	Channels ChannelConfig
}

type AppConfig struct {
	Port        string
	Environment string
	LogFilePath string
}

type DatabaseConfig struct {
	Connection string
}

type TelegramConfig struct {
	BotToken    string
	BotUsername string
	APIBaseURL  string
}

type GeminiConfig struct {
	APIKey       string
	Model        string
	APIBaseURL   string
	TemplatePath string
}

type HistoryConfig struct {
	Backend   string // "postgres" or "file"
	Dir       string // history directory for the file backend
	MaxTurns  int
	Unlimited bool
	Scope     string // "chat" keys history by chat id, "user" by sender id
}

type AdminConfig struct {
	UserID          int64
	SecretKey       string
	MonitoredUserID int64
}

// ChannelConfig holds the Telegram channel ids the bot posts logs and
// archives to. A zero value disables the corresponding channel.
type ChannelConfig struct {
	Archive int64
	System  int64
	All     int64
	Admin   int64
	User    int64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "3000"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "logs/bot.log"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DATABASE_URL", ""),
		},
		Telegram: TelegramConfig{
			BotToken:    getEnv("BOT_TOKEN", ""),
			BotUsername: getEnv("BOT_USERNAME", ""),
			APIBaseURL:  getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		},
		Gemini: GeminiConfig{
			APIKey:       getEnv("GEMINI_API_KEY", ""),
			Model:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			APIBaseURL:   getEnv("GEMINI_API_BASE_URL", "https://generativelanguage.googleapis.com"),
			TemplatePath: getEnv("PROMPT_TEMPLATE_PATH", "prompt_template.json"),
		},
		History: HistoryConfig{
			Backend:   getEnv("HISTORY_BACKEND", "postgres"),
			Dir:       getEnv("HISTORY_DIR", "history"),
			MaxTurns:  getEnvAsInt("MAX_HISTORY_TURNS", 40),
			Unlimited: getEnvAsBool("UNLIMITED_HISTORY", false),
			Scope:     getEnv("HISTORY_SCOPE", "chat"),
		},
		Admin: AdminConfig{
			UserID:          getEnvAsInt64("ADMIN_USER_ID", 0),
			SecretKey:       getEnv("ADMIN_SECRET_KEY", ""),
			MonitoredUserID: getEnvAsInt64("MONITORED_USER_ID", 0),
		},
		Channels: ChannelConfig{
			Archive: getEnvAsInt64("LOG_CHANNEL_ARCHIVE", 0),
			System:  getEnvAsInt64("LOG_CHANNEL_SYSTEM", 0),
			All:     getEnvAsInt64("LOG_CHANNEL_ALL", 0),
			Admin:   getEnvAsInt64("LOG_CHANNEL_ADMIN", 0),
			User:    getEnvAsInt64("LOG_CHANNEL_USER", 0),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
