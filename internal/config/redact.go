package config

import (
	"fmt"
	"net/url"
	"strings"
)

const redactedSuffix = "...redacted"

// FormatRedacted renders the configuration for humans with secrets masked.
func FormatRedacted(cfg Config) string {
	admin := "not configured"
	if cfg.HasAdmin() {
		admin = fmt.Sprintf("%d", cfg.AdminChatID)
	} else if cfg.InvalidAdminChatID != "" {
		admin = fmt.Sprintf("ignored invalid value %q", cfg.InvalidAdminChatID)
	}

	mongoURI := "disabled"
	if cfg.MongoURI != "" {
		mongoURI = redactMongoURI(cfg.MongoURI)
	}

	lines := []string{
		"telegram_token: " + redactToken(cfg.TelegramToken),
		"web_app_url: " + cfg.WebAppURL,
		"bot_username: " + cfg.BotUsername,
		"admin_chat_id: " + admin,
		fmt.Sprintf("admin_chat_id_strict: %t", cfg.StrictAdminChatID),
		fmt.Sprintf("start_show_chat_id: %t", cfg.StartShowChatID),
		fmt.Sprintf("confirm_without_admin: %t", cfg.ConfirmWithoutAdmin),
		fmt.Sprintf("bot_workers: %d", cfg.BotWorkers),
		"app_env: " + cfg.AppEnv,
		"log_level: " + cfg.LogLevel,
		fmt.Sprintf("http_port: %d", cfg.HTTPPort),
		"mongo_uri: " + mongoURI,
		"mongo_db: " + cfg.MongoDB,
	}

	return strings.Join(lines, "\n")
}

func redactToken(token string) string {
	if len(token) <= 4 {
		return redactedSuffix
	}
	return token[:4] + redactedSuffix
}

func redactMongoURI(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return redactedSuffix
	}
	parsed.User = nil
	return parsed.String()
}
