// Package config defines the configuration contract and handles loading and validating environment configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// Canonical environment variable keys.
	KeyBotToken            = "BOT_TOKEN"
	KeyWebAppURL           = "WEB_APP_URL"
	KeyBotUsername         = "BOT_USERNAME"
	KeyAdminChatID         = "ADMIN_CHAT_ID"
	KeyAdminChatIDStrict   = "ADMIN_CHAT_ID_STRICT"
	KeyStartShowChatID     = "START_SHOW_CHAT_ID"
	KeyConfirmWithoutAdmin = "CONFIRM_WITHOUT_ADMIN"
	KeyBotWorkers          = "BOT_WORKERS"
	KeyAppEnv              = "APP_ENV"
	KeyLogLevel            = "LOG_LEVEL"
	KeyHTTPPort            = "HTTP_PORT"
	KeyMongoURI            = "MONGO_URI"
	KeyMongoDB             = "MONGO_DB"

	// Allowed environment values.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Defaults for optional settings.
	DefaultAppEnv     = EnvProduction
	DefaultLogLevel   = "info"
	DefaultHTTPPort   = 8080
	DefaultBotWorkers = 1
	DefaultMongoDB    = "anton_runner_bot"
)

// ErrInvalid is wrapped by every error returned from Load. The bot must not
// start polling when it sees one.
var ErrInvalid = errors.New("invalid configuration")

// VarSpec describes a single configuration key.
type VarSpec struct {
	Key         string // environment variable name
	Example     string // human-friendly sample value
	Required    bool   // whether the bot must refuse to start without this value
	Default     string // default when unset (empty when required)
	Description string // what the variable controls
	Notes       string // extra guidance or policies
}

// Contract enumerates the authoritative configuration keys for the bot.
// .env loading is only permitted when APP_ENV=development; production must rely
// on environment variables supplied by the runtime.
var Contract = []VarSpec{
	{
		Key:         KeyBotToken,
		Example:     "123:ABC",
		Required:    true,
		Description: "Telegram Bot Token issued by BotFather.",
	},
	{
		Key:         KeyWebAppURL,
		Example:     "https://example.github.io/runner/",
		Required:    true,
		Description: "HTTPS address of the mini-app game.",
	},
	{
		Key:         KeyBotUsername,
		Example:     "anton_runner_bot",
		Required:    true,
		Description: "Bot handle without the leading @; used for group deep links.",
	},
	{
		Key:         KeyAdminChatID,
		Example:     "123456789",
		Description: "Chat that receives game results and payload diagnostics.",
		Notes:       "When unset, results are not forwarded anywhere.",
	},
	{
		Key:         KeyAdminChatIDStrict,
		Example:     "true",
		Default:     "false",
		Description: "Abort startup when " + KeyAdminChatID + " is not an integer.",
		Notes:       "When false, an invalid value only disables admin notifications.",
	},
	{
		Key:         KeyStartShowChatID,
		Example:     "true",
		Default:     "false",
		Description: "Reply to private /start with an extra message exposing the chat id.",
	},
	{
		Key:         KeyConfirmWithoutAdmin,
		Example:     "false",
		Default:     "true",
		Description: "Confirm received results to the player even when no admin chat is configured.",
	},
	{
		Key:         KeyBotWorkers,
		Example:     "4",
		Default:     strconv.Itoa(DefaultBotWorkers),
		Description: "Number of updates handled concurrently.",
	},
	{
		Key:         KeyAppEnv,
		Example:     EnvDevelopment + " / " + EnvProduction,
		Default:     DefaultAppEnv,
		Description: "Runtime environment; controls log format and dotenv usage.",
		Notes:       "Load .env files only when APP_ENV=" + EnvDevelopment + ".",
	},
	{
		Key:         KeyLogLevel,
		Example:     DefaultLogLevel,
		Default:     DefaultLogLevel,
		Description: "Overrides default log level.",
	},
	{
		Key:         KeyHTTPPort,
		Example:     strconv.Itoa(DefaultHTTPPort),
		Default:     strconv.Itoa(DefaultHTTPPort),
		Description: "HTTP health/stats port.",
		Notes:       "0 disables the HTTP server.",
	},
	{
		Key:         KeyMongoURI,
		Example:     "mongodb://localhost:27017",
		Description: "MongoDB connection string for the player directory.",
		Notes:       "When unset, players and groups are not tracked.",
	},
	{
		Key:         KeyMongoDB,
		Example:     DefaultMongoDB,
		Default:     DefaultMongoDB,
		Description: "MongoDB database name.",
	},
}

// Config mirrors resolved configuration values after loading. It is built
// once at startup and passed by value; nothing mutates it afterwards.
type Config struct {
	TelegramToken string
	WebAppURL     string
	BotUsername   string
	// AdminChatID is zero when no admin chat is configured.
	AdminChatID int64
	// InvalidAdminChatID keeps a rejected ADMIN_CHAT_ID value so the caller can
	// report it once logging is available.
	InvalidAdminChatID  string
	StrictAdminChatID   bool
	StartShowChatID     bool
	ConfirmWithoutAdmin bool
	BotWorkers          int
	AppEnv              string
	LogLevel            string
	HTTPPort            int
	MongoURI            string
	MongoDB             string
}

// Load resolves configuration from the environment (with optional dotenv in development).
func Load() (Config, error) {
	appEnv, err := resolveAppEnv()
	if err != nil {
		return Config{}, invalid(err)
	}

	if err := loadDotEnv(appEnv); err != nil {
		return Config{}, invalid(err)
	}

	cfg := Config{
		AppEnv:              firstNonEmpty(normalizeEnv(os.Getenv(KeyAppEnv)), appEnv),
		TelegramToken:       strings.TrimSpace(os.Getenv(KeyBotToken)),
		WebAppURL:           strings.TrimSpace(os.Getenv(KeyWebAppURL)),
		BotUsername:         strings.TrimPrefix(strings.TrimSpace(os.Getenv(KeyBotUsername)), "@"),
		LogLevel:            firstNonEmpty(strings.TrimSpace(os.Getenv(KeyLogLevel)), DefaultLogLevel),
		HTTPPort:            DefaultHTTPPort,
		BotWorkers:          DefaultBotWorkers,
		ConfirmWithoutAdmin: true,
		MongoURI:            strings.TrimSpace(os.Getenv(KeyMongoURI)),
		MongoDB:             firstNonEmpty(strings.TrimSpace(os.Getenv(KeyMongoDB)), DefaultMongoDB),
	}

	if err := validateAppEnv(cfg.AppEnv); err != nil {
		return Config{}, invalid(err)
	}

	missing := make([]string, 0)

	if cfg.TelegramToken == "" {
		missing = append(missing, KeyBotToken)
	}
	if cfg.WebAppURL == "" {
		missing = append(missing, KeyWebAppURL)
	}
	if cfg.BotUsername == "" {
		missing = append(missing, KeyBotUsername)
	}

	if len(missing) > 0 {
		return Config{}, invalid(fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", ")))
	}

	if err := validateWebAppURL(cfg.WebAppURL); err != nil {
		return Config{}, invalid(err)
	}

	for _, flag := range []struct {
		key string
		dst *bool
	}{
		{KeyAdminChatIDStrict, &cfg.StrictAdminChatID},
		{KeyStartShowChatID, &cfg.StartShowChatID},
		{KeyConfirmWithoutAdmin, &cfg.ConfirmWithoutAdmin},
	} {
		if err := parseBool(flag.key, flag.dst); err != nil {
			return Config{}, invalid(err)
		}
	}

	adminRaw := strings.TrimSpace(os.Getenv(KeyAdminChatID))
	if adminRaw != "" {
		adminID, parseErr := strconv.ParseInt(adminRaw, 10, 64)
		if parseErr == nil && adminID == 0 {
			parseErr = errors.New("chat id must be non-zero")
		}
		switch {
		case parseErr == nil:
			cfg.AdminChatID = adminID
		case cfg.StrictAdminChatID:
			return Config{}, invalid(fmt.Errorf("invalid %s: %w", KeyAdminChatID, parseErr))
		default:
			cfg.InvalidAdminChatID = adminRaw
		}
	}

	workersRaw := strings.TrimSpace(os.Getenv(KeyBotWorkers))
	if workersRaw != "" {
		workers, parseErr := strconv.Atoi(workersRaw)
		if parseErr != nil {
			return Config{}, invalid(fmt.Errorf("invalid %s: %w", KeyBotWorkers, parseErr))
		}
		if workers <= 0 {
			return Config{}, invalid(fmt.Errorf("%s must be greater than 0", KeyBotWorkers))
		}
		cfg.BotWorkers = workers
	}

	httpPortRaw := strings.TrimSpace(os.Getenv(KeyHTTPPort))
	if httpPortRaw != "" {
		port, parseErr := strconv.Atoi(httpPortRaw)
		if parseErr != nil {
			return Config{}, invalid(fmt.Errorf("invalid %s: %w", KeyHTTPPort, parseErr))
		}
		if port < 0 || port > 65535 {
			return Config{}, invalid(fmt.Errorf("%s must be between 0 and 65535", KeyHTTPPort))
		}
		cfg.HTTPPort = port
	}

	if cfg.MongoURI != "" && !strings.HasPrefix(cfg.MongoURI, "mongodb://") && !strings.HasPrefix(cfg.MongoURI, "mongodb+srv://") {
		return Config{}, invalid(fmt.Errorf("invalid %s: must start with mongodb:// or mongodb+srv://", KeyMongoURI))
	}

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// HasAdmin reports whether results and diagnostics have a recipient.
func (c Config) HasAdmin() bool {
	return c.AdminChatID != 0
}

// HasDirectory reports whether the MongoDB player directory is enabled.
func (c Config) HasDirectory() bool {
	return c.MongoURI != ""
}

// HealthEnabled reports whether the HTTP health server should run.
func (c Config) HealthEnabled() bool {
	return c.HTTPPort > 0
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalid, err)
}

func validateWebAppURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", KeyWebAppURL, err)
	}
	if parsed.Scheme != "https" || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must be an absolute https:// URL", KeyWebAppURL)
	}
	return nil
}

func parseBool(key string, dst *bool) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = val
	return nil
}

func resolveAppEnv() (string, error) {
	if explicit := normalizeEnv(os.Getenv(KeyAppEnv)); explicit != "" {
		return explicit, nil
	}

	dotEnvValues, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppEnv, nil
		}
		return "", fmt.Errorf("read .env: %w", err)
	}

	if envFromFile := normalizeEnv(dotEnvValues[KeyAppEnv]); envFromFile != "" {
		return envFromFile, nil
	}

	return DefaultAppEnv, nil
}

func loadDotEnv(appEnv string) error {
	if appEnv != EnvDevelopment {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func validateAppEnv(appEnv string) error {
	if appEnv == EnvDevelopment || appEnv == EnvProduction {
		return nil
	}

	return fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
}

func normalizeEnv(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
