// Package telegram hosts the Telegram client and turns updates into router
// and dispatcher calls.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/vanohrulidze-ui/anton-runner-bot/internal/config"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/domain"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/logging"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/notify"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/router"
)

type botRunner interface {
	Start(ctx context.Context)
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type commandRouter interface {
	Route(cmd domain.Command, chat domain.ChatContext, user domain.UserInfo) []domain.OutboundMessage
}

type resultDispatcher interface {
	Dispatch(outcome domain.Outcome, chat domain.ChatContext, user domain.UserInfo) []domain.OutboundMessage
}

type playerRegistrar interface {
	EnsurePlayer(ctx context.Context, user domain.UserInfo, originGroupID int64) (bool, error)
}

type groupRegistrar interface {
	EnsureGroup(ctx context.Context, chat domain.ChatContext) (bool, error)
}

type playerFetcher interface {
	GetByID(ctx context.Context, userID int64) (domain.Player, error)
}

type groupFetcher interface {
	GetByChatID(ctx context.Context, chatID int64) (domain.Group, error)
}

var (
	defaultAllowedUpdates = bot.AllowedUpdates{
		"message",
		"edited_message",
	}

	createBot = func(token string, options ...bot.Option) (botRunner, error) {
		return bot.New(token, options...)
	}
)

// Client wraps the Telegram bot instance and the collaborators its handler
// drives. Directory collaborators are optional.
type Client struct {
	bot             botRunner
	logger          *logrus.Entry
	cfg             config.Config
	router          commandRouter
	dispatcher      resultDispatcher
	players         playerRegistrar
	groups          groupRegistrar
	playerDirectory playerFetcher
	groupDirectory  groupFetcher
}

// Option configures optional collaborators for the Telegram client.
type Option func(*Client)

// WithRouter overrides the command router built from the configuration.
func WithRouter(r commandRouter) Option {
	return func(c *Client) {
		c.router = r
	}
}

// WithDispatcher overrides the notification dispatcher built from the configuration.
func WithDispatcher(d resultDispatcher) Option {
	return func(c *Client) {
		c.dispatcher = d
	}
}

// WithPlayerRegistrar records players who start the bot or submit results.
func WithPlayerRegistrar(r playerRegistrar) Option {
	return func(c *Client) {
		c.players = r
	}
}

// WithGroupRegistrar records groups where /start hands out a deep link.
func WithGroupRegistrar(r groupRegistrar) Option {
	return func(c *Client) {
		c.groups = r
	}
}

// WithPlayerFetcher enables origin group lookups for result summaries.
func WithPlayerFetcher(f playerFetcher) Option {
	return func(c *Client) {
		c.playerDirectory = f
	}
}

// WithGroupFetcher resolves origin group titles for result summaries.
func WithGroupFetcher(f groupFetcher) Option {
	return func(c *Client) {
		c.groupDirectory = f
	}
}

// NewClient initializes the Telegram bot with long polling and the update handler.
func NewClient(cfg config.Config, logger *logrus.Entry, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, errors.New("telegram token is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	client := &Client{
		logger: logger,
		cfg:    cfg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.router == nil {
		client.router = router.New(cfg, logger)
	}
	if client.dispatcher == nil {
		client.dispatcher = notify.New(cfg, logger)
	}

	workers := cfg.BotWorkers
	if workers <= 0 {
		workers = config.DefaultBotWorkers
	}

	tgBot, err := createBot(cfg.TelegramToken,
		bot.WithAllowedUpdates(defaultAllowedUpdates),
		bot.WithDefaultHandler(client.defaultHandler),
		bot.WithErrorsHandler(errorHandler(logger)),
		bot.WithWorkers(workers),
	)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot client: %w", err)
	}

	client.bot = tgBot
	return client, nil
}

// Start begins receiving updates via long polling until the context is canceled.
func (c *Client) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger.WithFields(logging.Fields{
		"event":           "telegram_listen",
		"allowed_updates": defaultAllowedUpdates,
		"workers":         c.cfg.BotWorkers,
	}).Info("starting telegram long polling")

	c.bot.Start(ctx)

	c.logger.WithField("event", "telegram_stopped").Info("telegram polling stopped")
}

func errorHandler(logger *logrus.Entry) bot.ErrorsHandler {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(err error) {
		if err == nil {
			return
		}

		logger.WithField("event", "telegram_error").WithError(err).Error("telegram polling error")
	}
}
