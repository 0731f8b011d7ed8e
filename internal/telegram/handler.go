package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vanohrulidze-ui/anton-runner-bot/internal/domain"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/logging"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/result"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/router"
)

const directoryTimeout = 3 * time.Second

func (c *Client) defaultHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	c.handleUpdate(ctx, update)
}

func (c *Client) handleUpdate(ctx context.Context, update *models.Update) {
	if update == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	meta := extractUpdateMeta(update)
	logger := logging.ForUpdate(c.logger, logging.Context{
		UserID:     meta.userID,
		ChatID:     meta.chatID,
		TraceID:    uuid.NewString(),
		UpdateType: meta.updateType,
	})

	defer func() {
		if rec := recover(); rec != nil {
			logger.WithFields(logging.Fields{
				"event": "handler_panic",
				"panic": fmt.Sprint(rec),
			}).Error("recovered from panic while handling update")
		}
	}()

	logger.WithField("event", "telegram_update").Debug("telegram update received")

	// Edited messages are never re-processed.
	if update.Message == nil {
		return
	}
	msg := update.Message

	chat := chatContext(msg.Chat)
	user := userInfo(msg.From)

	switch {
	case msg.WebAppData != nil:
		c.handleWebAppData(ctx, logger, msg.WebAppData.Data, chat, user)
	default:
		cmd, ok := parseCommand(msg.Text, c.cfg.BotUsername)
		if !ok {
			return
		}
		c.handleCommand(ctx, logger, cmd, chat, user)
	}
}

func (c *Client) handleCommand(ctx context.Context, logger *logrus.Entry, cmd domain.Command, chat domain.ChatContext, user domain.UserInfo) {
	logger.WithFields(logging.Fields{
		"event":     "command_received",
		"command":   cmd.Name,
		"chat_kind": chat.Kind.String(),
	}).Info("command received")

	if cmd.Name == router.CommandStart {
		c.recordStart(ctx, logger, cmd, chat, user)
	}

	c.send(ctx, logger, c.router.Route(cmd, chat, user))
}

// recordStart updates the directories. Failures are logged and never stop the reply.
func (c *Client) recordStart(ctx context.Context, logger *logrus.Entry, cmd domain.Command, chat domain.ChatContext, user domain.UserInfo) {
	switch chat.Kind {
	case domain.ChatPrivate:
		var origin int64
		if len(cmd.Args) > 0 {
			origin, _ = domain.ParseGroupStartParam(cmd.Args[0])
		}
		c.ensurePlayer(ctx, logger, user, origin)
	case domain.ChatGroup, domain.ChatSupergroup:
		if c.groups == nil {
			return
		}

		dirCtx, cancel := context.WithTimeout(ctx, directoryTimeout)
		defer cancel()

		if _, err := c.groups.EnsureGroup(dirCtx, chat); err != nil {
			logger.WithField("event", "group_directory_error").WithError(err).Warn("failed to record group")
		}
	}
}

func (c *Client) handleWebAppData(ctx context.Context, logger *logrus.Entry, raw string, chat domain.ChatContext, user domain.UserInfo) {
	user.OriginGroup = c.lookupOriginGroup(ctx, logger, user.ID)
	c.ensurePlayer(ctx, logger, user, 0)

	outcome := result.Validate(raw)

	logger.WithFields(logging.Fields{
		"event":   "web_app_data",
		"outcome": outcome.Kind.String(),
		"bytes":   len(raw),
	}).Info("web app data received")

	c.send(ctx, logger, c.dispatcher.Dispatch(outcome, chat, user))
}

func (c *Client) ensurePlayer(ctx context.Context, logger *logrus.Entry, user domain.UserInfo, originGroupID int64) {
	if c.players == nil || user.ID == 0 {
		return
	}

	dirCtx, cancel := context.WithTimeout(ctx, directoryTimeout)
	defer cancel()

	if _, err := c.players.EnsurePlayer(dirCtx, user, originGroupID); err != nil {
		logger.WithField("event", "player_directory_error").WithError(err).Warn("failed to record player")
	}
}

// lookupOriginGroup returns the group whose deep link brought the player in,
// or nil when unknown. A group missing from the directory still yields its id.
func (c *Client) lookupOriginGroup(ctx context.Context, logger *logrus.Entry, userID int64) *domain.Group {
	if c.playerDirectory == nil || userID == 0 {
		return nil
	}

	dirCtx, cancel := context.WithTimeout(ctx, directoryTimeout)
	defer cancel()

	player, err := c.playerDirectory.GetByID(dirCtx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.WithField("event", "player_directory_error").WithError(err).Warn("failed to load player")
		}
		return nil
	}
	if player.OriginGroupID == 0 {
		return nil
	}

	origin := &domain.Group{ChatID: player.OriginGroupID}
	if c.groupDirectory == nil {
		return origin
	}

	group, err := c.groupDirectory.GetByChatID(dirCtx, player.OriginGroupID)
	switch {
	case err == nil:
		return &group
	case !errors.Is(err, domain.ErrNotFound):
		logger.WithField("event", "group_directory_error").WithError(err).Warn("failed to load origin group")
	}
	return origin
}

// send delivers messages in order. A failed send is logged and the rest
// still go out.
func (c *Client) send(ctx context.Context, logger *logrus.Entry, messages []domain.OutboundMessage) {
	for _, msg := range messages {
		if _, err := c.bot.SendMessage(ctx, sendParams(msg)); err != nil {
			logger.WithFields(logging.Fields{
				"event":     "telegram_send_error",
				"target":    msg.ChatID,
				"recipient": string(msg.Recipient),
			}).WithError(err).Error("failed to send telegram message")
			continue
		}

		logger.WithFields(logging.Fields{
			"event":     "telegram_sent",
			"target":    msg.ChatID,
			"recipient": string(msg.Recipient),
		}).Debug("telegram message sent")
	}
}
