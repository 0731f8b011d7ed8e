// Package router maps bot commands and the chat they arrive in to replies.
package router

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vanohrulidze-ui/anton-runner-bot/internal/config"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/domain"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/logging"
)

// Supported commands.
const (
	CommandStart = "start"
	CommandHelp  = "help"
)

// DeepLinkHost is the Telegram host that resolves bot start parameters.
const DeepLinkHost = "t.me"

// User-facing texts.
const (
	PlayButtonLabel = "Играть в игру"

	privateStartText = "Нажми «" + PlayButtonLabel + "», чтобы запустить мини-игру."
	groupStartText   = "Чтобы сыграть, нажми «" + PlayButtonLabel + "».\n" +
		"Игра откроется в личке с ботом."
	otherStartText = "Запусти меня в личке или в группе, чтобы сыграть."
	chatIDText     = "Твой chat.id: %d"

	helpText = "Привет! Я бот с мини-игрой.\n\n" +
		"Как играть:\n" +
		"1. В группе: отправь /start и нажми «" + PlayButtonLabel + "» — откроется личка с ботом.\n" +
		"2. В личке: жми «" + PlayButtonLabel + "», запускается окно игры.\n"
	helpAdminText   = "3. После игры результат автоматически уйдёт администратору."
	helpNoAdminText = "3. Результаты игры сейчас никому не пересылаются."
)

// Router turns a command into the messages to send back.
type Router struct {
	cfg    config.Config
	logger *logrus.Entry
}

// New constructs a Router for the provided configuration.
func New(cfg config.Config, logger *logrus.Entry) *Router {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Router{
		cfg:    cfg,
		logger: logger,
	}
}

// Route returns the replies for cmd. Unknown commands produce no replies.
func (r *Router) Route(cmd domain.Command, chat domain.ChatContext, user domain.UserInfo) []domain.OutboundMessage {
	switch cmd.Name {
	case CommandStart:
		return r.start(cmd, chat, user)
	case CommandHelp:
		return []domain.OutboundMessage{r.help(chat)}
	default:
		r.logger.WithFields(logging.Fields{
			"event":   "command_ignored",
			"command": cmd.Name,
			"chat_id": chat.ID,
		}).Debug("ignoring unsupported command")
		return nil
	}
}

func (r *Router) start(cmd domain.Command, chat domain.ChatContext, user domain.UserInfo) []domain.OutboundMessage {
	switch chat.Kind {
	case domain.ChatPrivate:
		return r.startPrivate(cmd, chat, user)
	case domain.ChatGroup, domain.ChatSupergroup:
		return []domain.OutboundMessage{r.startGroup(chat)}
	default:
		// ChatOther
		return []domain.OutboundMessage{reply(chat, otherStartText, domain.Markup{})}
	}
}

func (r *Router) startPrivate(cmd domain.Command, chat domain.ChatContext, user domain.UserInfo) []domain.OutboundMessage {
	if len(cmd.Args) > 0 {
		r.logger.WithFields(logging.Fields{
			"event":       "start_param",
			"user_id":     user.ID,
			"start_param": cmd.Args[0],
		}).Info("private /start with parameter")
	}

	messages := []domain.OutboundMessage{
		reply(chat, privateStartText, domain.Markup{
			Kind:  domain.MarkupWebAppLauncher,
			Label: PlayButtonLabel,
			URL:   r.cfg.WebAppURL,
		}),
	}

	if r.cfg.StartShowChatID {
		messages = append(messages, reply(chat, fmt.Sprintf(chatIDText, chat.ID), domain.Markup{}))
	}

	return messages
}

func (r *Router) startGroup(chat domain.ChatContext) domain.OutboundMessage {
	return reply(chat, groupStartText, domain.Markup{
		Kind:  domain.MarkupLinkButton,
		Label: PlayButtonLabel,
		URL:   DeepLink(r.cfg.BotUsername, chat.ID),
	})
}

func (r *Router) help(chat domain.ChatContext) domain.OutboundMessage {
	var sb strings.Builder
	sb.WriteString(helpText)
	if r.cfg.HasAdmin() {
		sb.WriteString(helpAdminText)
	} else {
		sb.WriteString(helpNoAdminText)
	}

	return reply(chat, sb.String(), domain.Markup{})
}

// DeepLink builds the link that opens a private chat with the bot carrying the
// originating group in the start parameter.
func DeepLink(botHandle string, chatID int64) string {
	return fmt.Sprintf("https://%s/%s?start=%s%d", DeepLinkHost, botHandle, domain.GroupStartPrefix, chatID)
}

func reply(chat domain.ChatContext, text string, markup domain.Markup) domain.OutboundMessage {
	return domain.OutboundMessage{
		ChatID:    chat.ID,
		Recipient: domain.RecipientChat,
		Text:      text,
		Markup:    markup,
	}
}
