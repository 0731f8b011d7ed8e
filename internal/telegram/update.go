package telegram

import (
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/vanohrulidze-ui/anton-runner-bot/internal/domain"
)

type updateMeta struct {
	userID     int64
	chatID     int64
	updateType string
}

func extractUpdateMeta(update *models.Update) updateMeta {
	switch {
	case update.Message != nil && update.Message.WebAppData != nil:
		return updateMeta{
			userID:     userID(update.Message.From),
			chatID:     update.Message.Chat.ID,
			updateType: "web_app_data",
		}
	case update.Message != nil:
		return updateMeta{
			userID:     userID(update.Message.From),
			chatID:     update.Message.Chat.ID,
			updateType: "message",
		}
	case update.EditedMessage != nil:
		return updateMeta{
			userID:     userID(update.EditedMessage.From),
			chatID:     update.EditedMessage.Chat.ID,
			updateType: "edited_message",
		}
	default:
		return updateMeta{updateType: "unknown"}
	}
}

// parseCommand recognizes "/name[@bot] args...". Commands addressed to
// another bot are not ours. An empty botUsername accepts any suffix.
func parseCommand(text, botUsername string) (domain.Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return domain.Command{}, false
	}

	name := strings.TrimPrefix(fields[0], "/")
	if head, target, found := strings.Cut(name, "@"); found {
		if botUsername != "" && !strings.EqualFold(target, strings.TrimPrefix(botUsername, "@")) {
			return domain.Command{}, false
		}
		name = head
	}
	if name == "" {
		return domain.Command{}, false
	}

	return domain.Command{
		Name: strings.ToLower(name),
		Args: fields[1:],
	}, true
}

func chatContext(chat models.Chat) domain.ChatContext {
	return domain.ChatContext{
		ID:    chat.ID,
		Kind:  domain.ParseChatKind(string(chat.Type)),
		Title: strings.TrimSpace(chat.Title),
	}
}

func userInfo(user *models.User) domain.UserInfo {
	if user == nil {
		return domain.UserInfo{}
	}

	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if name == "" {
		name = user.Username
	}

	return domain.UserInfo{
		ID:          user.ID,
		DisplayName: name,
		Username:    user.Username,
	}
}

func userID(user *models.User) int64 {
	if user == nil {
		return 0
	}

	return user.ID
}

// sendParams renders an outbound message for the Bot API. Text is sent
// without a parse mode so user supplied names and payloads go out verbatim.
func sendParams(msg domain.OutboundMessage) *bot.SendMessageParams {
	params := &bot.SendMessageParams{
		ChatID: msg.ChatID,
		Text:   msg.Text,
	}

	switch msg.Markup.Kind {
	case domain.MarkupWebAppLauncher:
		params.ReplyMarkup = &models.ReplyKeyboardMarkup{
			Keyboard: [][]models.KeyboardButton{{
				{Text: msg.Markup.Label, WebApp: &models.WebAppInfo{URL: msg.Markup.URL}},
			}},
			ResizeKeyboard: true,
			IsPersistent:   true,
		}
	case domain.MarkupLinkButton:
		params.ReplyMarkup = &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{{
				{Text: msg.Markup.Label, URL: msg.Markup.URL},
			}},
		}
	case domain.MarkupRemoveKeyboard:
		params.ReplyMarkup = &models.ReplyKeyboardRemove{RemoveKeyboard: true}
	}

	return params
}
