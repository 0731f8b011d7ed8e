package telegram

import (
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/vanohrulidze-ui/anton-runner-bot/internal/domain"
)

func TestExtractUpdateMeta(t *testing.T) {
	tests := []struct {
		name   string
		update *models.Update
		want   updateMeta
	}{
		{
			name: "message",
			update: &models.Update{
				Message: &models.Message{
					From: &models.User{ID: 10},
					Chat: models.Chat{ID: 20},
					Text: " hello ",
				},
			},
			want: updateMeta{userID: 10, chatID: 20, updateType: "message"},
		},
		{
			name: "web app data",
			update: &models.Update{
				Message: &models.Message{
					From:       &models.User{ID: 12},
					Chat:       models.Chat{ID: 12},
					WebAppData: &models.WebAppData{Data: "{}"},
				},
			},
			want: updateMeta{userID: 12, chatID: 12, updateType: "web_app_data"},
		},
		{
			name: "edited message",
			update: &models.Update{
				EditedMessage: &models.Message{
					From: &models.User{ID: 11},
					Chat: models.Chat{ID: 21},
					Text: "updated",
				},
			},
			want: updateMeta{userID: 11, chatID: 21, updateType: "edited_message"},
		},
		{
			name:   "channel post without sender",
			update: &models.Update{Message: &models.Message{Chat: models.Chat{ID: 30}}},
			want:   updateMeta{chatID: 30, updateType: "message"},
		},
		{
			name:   "unknown",
			update: &models.Update{},
			want:   updateMeta{updateType: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractUpdateMeta(tt.update); got != tt.want {
				t.Fatalf("extractUpdateMeta() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text     string
		username string
		wantName string
		wantArgs []string
		wantOK   bool
	}{
		{text: "/start", username: "runner_bot", wantName: "start", wantOK: true},
		{text: "/START group_-100", username: "runner_bot", wantName: "start", wantArgs: []string{"group_-100"}, wantOK: true},
		{text: "  /help  ", username: "runner_bot", wantName: "help", wantOK: true},
		{text: "/start@Runner_Bot", username: "runner_bot", wantName: "start", wantOK: true},
		{text: "/start@runner_bot", username: "@runner_bot", wantName: "start", wantOK: true},
		{text: "/start@other_bot", username: "runner_bot"},
		{text: "/start@other_bot", username: "", wantName: "start", wantOK: true},
		{text: "/", username: "runner_bot"},
		{text: "/@runner_bot", username: "runner_bot"},
		{text: "start", username: "runner_bot"},
		{text: "", username: "runner_bot"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := parseCommand(tt.text, tt.username)
			if ok != tt.wantOK {
				t.Fatalf("parseCommand(%q) ok = %t, want %t", tt.text, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Name != tt.wantName {
				t.Fatalf("expected name %q, got %q", tt.wantName, got.Name)
			}
			if len(got.Args) != len(tt.wantArgs) {
				t.Fatalf("expected args %v, got %v", tt.wantArgs, got.Args)
			}
			for i := range got.Args {
				if got.Args[i] != tt.wantArgs[i] {
					t.Fatalf("expected args %v, got %v", tt.wantArgs, got.Args)
				}
			}
		})
	}
}

func TestChatContextAndUserInfo(t *testing.T) {
	chat := chatContext(models.Chat{ID: -5, Type: models.ChatTypeGroup, Title: " Runners "})
	if chat.ID != -5 || chat.Kind != domain.ChatGroup || chat.Title != "Runners" {
		t.Fatalf("unexpected chat context %+v", chat)
	}
	if got := chatContext(models.Chat{ID: -7, Type: models.ChatTypeChannel}); got.Kind != domain.ChatOther {
		t.Fatalf("expected channel to map to other, got %s", got.Kind)
	}

	if got := userInfo(nil); got.ID != 0 || got.DisplayName != "" {
		t.Fatalf("expected empty user info, got %+v", got)
	}
	if got := userInfo(&models.User{ID: 3, FirstName: "Ира"}); got.DisplayName != "Ира" || got.Username != "" {
		t.Fatalf("unexpected user info %+v", got)
	}
	if got := userInfo(&models.User{ID: 4, Username: "ghost"}); got.DisplayName != "ghost" {
		t.Fatalf("expected username fallback for display name, got %+v", got)
	}
}

func TestSendParamsRendersMarkup(t *testing.T) {
	launcher := sendParams(domain.OutboundMessage{
		ChatID: 1,
		Text:   "play",
		Markup: domain.Markup{Kind: domain.MarkupWebAppLauncher, Label: "Играть", URL: "https://example.com/"},
	})
	keyboard, ok := launcher.ReplyMarkup.(*models.ReplyKeyboardMarkup)
	if !ok {
		t.Fatalf("expected reply keyboard, got %T", launcher.ReplyMarkup)
	}
	if !keyboard.IsPersistent || !keyboard.ResizeKeyboard {
		t.Fatalf("expected persistent resized keyboard, got %+v", keyboard)
	}
	if button := keyboard.Keyboard[0][0]; button.Text != "Играть" || button.WebApp == nil || button.WebApp.URL != "https://example.com/" {
		t.Fatalf("unexpected launcher button %+v", button)
	}

	link := sendParams(domain.OutboundMessage{
		ChatID: -2,
		Markup: domain.Markup{Kind: domain.MarkupLinkButton, Label: "Играть", URL: "https://t.me/foo?start=group_-2"},
	})
	inline, ok := link.ReplyMarkup.(*models.InlineKeyboardMarkup)
	if !ok || inline.InlineKeyboard[0][0].URL != "https://t.me/foo?start=group_-2" {
		t.Fatalf("unexpected link markup %+v", link.ReplyMarkup)
	}

	remove := sendParams(domain.OutboundMessage{ChatID: 3, Markup: domain.Markup{Kind: domain.MarkupRemoveKeyboard}})
	if rm, ok := remove.ReplyMarkup.(*models.ReplyKeyboardRemove); !ok || !rm.RemoveKeyboard {
		t.Fatalf("expected keyboard removal, got %+v", remove.ReplyMarkup)
	}

	plain := sendParams(domain.OutboundMessage{ChatID: 4, Text: "<b>raw</b>"})
	if plain.ReplyMarkup != nil || plain.ParseMode != "" || plain.Text != "<b>raw</b>" {
		t.Fatalf("expected plain text without markup, got %+v", plain)
	}
	if plain.ChatID != int64(4) {
		t.Fatalf("expected int64 chat id, got %T %v", plain.ChatID, plain.ChatID)
	}
}
