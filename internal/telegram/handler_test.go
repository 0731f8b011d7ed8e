package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/vanohrulidze-ui/anton-runner-bot/internal/config"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/domain"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/notify"
)

const (
	testAdminChatID = int64(-100999)
	testWebAppURL   = "https://example.com/runner/"
)

type fakePlayerRegistrar struct {
	users   []domain.UserInfo
	origins []int64
	err     error
}

func (f *fakePlayerRegistrar) EnsurePlayer(_ context.Context, user domain.UserInfo, originGroupID int64) (bool, error) {
	f.users = append(f.users, user)
	f.origins = append(f.origins, originGroupID)
	return true, f.err
}

type fakeGroupRegistrar struct {
	chats []domain.ChatContext
	err   error
}

func (f *fakeGroupRegistrar) EnsureGroup(_ context.Context, chat domain.ChatContext) (bool, error) {
	f.chats = append(f.chats, chat)
	return true, f.err
}

type fakePlayerFetcher struct {
	player domain.Player
	err    error
}

func (f *fakePlayerFetcher) GetByID(context.Context, int64) (domain.Player, error) {
	return f.player, f.err
}

type fakeGroupFetcher struct {
	group domain.Group
	err   error
}

func (f *fakeGroupFetcher) GetByChatID(context.Context, int64) (domain.Group, error) {
	return f.group, f.err
}

type panickingRouter struct{}

func (panickingRouter) Route(domain.Command, domain.ChatContext, domain.UserInfo) []domain.OutboundMessage {
	panic("router exploded")
}

func newTestClient(t *testing.T, cfg config.Config, opts ...Option) (*Client, *fakeBot, *logtest.Hook) {
	t.Helper()

	cfg.TelegramToken = "token"
	if cfg.WebAppURL == "" {
		cfg.WebAppURL = testWebAppURL
	}
	if cfg.BotUsername == "" {
		cfg.BotUsername = "runner_bot"
	}

	fb := &fakeBot{}
	stubCreateBot(t, fb)

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	client, err := NewClient(cfg, logrus.NewEntry(logger), opts...)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client, fb, hook
}

func textUpdate(chat models.Chat, from *models.User, text string) *models.Update {
	return &models.Update{Message: &models.Message{Chat: chat, From: from, Text: text}}
}

func webAppUpdate(chat models.Chat, from *models.User, data string) *models.Update {
	return &models.Update{Message: &models.Message{
		Chat:       chat,
		From:       from,
		WebAppData: &models.WebAppData{Data: data, ButtonText: "Играть в игру"},
	}}
}

var (
	privateChat = models.Chat{ID: 555, Type: models.ChatTypePrivate}
	groupChat   = models.Chat{ID: -100123, Type: models.ChatTypeSupergroup, Title: "Бегуны"}
	anton       = &models.User{ID: 555, FirstName: "Антон", LastName: "Р", Username: "anton"}
)

func findEntry(hook *logtest.Hook, event string) *logrus.Entry {
	for _, entry := range hook.AllEntries() {
		if entry.Data["event"] == event {
			return entry
		}
	}
	return nil
}

func TestHandlePrivateStartSendsLauncherAndRecordsOrigin(t *testing.T) {
	players := &fakePlayerRegistrar{}
	client, fb, hook := newTestClient(t, config.Config{}, WithPlayerRegistrar(players))

	client.handleUpdate(context.Background(), textUpdate(privateChat, anton, "/start group_-100123"))

	if len(fb.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fb.sent))
	}
	markup, ok := fb.sent[0].ReplyMarkup.(*models.ReplyKeyboardMarkup)
	if !ok {
		t.Fatalf("expected reply keyboard, got %T", fb.sent[0].ReplyMarkup)
	}
	if markup.Keyboard[0][0].WebApp == nil || markup.Keyboard[0][0].WebApp.URL != testWebAppURL {
		t.Fatalf("expected web app button bound to %s, got %+v", testWebAppURL, markup.Keyboard[0][0])
	}

	if len(players.origins) != 1 || players.origins[0] != -100123 {
		t.Fatalf("expected player recorded with origin -100123, got %v", players.origins)
	}
	if players.users[0].DisplayName != "Антон Р" || players.users[0].Username != "anton" {
		t.Fatalf("unexpected user %+v", players.users[0])
	}

	entry := findEntry(hook, "command_received")
	if entry == nil {
		t.Fatalf("expected command_received log")
	}
	if trace, _ := entry.Data["trace_id"].(string); trace == "" {
		t.Fatalf("expected trace_id on update logs, got %v", entry.Data)
	}
}

func TestHandleGroupStartSendsDeepLinkAndRecordsGroup(t *testing.T) {
	groups := &fakeGroupRegistrar{}
	players := &fakePlayerRegistrar{}
	client, fb, _ := newTestClient(t, config.Config{}, WithGroupRegistrar(groups), WithPlayerRegistrar(players))

	client.handleUpdate(context.Background(), textUpdate(groupChat, anton, "/start@runner_bot"))

	if len(fb.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fb.sent))
	}
	if fb.sent[0].ChatID != groupChat.ID {
		t.Fatalf("expected reply in group, got %v", fb.sent[0].ChatID)
	}
	markup, ok := fb.sent[0].ReplyMarkup.(*models.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected inline keyboard, got %T", fb.sent[0].ReplyMarkup)
	}
	if got := markup.InlineKeyboard[0][0].URL; got != "https://t.me/runner_bot?start=group_-100123" {
		t.Fatalf("unexpected deep link %s", got)
	}

	if len(groups.chats) != 1 || groups.chats[0].Title != "Бегуны" || groups.chats[0].Kind != domain.ChatSupergroup {
		t.Fatalf("expected group recorded, got %+v", groups.chats)
	}
	if len(players.users) != 0 {
		t.Fatalf("expected no player registration from group start")
	}
}

func TestHandleIgnoresCommandsForOtherBotsAndPlainText(t *testing.T) {
	client, fb, _ := newTestClient(t, config.Config{})

	for _, text := range []string{"/start@other_bot", "hello", "", "/unknown"} {
		client.handleUpdate(context.Background(), textUpdate(privateChat, anton, text))
	}

	if len(fb.sent) != 0 {
		t.Fatalf("expected no replies, got %d", len(fb.sent))
	}
}

func TestHandleEditedMessageIgnored(t *testing.T) {
	client, fb, _ := newTestClient(t, config.Config{})

	client.handleUpdate(context.Background(), &models.Update{
		EditedMessage: &models.Message{Chat: privateChat, From: anton, Text: "/start"},
	})

	if len(fb.sent) != 0 {
		t.Fatalf("expected edited messages to be ignored, got %d sends", len(fb.sent))
	}
}

func TestHandleWebAppDataNotifiesPlayerThenAdmin(t *testing.T) {
	players := &fakePlayerRegistrar{}
	client, fb, _ := newTestClient(t, config.Config{AdminChatID: testAdminChatID, ConfirmWithoutAdmin: true},
		WithPlayerRegistrar(players),
		WithPlayerFetcher(&fakePlayerFetcher{player: domain.Player{UserID: 555, OriginGroupID: -100123}}),
		WithGroupFetcher(&fakeGroupFetcher{group: domain.Group{ChatID: -100123, Title: "Бегуны"}}),
	)

	client.handleUpdate(context.Background(), webAppUpdate(privateChat, anton, `{"type":"game_result","won":true,"score":150,"obstacles_passed":12}`))

	if len(fb.sent) != 2 {
		t.Fatalf("expected player and admin messages, got %d", len(fb.sent))
	}

	confirm := fb.sent[0]
	if confirm.ChatID != privateChat.ID || confirm.Text != notify.ConfirmToAdmin {
		t.Fatalf("expected player confirmation first, got %+v", confirm)
	}
	if _, ok := confirm.ReplyMarkup.(*models.ReplyKeyboardRemove); !ok {
		t.Fatalf("expected keyboard removal, got %T", confirm.ReplyMarkup)
	}

	admin := fb.sent[1]
	if admin.ChatID != testAdminChatID {
		t.Fatalf("expected admin chat, got %v", admin.ChatID)
	}
	for _, want := range []string{notify.StatusWon, "150", "12", "@anton", "Бегуны (-100123)"} {
		if !strings.Contains(admin.Text, want) {
			t.Fatalf("expected admin text to contain %q, got %q", want, admin.Text)
		}
	}
	if admin.ReplyMarkup != nil {
		t.Fatalf("expected admin message without markup, got %T", admin.ReplyMarkup)
	}

	if len(players.origins) != 1 || players.origins[0] != 0 {
		t.Fatalf("expected result submission to refresh player without changing origin, got %v", players.origins)
	}
}

func TestHandleWebAppDataMalformedOnlyReachesAdmin(t *testing.T) {
	client, fb, _ := newTestClient(t, config.Config{AdminChatID: testAdminChatID})

	client.handleUpdate(context.Background(), webAppUpdate(privateChat, anton, "not json at all"))

	if len(fb.sent) != 1 || fb.sent[0].ChatID != testAdminChatID {
		t.Fatalf("expected a single admin diagnostic, got %+v", fb.sent)
	}
	if !strings.Contains(fb.sent[0].Text, "not json at all") {
		t.Fatalf("expected raw payload in diagnostic, got %q", fb.sent[0].Text)
	}
}

func TestHandleWebAppDataSurvivesDirectoryFailures(t *testing.T) {
	client, fb, hook := newTestClient(t, config.Config{AdminChatID: testAdminChatID, ConfirmWithoutAdmin: true},
		WithPlayerRegistrar(&fakePlayerRegistrar{err: errors.New("write failed")}),
		WithPlayerFetcher(&fakePlayerFetcher{err: errors.New("read failed")}),
	)

	client.handleUpdate(context.Background(), webAppUpdate(privateChat, anton, `{"type":"game_result","score":3}`))

	if len(fb.sent) != 2 {
		t.Fatalf("expected notifications despite directory errors, got %d", len(fb.sent))
	}
	if strings.Contains(fb.sent[1].Text, "группы") {
		t.Fatalf("expected no origin line when lookup fails, got %q", fb.sent[1].Text)
	}
	if findEntry(hook, "player_directory_error") == nil {
		t.Fatalf("expected player_directory_error log")
	}
}

func TestLookupOriginGroupFallsBackToID(t *testing.T) {
	client, _, hook := newTestClient(t, config.Config{},
		WithPlayerFetcher(&fakePlayerFetcher{player: domain.Player{UserID: 1, OriginGroupID: -42}}),
		WithGroupFetcher(&fakeGroupFetcher{err: domain.ErrNotFound}),
	)

	origin := client.lookupOriginGroup(context.Background(), client.logger, 1)
	if origin == nil || origin.ChatID != -42 || origin.Title != "" {
		t.Fatalf("expected origin with id only, got %+v", origin)
	}
	if findEntry(hook, "group_directory_error") != nil {
		t.Fatalf("expected missing group to be silent")
	}

	unknown, _, _ := newTestClient(t, config.Config{}, WithPlayerFetcher(&fakePlayerFetcher{err: domain.ErrNotFound}))
	if got := unknown.lookupOriginGroup(context.Background(), unknown.logger, 1); got != nil {
		t.Fatalf("expected nil origin for unknown player, got %+v", got)
	}
}

func TestSendContinuesAfterFailure(t *testing.T) {
	client, fb, hook := newTestClient(t, config.Config{AdminChatID: testAdminChatID, ConfirmWithoutAdmin: true})
	fb.failures = map[int]error{0: errors.New("Forbidden: bot was blocked by the user")}

	client.handleUpdate(context.Background(), webAppUpdate(privateChat, anton, `{"type":"game_result","won":false}`))

	if len(fb.sent) != 2 {
		t.Fatalf("expected admin send to be attempted after player failure, got %d sends", len(fb.sent))
	}
	entry := findEntry(hook, "telegram_send_error")
	if entry == nil {
		t.Fatalf("expected telegram_send_error log")
	}
	if entry.Data["target"] != privateChat.ID || entry.Data["recipient"] != string(domain.RecipientPlayer) {
		t.Fatalf("unexpected send error fields %v", entry.Data)
	}
}

func TestHandleRecoversFromPanics(t *testing.T) {
	client, fb, hook := newTestClient(t, config.Config{}, WithRouter(panickingRouter{}))

	client.handleUpdate(context.Background(), textUpdate(privateChat, anton, "/help"))

	if len(fb.sent) != 0 {
		t.Fatalf("expected no sends after panic, got %d", len(fb.sent))
	}
	if entry := findEntry(hook, "handler_panic"); entry == nil || entry.Data["panic"] != "router exploded" {
		t.Fatalf("expected handler_panic log, got %v", entry)
	}

	client.router = &fakeStaticRouter{}
	client.handleUpdate(context.Background(), textUpdate(privateChat, anton, "/help"))
	if len(fb.sent) != 1 {
		t.Fatalf("expected later updates to be handled, got %d sends", len(fb.sent))
	}
}

type fakeStaticRouter struct{}

func (fakeStaticRouter) Route(_ domain.Command, chat domain.ChatContext, _ domain.UserInfo) []domain.OutboundMessage {
	return []domain.OutboundMessage{{ChatID: chat.ID, Recipient: domain.RecipientChat, Text: "ok"}}
}
