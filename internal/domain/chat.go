// Package domain defines the bot's data model: chat context, game results,
// validation outcomes and outbound messages.
package domain

import (
	"strconv"
	"strings"
)

// ChatKind is the closed set of chat types the router distinguishes.
type ChatKind int

const (
	ChatOther ChatKind = iota
	ChatPrivate
	ChatGroup
	ChatSupergroup
)

// ParseChatKind maps a Telegram chat type to a ChatKind. Channels and
// unknown types map to ChatOther.
func ParseChatKind(raw string) ChatKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "private":
		return ChatPrivate
	case "group":
		return ChatGroup
	case "supergroup":
		return ChatSupergroup
	default:
		return ChatOther
	}
}

func (k ChatKind) String() string {
	switch k {
	case ChatPrivate:
		return "private"
	case ChatGroup:
		return "group"
	case ChatSupergroup:
		return "supergroup"
	default:
		return "other"
	}
}

// ChatContext is derived once per inbound update.
type ChatContext struct {
	ID    int64
	Kind  ChatKind
	Title string
}

// UserInfo identifies the sender of an update.
type UserInfo struct {
	ID          int64
	DisplayName string
	// Username is empty when the Telegram account has none.
	Username string
	// OriginGroup is set when the player reached the bot through a group deep link.
	OriginGroup *Group
}

// Handle returns "@username" or the placeholder when the user has none.
func (u UserInfo) Handle(placeholder string) string {
	if u.Username == "" {
		return placeholder
	}
	return "@" + u.Username
}

// Command is a parsed bot command such as "/start group_-100".
type Command struct {
	Name string
	Args []string
}

// GroupStartPrefix prefixes the start parameter of group deep links.
const GroupStartPrefix = "group_"

// ParseGroupStartParam extracts the chat id from a "group_<chatID>" start
// parameter.
func ParseGroupStartParam(arg string) (int64, bool) {
	raw, ok := strings.CutPrefix(arg, GroupStartPrefix)
	if !ok {
		return 0, false
	}

	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || chatID == 0 {
		return 0, false
	}
	return chatID, true
}
