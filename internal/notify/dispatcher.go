// Package notify decides who hears about a mini-app payload and what they
// are told.
package notify

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/sirupsen/logrus"

	"github.com/vanohrulidze-ui/anton-runner-bot/internal/config"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/domain"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/logging"
)

// User-facing texts.
const (
	StatusWon      = "🎉 Победа!"
	StatusNotWon   = "😅 Не дошёл(ла) до финала."
	NoUsername     = "без username"
	ConfirmToAdmin = "Результат игры отправлен администратору, спасибо за игру!"
	ConfirmNoAdmin = "Результат игры получен, спасибо за игру!"

	malformedHeader    = "⚠️ WebApp прислал некорректный JSON от %s (%s, id=%d):"
	unrecognizedHeader = "ℹ️ Неизвестный тип web_app_data от %s (%s, id=%d):"
	truncatedMarker    = "\n… (обрезано, всего %d байт)"
)

// MaxMessageLength is the Bot API limit for message text, counted in UTF-16
// code units.
const MaxMessageLength = 4096

// maxTagLength caps the quoted type tag; a non-string tag is raw JSON of any size.
const maxTagLength = 64

// Dispatcher turns a validation outcome into player and admin messages.
type Dispatcher struct {
	cfg    config.Config
	logger *logrus.Entry
}

// New constructs a Dispatcher for the provided configuration.
func New(cfg config.Config, logger *logrus.Entry) *Dispatcher {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Dispatcher{
		cfg:    cfg,
		logger: logger,
	}
}

// Dispatch returns the messages for outcome in send order: the player
// confirmation (if any) first, then the admin message (if any). A missing
// admin chat is logged, never reported as an error.
func (d *Dispatcher) Dispatch(outcome domain.Outcome, chat domain.ChatContext, user domain.UserInfo) []domain.OutboundMessage {
	switch outcome.Kind {
	case domain.OutcomeValid:
		return d.dispatchResult(outcome.Result, chat, user)
	case domain.OutcomeMalformed:
		return d.toAdmin(outcome, user, malformedText(outcome.Raw, user))
	case domain.OutcomeUnrecognized:
		return d.toAdmin(outcome, user, unrecognizedText(outcome.Raw, outcome.TypeTag, user))
	default:
		d.logger.WithFields(logging.Fields{
			"event":   "outcome_unknown",
			"user_id": user.ID,
			"outcome": outcome.Kind.String(),
		}).Error("unknown validation outcome")
		return nil
	}
}

func (d *Dispatcher) dispatchResult(result domain.GameResult, chat domain.ChatContext, user domain.UserInfo) []domain.OutboundMessage {
	messages := make([]domain.OutboundMessage, 0, 2)

	if !d.cfg.HasAdmin() {
		d.logMissingAdmin(domain.OutcomeValid, user)
		if !d.cfg.ConfirmWithoutAdmin {
			return messages
		}
		return append(messages, d.confirmation(chat, ConfirmNoAdmin))
	}

	return append(messages,
		d.confirmation(chat, ConfirmToAdmin),
		domain.OutboundMessage{
			ChatID:    d.cfg.AdminChatID,
			Recipient: domain.RecipientAdmin,
			Text:      ResultSummary(result, user),
		},
	)
}

func (d *Dispatcher) confirmation(chat domain.ChatContext, text string) domain.OutboundMessage {
	return domain.OutboundMessage{
		ChatID:    chat.ID,
		Recipient: domain.RecipientPlayer,
		Text:      text,
		Markup:    domain.Markup{Kind: domain.MarkupRemoveKeyboard},
	}
}

func (d *Dispatcher) toAdmin(outcome domain.Outcome, user domain.UserInfo, text string) []domain.OutboundMessage {
	if !d.cfg.HasAdmin() {
		d.logMissingAdmin(outcome.Kind, user)
		return nil
	}

	return []domain.OutboundMessage{{
		ChatID:    d.cfg.AdminChatID,
		Recipient: domain.RecipientAdmin,
		Text:      text,
	}}
}

func (d *Dispatcher) logMissingAdmin(kind domain.OutcomeKind, user domain.UserInfo) {
	d.logger.WithFields(logging.Fields{
		"event":    "admin_missing",
		"outcome":  kind.String(),
		"user_id":  user.ID,
		"username": user.Username,
	}).Warn("admin chat is not configured, admin notification dropped")
}

// ResultSummary renders the admin-facing report for a valid game result.
func ResultSummary(result domain.GameResult, user domain.UserInfo) string {
	status := StatusNotWon
	if result.Won {
		status = StatusWon
	}

	var sb strings.Builder
	sb.WriteString(status)
	fmt.Fprintf(&sb, "\nИгрок: %s (%s, id=%d)", user.DisplayName, user.Handle(NoUsername), user.ID)
	fmt.Fprintf(&sb, "\nОчков: %d", result.Score)
	if result.ObstaclesPassed != nil {
		fmt.Fprintf(&sb, "\nПрепятствий пройдено: %d", *result.ObstaclesPassed)
	}
	if user.OriginGroup != nil {
		fmt.Fprintf(&sb, "\nПришёл из группы: %s", groupLabel(*user.OriginGroup))
	}

	return sb.String()
}

func malformedText(raw string, user domain.UserInfo) string {
	header := fmt.Sprintf(malformedHeader, user.DisplayName, user.Handle(NoUsername), user.ID)
	return withPayload(header, raw)
}

func unrecognizedText(raw, tag string, user domain.UserInfo) string {
	header := fmt.Sprintf(unrecognizedHeader, user.DisplayName, user.Handle(NoUsername), user.ID)
	if short, cut := truncateUTF16(tag, maxTagLength); cut {
		tag = short + "…"
	}
	return withPayload(fmt.Sprintf("%s\nТип: %q", header, tag), raw)
}

// withPayload appends raw below header, cutting raw so the whole text fits
// in one message.
func withPayload(header, raw string) string {
	text := header + "\n" + raw
	if utf16Len(text) <= MaxMessageLength {
		return text
	}

	marker := fmt.Sprintf(truncatedMarker, len(raw))
	budget := MaxMessageLength - utf16Len(header) - 1 - utf16Len(marker)
	if budget < 0 {
		budget = 0
	}

	short, _ := truncateUTF16(raw, budget)
	return header + "\n" + short + marker
}

// truncateUTF16 returns the longest prefix of s that fits in limit UTF-16
// code units without splitting a rune.
func truncateUTF16(s string, limit int) (string, bool) {
	units := 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > limit {
			return s[:i], true
		}
		units += n
	}
	return s, false
}

func utf16Len(s string) int {
	units := 0
	for _, r := range s {
		if n := utf16.RuneLen(r); n > 0 {
			units += n
		} else {
			units++
		}
	}
	return units
}

func groupLabel(group domain.Group) string {
	if strings.TrimSpace(group.Title) == "" {
		return fmt.Sprintf("%d", group.ChatID)
	}
	return fmt.Sprintf("%s (%d)", group.Title, group.ChatID)
}
