package domain

// Recipient says who an outbound message is addressed to.
type Recipient string

const (
	RecipientChat   Recipient = "chat"
	RecipientPlayer Recipient = "player"
	RecipientAdmin  Recipient = "admin"
)

// MarkupKind selects the reply control attached to a message.
type MarkupKind int

const (
	MarkupNone MarkupKind = iota
	// MarkupWebAppLauncher is a persistent reply keyboard button opening the mini-app.
	MarkupWebAppLauncher
	// MarkupLinkButton is an inline button opening URL.
	MarkupLinkButton
	// MarkupRemoveKeyboard clears an active reply keyboard.
	MarkupRemoveKeyboard
)

// Markup describes a reply control independent of the Bot API types.
type Markup struct {
	Kind  MarkupKind
	Label string
	URL   string
}

// OutboundMessage is a single send produced by the router or the dispatcher.
type OutboundMessage struct {
	ChatID    int64
	Recipient Recipient
	Text      string
	Markup    Markup
}
