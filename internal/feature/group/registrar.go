// Package group tracks the group chats where the bot handed out game deep links.
package group

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vanohrulidze-ui/anton-runner-bot/internal/domain"
	"github.com/vanohrulidze-ui/anton-runner-bot/internal/logging"
)

type groupCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// Registrar records group chats and keeps their title and last-seen
// timestamp current.
type Registrar struct {
	groups groupCollection
	logger *logrus.Entry
}

// NewRegistrar constructs a Registrar for the provided groups collection.
func NewRegistrar(groups groupCollection, logger *logrus.Entry) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		groups: groups,
		logger: logger,
	}
}

// EnsureGroup upserts a group or supergroup chat. Other chat kinds are rejected.
func (r *Registrar) EnsureGroup(ctx context.Context, chat domain.ChatContext) (bool, error) {
	if r == nil || r.groups == nil {
		return false, errors.New("group registrar is not initialized")
	}
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if chat.ID == 0 {
		return false, errors.New("chat id is required")
	}
	if chat.Kind != domain.ChatGroup && chat.Kind != domain.ChatSupergroup {
		return false, fmt.Errorf("chat %d is a %s chat, not a group", chat.ID, chat.Kind)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	title := strings.TrimSpace(chat.Title)

	setFields := bson.M{
		"last_seen_at": now,
		"kind":         chat.Kind.String(),
	}
	if title != "" {
		setFields["title"] = title
	}

	update := bson.M{
		"$set": setFields,
		"$setOnInsert": bson.M{
			"chat_id":   chat.ID,
			"joined_at": now,
		},
	}

	result, err := r.groups.UpdateOne(ctx,
		bson.M{"chat_id": chat.ID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("ensure group: %w", err)
	}

	fields := logging.Fields{
		"chat_id": chat.ID,
		"title":   title,
		"kind":    chat.Kind.String(),
	}

	if result != nil && result.UpsertedCount > 0 {
		fields["event"] = "group_registered"
		r.logger.WithFields(fields).Info("registered new group")
		return true, nil
	}

	fields["event"] = "group_seen"
	r.logger.WithFields(fields).Debug("updated group last seen")

	return false, nil
}
