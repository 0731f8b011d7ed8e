// Package player keeps the directory of players who interacted with the bot.
package player

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

type playerCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// Registrar ensures players are present in the directory and keeps their
// profile and last-seen timestamp current.
type Registrar struct {
	players playerCollection
	logger  *logrus.Entry
}

// NewRegistrar constructs a Registrar for the provided players collection.
func NewRegistrar(players playerCollection, logger *logrus.Entry) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		players: players,
		logger:  logger,
	}
}

// EnsurePlayer upserts the player and refreshes username, display name and
// last_seen_at. A non-zero originGroupID records the group whose deep link
// brought the player in; the latest one wins.
func (r *Registrar) EnsurePlayer(ctx context.Context, user domain.UserInfo, originGroupID int64) (bool, error) {
	if r == nil || r.players == nil {
		return false, errors.New("player registrar is not initialized")
	}
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if user.ID == 0 {
		return false, errors.New("user id is required")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	setFields := bson.M{
		"updated_at":   now,
		"last_seen_at": now,
		"display_name": strings.TrimSpace(user.DisplayName),
		"username":     strings.TrimSpace(user.Username),
	}
	if originGroupID != 0 {
		setFields["origin_group_id"] = originGroupID
	}

	update := bson.M{
		"$set": setFields,
		"$setOnInsert": bson.M{
			"user_id":    user.ID,
			"created_at": now,
		},
	}

	result, err := r.players.UpdateOne(ctx,
		bson.M{"user_id": user.ID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("ensure player: %w", err)
	}

	fields := logging.Fields{
		"user_id": user.ID,
	}
	if originGroupID != 0 {
		fields["origin_group_id"] = originGroupID
	}

	created := result != nil && result.UpsertedCount > 0
	if created {
		fields["event"] = "player_registered"
		r.logger.WithFields(fields).Info("registered new player")
		return true, nil
	}

	fields["event"] = "player_seen"
	r.logger.WithFields(fields).Debug("updated player last seen")

	return false, nil
}
