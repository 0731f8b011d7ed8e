package domain

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a directory lookup matches no document.
var ErrNotFound = errors.New("not found")

type findCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

// PlayerRepository reads players from MongoDB.
type PlayerRepository struct {
	collection findCollection
}

// NewPlayerRepository constructs a PlayerRepository.
func NewPlayerRepository(collection findCollection) *PlayerRepository {
	return &PlayerRepository{collection: collection}
}

// GetByID fetches a player by Telegram user_id.
func (r *PlayerRepository) GetByID(ctx context.Context, userID int64) (Player, error) {
	if r == nil || r.collection == nil {
		return Player{}, errors.New("player repository is not initialized")
	}
	if ctx == nil {
		return Player{}, errors.New("context is required")
	}
	if userID == 0 {
		return Player{}, errors.New("user_id is required")
	}

	var player Player
	if err := findOne(ctx, r.collection, bson.M{"user_id": userID}, &player); err != nil {
		return Player{}, fmt.Errorf("find player: %w", err)
	}

	return player, nil
}

// GroupRepository reads groups from MongoDB.
type GroupRepository struct {
	collection findCollection
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(collection findCollection) *GroupRepository {
	return &GroupRepository{collection: collection}
}

// GetByChatID fetches a group by Telegram chat_id.
func (r *GroupRepository) GetByChatID(ctx context.Context, chatID int64) (Group, error) {
	if r == nil || r.collection == nil {
		return Group{}, errors.New("group repository is not initialized")
	}
	if ctx == nil {
		return Group{}, errors.New("context is required")
	}
	if chatID == 0 {
		return Group{}, errors.New("chat_id is required")
	}

	var group Group
	if err := findOne(ctx, r.collection, bson.M{"chat_id": chatID}, &group); err != nil {
		return Group{}, fmt.Errorf("find group: %w", err)
	}

	return group, nil
}

func findOne(ctx context.Context, coll findCollection, filter bson.M, out interface{}) error {
	result := coll.FindOne(ctx, filter)
	if result == nil {
		return errors.New("find returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}

	if err := result.Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	return nil
}
