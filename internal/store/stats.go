package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type countCollection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// Stats is a snapshot of the directory size.
type Stats struct {
	Players         int64 `json:"players"`
	PlayersViaGroup int64 `json:"players_via_group"`
	Groups          int64 `json:"groups"`
}

// StatsProvider counts directory documents without leaking MongoDB
// internals to callers.
type StatsProvider struct {
	players countCollection
	groups  countCollection
}

// NewStatsProvider constructs a StatsProvider backed by the provided player
// and group collections.
func NewStatsProvider(players, groups countCollection) *StatsProvider {
	return &StatsProvider{
		players: players,
		groups:  groups,
	}
}

// Stats returns player and group counts. Players via group are those who
// arrived through a group deep link at least once.
func (p *StatsProvider) Stats(ctx context.Context) (Stats, error) {
	if ctx == nil {
		return Stats{}, errors.New("context is required")
	}
	if p == nil || p.players == nil || p.groups == nil {
		return Stats{}, errors.New("stats provider is not initialized")
	}

	var (
		stats Stats
		err   error
	)

	if stats.Players, err = p.players.CountDocuments(ctx, bson.D{}); err != nil {
		return Stats{}, fmt.Errorf("count players: %w", err)
	}

	viaGroup := bson.D{{Key: "origin_group_id", Value: bson.D{{Key: "$exists", Value: true}}}}
	if stats.PlayersViaGroup, err = p.players.CountDocuments(ctx, viaGroup); err != nil {
		return Stats{}, fmt.Errorf("count players via group: %w", err)
	}

	if stats.Groups, err = p.groups.CountDocuments(ctx, bson.D{}); err != nil {
		return Stats{}, fmt.Errorf("count groups: %w", err)
	}

	return stats, nil
}
