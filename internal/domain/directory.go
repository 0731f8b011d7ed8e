package domain

import "time"

// Player is a Telegram user who interacted with the bot.
type Player struct {
	UserID        int64     `bson:"user_id" json:"user_id"`
	Username      string    `bson:"username,omitempty" json:"username,omitempty"`
	DisplayName   string    `bson:"display_name" json:"display_name"`
	OriginGroupID int64     `bson:"origin_group_id,omitempty" json:"origin_group_id,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
	LastSeenAt    time.Time `bson:"last_seen_at" json:"last_seen_at"`
}

// Group represents a Telegram chat where /start handed out a deep link.
type Group struct {
	ChatID     int64     `bson:"chat_id" json:"chat_id"`
	Title      string    `bson:"title" json:"title"`
	Kind       string    `bson:"kind" json:"kind"`
	JoinedAt   time.Time `bson:"joined_at" json:"joined_at"`
	LastSeenAt time.Time `bson:"last_seen_at" json:"last_seen_at"`
}
