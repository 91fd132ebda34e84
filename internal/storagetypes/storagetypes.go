package storagetypes

import (
	"time"
)

type CommandHistory struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	GuildName   string    `json:"guild_name"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Command     string    `json:"command"`
	Param       string    `json:"param,omitempty"`
	Datetime    time.Time `json:"datetime"`
}

type TrackHistory struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Duration  string    `json:"duration,omitempty"`
	Requester string    `json:"requester,omitempty"`
	PlayedAt  time.Time `json:"played_at"`
}

// Record is everything kept for one guild.
type Record struct {
	CommandsHistory []CommandHistory `json:"commands_history"`
	TracksHistory   []TrackHistory   `json:"tracks_history"`
}
