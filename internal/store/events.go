package store

const (
	StateLoaded = "StateLoaded"

	GuildCreated  = "GuildCreated"
	GuildDeleted  = "GuildDeleted"
	GuildModified = "GuildModified"

	ChannelCreated  = "ChannelCreated"
	ChannelDeleted  = "ChannelDeleted"
	ChannelModified = "ChannelModified"

	MessageCreated   = "MessageCreated"
	MessageDeleted   = "MessageDeleted"
	MessageModified  = "MessageModified"
	HistoryPrepended = "HistoryPrepended"

	MemberModified = "MemberModified"
	MemberRemoved  = "MemberRemoved"
	RoleModified   = "RoleModified"
	RoleDeleted    = "RoleDeleted"
	UserModified   = "UserModified"

	PresenceChanged = "PresenceChanged"

	UnreadChanged   = "UnreadChanged"
	MentionsChanged = "MentionsChanged"

	PaginationChanged  = "PaginationChanged"
	PreferencesChanged = "PreferencesChanged"
)

// Event describes one applied change. GuildID and ChannelID are set when the change
// is scoped to them so listeners can route it.
type Event struct {
	Type      string `json:"type"`
	GuildID   string `json:"guildId,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
	Payload   any    `json:"payload"`
}

type UnreadPayload struct {
	ChannelID   string `json:"channelId"`
	UnreadCount int    `json:"unreadCount"`
	LastRead    string `json:"lastRead,omitempty"`
}

type MentionsPayload struct {
	GuildID      string `json:"guildId"`
	MentionCount int    `json:"mentionCount"`
}

type PaginationPayload struct {
	ChannelID string `json:"channelId"`
	HasMore   bool   `json:"hasMore"`
	Loading   bool   `json:"loading"`
}

type HistoryPayload struct {
	ChannelID  string   `json:"channelId"`
	MessageIDs []string `json:"messageIds"`
}
