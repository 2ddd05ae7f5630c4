package models

import "time"

type User struct {
	ID          string `json:"id"`
	UserName    string `json:"userName"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type Guild struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
	IconURL string `json:"iconUrl,omitempty"`
}

type ChannelType string

const (
	ChannelText  ChannelType = "text"
	ChannelVoice ChannelType = "voice"
)

type Channel struct {
	ID          string      `json:"id"`
	GuildID     string      `json:"guildId"`
	Name        string      `json:"name"`
	ChannelType ChannelType `json:"channelType"`
	Position    int         `json:"position"`
	Category    string      `json:"category,omitempty"`
}

type Attachment struct {
	ID           string `json:"id"`
	FileName     string `json:"fileName"`
	FileSize     int64  `json:"fileSize"`
	MimeType     string `json:"mimeType"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type Message struct {
	ID               string       `json:"id"`
	ChannelID        string       `json:"channelId"`
	SenderID         string       `json:"senderId"`
	Content          string       `json:"content"`
	EncryptedContent string       `json:"encryptedContent"`
	Nonce            string       `json:"nonce"`
	CreatedAt        time.Time    `json:"createdAt"`
	EditedAt         *time.Time   `json:"editedAt"`
	Attachments      []Attachment `json:"attachments"`
}

// MemberKey identifies the guild scoped profile of a user.
type MemberKey struct {
	GuildID string `json:"guildId"`
	UserID  string `json:"userId"`
}

func (k MemberKey) String() string {
	return k.GuildID + ":" + k.UserID
}

type Member struct {
	UserID   string    `json:"userId"`
	GuildID  string    `json:"guildId"`
	Nickname string    `json:"nickname,omitempty"`
	Roles    []string  `json:"roles"`
	JoinedAt time.Time `json:"joinedAt"`
}

func (m Member) Key() MemberKey {
	return MemberKey{GuildID: m.GuildID, UserID: m.UserID}
}

type Role struct {
	ID       string `json:"id"`
	GuildID  string `json:"guildId"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Position int    `json:"position"`
}

type Status string

const (
	StatusOnline  Status = "online"
	StatusIdle    Status = "idle"
	StatusDND     Status = "dnd"
	StatusOffline Status = "offline"
)

// IsOnline reports whether the status counts as present in the member list.
func (s Status) IsOnline() bool {
	return s == StatusOnline || s == StatusIdle || s == StatusDND
}

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Preferences is the only part of the client state saved across sessions.
type Preferences struct {
	LastVisitedGuildID        string            `json:"lastVisitedGuildId"`
	LastVisitedChannelByGuild map[string]string `json:"lastVisitedChannelByGuild"`
	Theme                     Theme             `json:"theme"`
	ChannelSidebarVisible     bool              `json:"channelSidebarVisible"`
	MemberListVisible         bool              `json:"memberListVisible"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		LastVisitedChannelByGuild: map[string]string{},
		Theme:                     ThemeDark,
		ChannelSidebarVisible:     true,
		MemberListVisible:         true,
	}
}

// Snapshot is the dataset a session starts from.
type Snapshot struct {
	Users    []User            `json:"users"`
	Guilds   []Guild           `json:"guilds"`
	Channels []Channel         `json:"channels"`
	Roles    []Role            `json:"roles"`
	Members  []Member          `json:"members"`
	Presence map[string]Status `json:"presence"`
	Messages []Message         `json:"messages"`
}

type ConfigFile struct {
	Address           string
	Port              string
	PrintHttpRequests bool
	LogToFile         bool
	LogLevel          string
	JwtSecret         string
	SnowflakeWorkerID int64
	SelfContained     bool
	SqlitePath        string
	DbUser            string
	DbPassword        string
	DbAddress         string
	DbPort            string
	DbDatabase        string
	RedisAddress      string
	MessageSource     string
	SeedFile          string
	UserID            string
	MockFailureRate   float64
	MockMinLatencyMs  int
	MockMaxLatencyMs  int

	// zero turns the simulated incoming messages off
	MockIncomingIntervalMs int
}
