package store

import (
	"chatapp-client/internal/models"
	"sort"
)

func (s *Store) User(userID string) (models.User, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	user, exists := s.state.users[userID]
	return user, exists
}

func (s *Store) Guild(guildID string) (models.Guild, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	guild, exists := s.state.guilds[guildID]
	return guild, exists
}

// Guilds returns the guilds in display order.
func (s *Store) Guilds() []models.Guild {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	guilds := make([]models.Guild, 0, len(s.state.guildIDs))
	for _, id := range s.state.guildIDs {
		guilds = append(guilds, s.state.guilds[id])
	}
	return guilds
}

func (s *Store) Channel(channelID string) (models.Channel, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	channel, exists := s.state.channels[channelID]
	return channel, exists
}

// Channels returns the channels of a guild ordered by position.
func (s *Store) Channels(guildID string) []models.Channel {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := s.state.channelIDsByGuild[guildID]
	channels := make([]models.Channel, 0, len(ids))
	for _, id := range ids {
		channels = append(channels, s.state.channels[id])
	}
	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].Position < channels[j].Position
	})
	return channels
}

func (s *Store) Message(messageID string) (models.Message, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	msg, exists := s.state.messages[messageID]
	return msg, exists
}

// Messages returns the loaded messages of a channel, oldest first.
func (s *Store) Messages(channelID string) []models.Message {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := s.state.messageIDsByChannel[channelID]
	messages := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		messages = append(messages, s.state.messages[id])
	}
	return messages
}

func (s *Store) MessageIDs(channelID string) []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return append([]string(nil), s.state.messageIDsByChannel[channelID]...)
}

func (s *Store) LatestMessage(channelID string) (models.Message, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := s.state.messageIDsByChannel[channelID]
	if len(ids) == 0 {
		return models.Message{}, false
	}
	return s.state.messages[ids[len(ids)-1]], true
}

func (s *Store) Member(key models.MemberKey) (models.Member, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	member, exists := s.state.members[key]
	if exists {
		member.Roles = append([]string(nil), member.Roles...)
	}
	return member, exists
}

func (s *Store) Role(roleID string) (models.Role, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	role, exists := s.state.roles[roleID]
	return role, exists
}

// Roles returns the roles of a guild from highest to lowest position.
func (s *Store) Roles(guildID string) []models.Role {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := s.state.roleIDsByGuild[guildID]
	roles := make([]models.Role, 0, len(ids))
	for _, id := range ids {
		roles = append(roles, s.state.roles[id])
	}
	sort.SliceStable(roles, func(i, j int) bool {
		return roles[i].Position > roles[j].Position
	})
	return roles
}

// Presence returns the status of a user, offline when nothing is known.
func (s *Store) Presence(userID string) models.Status {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	status, exists := s.state.presence[userID]
	if !exists {
		return models.StatusOffline
	}
	return status
}

// Directory is a consistent view of everything the member list is built from.
type Directory struct {
	Keys     []models.MemberKey
	Members  map[models.MemberKey]models.Member
	Roles    map[string]models.Role
	Presence map[string]models.Status
	Users    map[string]models.User
}

func (s *Store) Directory(guildID string) Directory {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := s.state.memberKeysByGuild[guildID]
	dir := Directory{
		Keys:     append([]models.MemberKey(nil), keys...),
		Members:  make(map[models.MemberKey]models.Member, len(keys)),
		Roles:    make(map[string]models.Role),
		Presence: make(map[string]models.Status, len(keys)),
		Users:    make(map[string]models.User, len(keys)),
	}

	for _, key := range keys {
		member := s.state.members[key]
		member.Roles = append([]string(nil), member.Roles...)
		dir.Members[key] = member

		if status, exists := s.state.presence[key.UserID]; exists {
			dir.Presence[key.UserID] = status
		}
		if user, exists := s.state.users[key.UserID]; exists {
			dir.Users[key.UserID] = user
		}
	}
	for _, roleID := range s.state.roleIDsByGuild[guildID] {
		dir.Roles[roleID] = s.state.roles[roleID]
	}

	return dir
}

func (s *Store) UnreadCount(channelID string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.state.unreadCountByChannel[channelID]
}

func (s *Store) LastRead(channelID string) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	messageID, exists := s.state.lastReadByChannel[channelID]
	return messageID, exists
}

func (s *Store) MentionCount(guildID string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.state.mentionCountByGuild[guildID]
}

// Counters is the unread and mention bookkeeping as shown by the sidebar badges.
type Counters struct {
	UnreadCountByChannel map[string]int    `json:"unreadCountByChannel"`
	LastReadByChannel    map[string]string `json:"lastReadByChannel"`
	MentionCountByGuild  map[string]int    `json:"mentionCountByGuild"`
}

func (s *Store) Counters() Counters {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	counters := Counters{
		UnreadCountByChannel: make(map[string]int, len(s.state.unreadCountByChannel)),
		LastReadByChannel:    make(map[string]string, len(s.state.lastReadByChannel)),
		MentionCountByGuild:  make(map[string]int, len(s.state.mentionCountByGuild)),
	}
	for channelID, count := range s.state.unreadCountByChannel {
		counters.UnreadCountByChannel[channelID] = count
	}
	for channelID, messageID := range s.state.lastReadByChannel {
		counters.LastReadByChannel[channelID] = messageID
	}
	for guildID, count := range s.state.mentionCountByGuild {
		counters.MentionCountByGuild[guildID] = count
	}
	return counters
}

// GuildHasUnread reports whether any channel of the guild has unread messages.
func (s *Store) GuildHasUnread(guildID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, channelID := range s.state.channelIDsByGuild[guildID] {
		if s.state.unreadCountByChannel[channelID] > 0 {
			return true
		}
	}
	return false
}

func (s *Store) HasMore(channelID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return hasMore(&s.state, channelID)
}

func (s *Store) IsLoading(channelID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.state.loadingMessages[channelID]
}

func (s *Store) Preferences() models.Preferences {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return clonePreferences(s.state.preferences)
}
