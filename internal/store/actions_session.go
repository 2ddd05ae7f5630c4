package store

import (
	"chatapp-client/internal/models"
	"time"
)

type IncrementUnread struct {
	ChannelID string
}

func (a IncrementUnread) apply(st *state) []Event {
	channel, exists := st.channels[a.ChannelID]
	if !exists {
		return nil
	}

	st.unreadCountByChannel[a.ChannelID]++
	return []Event{{Type: UnreadChanged, GuildID: channel.GuildID, ChannelID: a.ChannelID, Payload: unreadPayload(st, a.ChannelID)}}
}

// MarkChannelRead moves the read marker and zeroes the unread counter in one step.
type MarkChannelRead struct {
	ChannelID string
	MessageID string
}

func (a MarkChannelRead) apply(st *state) []Event {
	channel, exists := st.channels[a.ChannelID]
	if !exists {
		return nil
	}

	lastRead, hasLastRead := st.lastReadByChannel[a.ChannelID]
	if hasLastRead && lastRead == a.MessageID && st.unreadCountByChannel[a.ChannelID] == 0 {
		return nil
	}

	st.lastReadByChannel[a.ChannelID] = a.MessageID
	st.unreadCountByChannel[a.ChannelID] = 0
	return []Event{{Type: UnreadChanged, GuildID: channel.GuildID, ChannelID: a.ChannelID, Payload: unreadPayload(st, a.ChannelID)}}
}

func unreadPayload(st *state, channelID string) UnreadPayload {
	return UnreadPayload{
		ChannelID:   channelID,
		UnreadCount: st.unreadCountByChannel[channelID],
		LastRead:    st.lastReadByChannel[channelID],
	}
}

type IncrementMention struct {
	GuildID string
}

func (a IncrementMention) apply(st *state) []Event {
	if _, exists := st.guilds[a.GuildID]; !exists {
		return nil
	}

	st.mentionCountByGuild[a.GuildID]++
	return []Event{{Type: MentionsChanged, GuildID: a.GuildID, Payload: MentionsPayload{GuildID: a.GuildID, MentionCount: st.mentionCountByGuild[a.GuildID]}}}
}

type ResetGuildMentions struct {
	GuildID string
}

func (a ResetGuildMentions) apply(st *state) []Event {
	if _, exists := st.guilds[a.GuildID]; !exists {
		return nil
	}
	if st.mentionCountByGuild[a.GuildID] == 0 {
		return nil
	}

	st.mentionCountByGuild[a.GuildID] = 0
	return []Event{{Type: MentionsChanged, GuildID: a.GuildID, Payload: MentionsPayload{GuildID: a.GuildID}}}
}

// BeginLoadOlder is the single-flight guard of history pagination. The check of the
// loading flag and its set happen under the same lock, so two concurrent callers can
// never both start a fetch for one channel.
type BeginLoadOlder struct {
	ChannelID string

	cursor  time.Time
	started bool
}

func (a *BeginLoadOlder) apply(st *state) []Event {
	a.started = false

	channel, exists := st.channels[a.ChannelID]
	if !exists {
		return nil
	}
	if !hasMore(st, a.ChannelID) || st.loadingMessages[a.ChannelID] {
		return nil
	}

	index := st.messageIDsByChannel[a.ChannelID]
	if len(index) == 0 {
		return nil
	}

	a.cursor = st.messages[index[0]].CreatedAt
	a.started = true
	st.loadingMessages[a.ChannelID] = true

	return []Event{{Type: PaginationChanged, GuildID: channel.GuildID, ChannelID: a.ChannelID, Payload: paginationPayload(st, a.ChannelID)}}
}

// Cursor returns the createdAt of the oldest loaded message, and whether the load was
// started at all.
func (a *BeginLoadOlder) Cursor() (time.Time, bool) {
	return a.cursor, a.started
}

// BeginLoadLatest guards the first page of a channel that has nothing loaded yet.
type BeginLoadLatest struct {
	ChannelID string

	started bool
}

func (a *BeginLoadLatest) apply(st *state) []Event {
	a.started = false

	channel, exists := st.channels[a.ChannelID]
	if !exists || st.loadingMessages[a.ChannelID] || len(st.messageIDsByChannel[a.ChannelID]) > 0 {
		return nil
	}
	// an empty page already came back for this channel
	if !hasMore(st, a.ChannelID) {
		return nil
	}

	a.started = true
	st.loadingMessages[a.ChannelID] = true
	return []Event{{Type: PaginationChanged, GuildID: channel.GuildID, ChannelID: a.ChannelID, Payload: paginationPayload(st, a.ChannelID)}}
}

func (a *BeginLoadLatest) Started() bool {
	return a.started
}

type EndLoad struct {
	ChannelID string
}

func (a EndLoad) apply(st *state) []Event {
	if !st.loadingMessages[a.ChannelID] {
		return nil
	}

	delete(st.loadingMessages, a.ChannelID)

	channel := st.channels[a.ChannelID]
	return []Event{{Type: PaginationChanged, GuildID: channel.GuildID, ChannelID: a.ChannelID, Payload: paginationPayload(st, a.ChannelID)}}
}

// unset means nothing has told us the history is exhausted yet
func hasMore(st *state, channelID string) bool {
	value, exists := st.hasMore[channelID]
	return !exists || value
}

func paginationPayload(st *state, channelID string) PaginationPayload {
	return PaginationPayload{
		ChannelID: channelID,
		HasMore:   hasMore(st, channelID),
		Loading:   st.loadingMessages[channelID],
	}
}

// SetPreferences replaces the preferences, as done when the saved ones are loaded.
// Pointers to guilds or channels that don't exist are dropped.
type SetPreferences struct {
	Preferences models.Preferences
}

func (a SetPreferences) apply(st *state) []Event {
	prefs := pruneVisited(st, a.Preferences)
	if prefs.Theme == "" {
		prefs.Theme = models.ThemeDark
	}
	st.preferences = prefs
	return []Event{{Type: PreferencesChanged, Payload: clonePreferences(prefs)}}
}

// PatchPreferences changes only the fields that are set, on top of the preferences
// current at the time it is applied.
type PatchPreferences struct {
	Theme                 models.Theme
	ChannelSidebarVisible *bool
	MemberListVisible     *bool
}

func (a PatchPreferences) apply(st *state) []Event {
	prefs := clonePreferences(st.preferences)
	if a.Theme != "" {
		prefs.Theme = a.Theme
	}
	if a.ChannelSidebarVisible != nil {
		prefs.ChannelSidebarVisible = *a.ChannelSidebarVisible
	}
	if a.MemberListVisible != nil {
		prefs.MemberListVisible = *a.MemberListVisible
	}

	current := st.preferences
	if prefs.Theme == current.Theme && prefs.ChannelSidebarVisible == current.ChannelSidebarVisible && prefs.MemberListVisible == current.MemberListVisible {
		return nil
	}

	st.preferences = prefs
	return []Event{{Type: PreferencesChanged, Payload: clonePreferences(prefs)}}
}

// VisitChannel records the channel as the last one opened in its guild, and the guild
// as the last one opened overall.
type VisitChannel struct {
	GuildID   string
	ChannelID string
}

func (a VisitChannel) apply(st *state) []Event {
	channel, exists := st.channels[a.ChannelID]
	if !exists || channel.GuildID != a.GuildID {
		return nil
	}

	prefs := st.preferences
	if prefs.LastVisitedGuildID == a.GuildID && prefs.LastVisitedChannelByGuild[a.GuildID] == a.ChannelID {
		return nil
	}

	prefs = clonePreferences(prefs)
	prefs.LastVisitedGuildID = a.GuildID
	prefs.LastVisitedChannelByGuild[a.GuildID] = a.ChannelID
	st.preferences = prefs

	return []Event{{Type: PreferencesChanged, Payload: clonePreferences(prefs)}}
}

func clonePreferences(prefs models.Preferences) models.Preferences {
	visited := make(map[string]string, len(prefs.LastVisitedChannelByGuild))
	for guildID, channelID := range prefs.LastVisitedChannelByGuild {
		visited[guildID] = channelID
	}
	prefs.LastVisitedChannelByGuild = visited
	return prefs
}

// pruneVisited returns a copy of prefs without pointers into guilds or channels that
// don't exist, or channels that are not in the guild they are recorded for.
func pruneVisited(st *state, prefs models.Preferences) models.Preferences {
	prefs = clonePreferences(prefs)
	if _, exists := st.guilds[prefs.LastVisitedGuildID]; !exists {
		prefs.LastVisitedGuildID = ""
	}
	for guildID, channelID := range prefs.LastVisitedChannelByGuild {
		channel, exists := st.channels[channelID]
		if !exists || channel.GuildID != guildID {
			delete(prefs.LastVisitedChannelByGuild, guildID)
		}
	}
	return prefs
}
