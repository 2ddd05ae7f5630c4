package store

import (
	"chatapp-client/internal/models"
	"sort"
)

// Load replaces every entity with the contents of a snapshot. Preferences survive,
// counters and pagination state start over.
type Load struct {
	Snapshot models.Snapshot
}

func (a Load) apply(st *state) []Event {
	preferences := st.preferences
	*st = newState()
	st.preferences = preferences

	for _, user := range a.Snapshot.Users {
		st.users[user.ID] = user
	}
	for _, guild := range a.Snapshot.Guilds {
		if _, exists := st.guilds[guild.ID]; exists {
			continue
		}
		st.guilds[guild.ID] = guild
		st.guildIDs = append(st.guildIDs, guild.ID)
	}
	for _, channel := range a.Snapshot.Channels {
		createChannel(st, channel)
	}
	for _, role := range a.Snapshot.Roles {
		upsertRole(st, role)
	}
	for _, member := range a.Snapshot.Members {
		upsertMember(st, member)
	}
	for userID, status := range a.Snapshot.Presence {
		st.presence[userID] = status
	}

	messages := make([]models.Message, len(a.Snapshot.Messages))
	copy(messages, a.Snapshot.Messages)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	for _, msg := range messages {
		upsertMessage(st, msg)
	}

	st.preferences = pruneVisited(st, st.preferences)

	return []Event{{Type: StateLoaded, Payload: len(st.guildIDs)}}
}

type CreateGuild struct {
	Guild models.Guild
}

func (a CreateGuild) apply(st *state) []Event {
	if a.Guild.ID == "" {
		return nil
	}
	if _, exists := st.guilds[a.Guild.ID]; exists {
		return nil
	}

	st.guilds[a.Guild.ID] = a.Guild
	st.guildIDs = append(st.guildIDs, a.Guild.ID)

	return []Event{{Type: GuildCreated, GuildID: a.Guild.ID, Payload: a.Guild}}
}

// UpdateGuild renames a guild or changes its icon. Ownership is immutable.
// UpdateGuild changes the fields that are set and leaves the rest alone.
type UpdateGuild struct {
	GuildID string
	Name    string
	IconURL *string
}

func (a UpdateGuild) apply(st *state) []Event {
	guild, exists := st.guilds[a.GuildID]
	if !exists {
		return nil
	}

	before := guild
	if a.Name != "" {
		guild.Name = a.Name
	}
	if a.IconURL != nil {
		guild.IconURL = *a.IconURL
	}
	if guild == before {
		return nil
	}
	st.guilds[a.GuildID] = guild

	return []Event{{Type: GuildModified, GuildID: a.GuildID, Payload: guild}}
}

// DeleteGuild covers both leaving and deleting a guild: everything scoped to it goes.
type DeleteGuild struct {
	GuildID string
}

func (a DeleteGuild) apply(st *state) []Event {
	if _, exists := st.guilds[a.GuildID]; !exists {
		return nil
	}

	var events []Event

	channelIDs := append([]string(nil), st.channelIDsByGuild[a.GuildID]...)
	for _, channelID := range channelIDs {
		events = append(events, deleteChannel(st, channelID)...)
	}
	delete(st.channelIDsByGuild, a.GuildID)

	for _, key := range st.memberKeysByGuild[a.GuildID] {
		delete(st.members, key)
	}
	delete(st.memberKeysByGuild, a.GuildID)

	for _, roleID := range st.roleIDsByGuild[a.GuildID] {
		delete(st.roles, roleID)
	}
	delete(st.roleIDsByGuild, a.GuildID)

	delete(st.mentionCountByGuild, a.GuildID)
	delete(st.guilds, a.GuildID)
	st.guildIDs = removeString(st.guildIDs, a.GuildID)

	events = append(events, Event{Type: GuildDeleted, GuildID: a.GuildID, Payload: a.GuildID})

	prefs := st.preferences
	_, hadChannel := prefs.LastVisitedChannelByGuild[a.GuildID]
	if hadChannel || prefs.LastVisitedGuildID == a.GuildID {
		prefs = clonePreferences(prefs)
		delete(prefs.LastVisitedChannelByGuild, a.GuildID)
		if prefs.LastVisitedGuildID == a.GuildID {
			prefs.LastVisitedGuildID = ""
		}
		st.preferences = prefs
		events = append(events, Event{Type: PreferencesChanged, Payload: clonePreferences(prefs)})
	}

	return events
}

type CreateChannel struct {
	Channel models.Channel
}

func (a CreateChannel) apply(st *state) []Event {
	if !createChannel(st, a.Channel) {
		return nil
	}
	return []Event{{Type: ChannelCreated, GuildID: a.Channel.GuildID, ChannelID: a.Channel.ID, Payload: a.Channel}}
}

func createChannel(st *state, channel models.Channel) bool {
	if channel.ID == "" {
		return false
	}
	if _, exists := st.guilds[channel.GuildID]; !exists {
		return false
	}
	if _, exists := st.channels[channel.ID]; exists {
		return false
	}
	if channel.ChannelType == "" {
		channel.ChannelType = models.ChannelText
	}

	st.channels[channel.ID] = channel
	st.channelIDsByGuild[channel.GuildID] = append(st.channelIDsByGuild[channel.GuildID], channel.ID)
	return true
}

// UpdateChannel changes the mutable fields of a channel. The guild never changes.
// UpdateChannel changes the fields that are set and leaves the rest alone.
type UpdateChannel struct {
	ChannelID string
	Name      string
	Position  *int
	Category  *string
}

func (a UpdateChannel) apply(st *state) []Event {
	channel, exists := st.channels[a.ChannelID]
	if !exists {
		return nil
	}

	before := channel
	if a.Name != "" {
		channel.Name = a.Name
	}
	if a.Position != nil {
		channel.Position = *a.Position
	}
	if a.Category != nil {
		channel.Category = *a.Category
	}
	if channel == before {
		return nil
	}
	st.channels[a.ChannelID] = channel

	return []Event{{Type: ChannelModified, GuildID: channel.GuildID, ChannelID: channel.ID, Payload: channel}}
}

type DeleteChannel struct {
	ChannelID string
}

func (a DeleteChannel) apply(st *state) []Event {
	return deleteChannel(st, a.ChannelID)
}

func deleteChannel(st *state, channelID string) []Event {
	channel, exists := st.channels[channelID]
	if !exists {
		return nil
	}

	for _, messageID := range st.messageIDsByChannel[channelID] {
		delete(st.messages, messageID)
	}
	delete(st.messageIDsByChannel, channelID)
	delete(st.lastReadByChannel, channelID)
	delete(st.unreadCountByChannel, channelID)
	delete(st.hasMore, channelID)
	delete(st.loadingMessages, channelID)

	delete(st.channels, channelID)
	st.channelIDsByGuild[channel.GuildID] = removeString(st.channelIDsByGuild[channel.GuildID], channelID)

	events := []Event{{Type: ChannelDeleted, GuildID: channel.GuildID, ChannelID: channelID, Payload: channelID}}

	// any guild may still point at the channel as its last visited one
	var prefs *models.Preferences
	for guildID, visited := range st.preferences.LastVisitedChannelByGuild {
		if visited != channelID {
			continue
		}
		if prefs == nil {
			cloned := clonePreferences(st.preferences)
			prefs = &cloned
		}
		delete(prefs.LastVisitedChannelByGuild, guildID)
	}
	if prefs != nil {
		st.preferences = *prefs
		events = append(events, Event{Type: PreferencesChanged, Payload: clonePreferences(*prefs)})
	}

	return events
}
