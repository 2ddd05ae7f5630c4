package hub

import (
	"chatapp-client/internal/store"
	"fmt"
)

const (
	topicGlobal  = "global"
	topicGuild   = "guild"
	topicChannel = "channel"
)

func GuildTopic(guildID string) string {
	return fmt.Sprintf("%s:%s", topicGuild, guildID)
}

func ChannelTopic(channelID string) string {
	return fmt.Sprintf("%s:%s", topicChannel, channelID)
}

// TopicOf picks where an event is published. Timeline changes go to whoever has the
// channel open, other guild scoped changes to whoever has the guild open, and the rest
// to every session.
func TopicOf(event store.Event) string {
	switch event.Type {
	case store.MessageCreated, store.MessageDeleted, store.MessageModified, store.HistoryPrepended, store.PaginationChanged:
		if event.ChannelID != "" {
			return ChannelTopic(event.ChannelID)
		}
	}

	switch event.Type {
	case store.GuildCreated, store.GuildDeleted, store.GuildModified, store.MentionsChanged:
		// the guild list is always in view
		return topicGlobal
	}

	if event.GuildID != "" {
		return GuildTopic(event.GuildID)
	}
	return topicGlobal
}
