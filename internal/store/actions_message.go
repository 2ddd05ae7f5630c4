package store

import (
	"chatapp-client/internal/models"
	"sort"
	"time"
)

// UpsertMessages is the append path used by sends and live deliveries. New messages
// are placed by createdAt, so the channel index stays ascending even when a delivery
// arrives late. Messages for unknown channels are dropped.
type UpsertMessages struct {
	Messages []models.Message
}

func (a UpsertMessages) apply(st *state) []Event {
	var events []Event
	for _, msg := range a.Messages {
		created, ok := upsertMessage(st, msg)
		if !ok {
			continue
		}

		channel := st.channels[msg.ChannelID]
		eventType := MessageModified
		if created {
			eventType = MessageCreated
		}
		events = append(events, Event{Type: eventType, GuildID: channel.GuildID, ChannelID: msg.ChannelID, Payload: msg})
	}
	return events
}

func upsertMessage(st *state, msg models.Message) (created bool, ok bool) {
	if msg.ID == "" {
		return false, false
	}
	if _, exists := st.channels[msg.ChannelID]; !exists {
		return false, false
	}

	if existing, exists := st.messages[msg.ID]; exists {
		// a message never moves between channels
		msg.ChannelID = existing.ChannelID
		st.messages[msg.ID] = msg
		return false, true
	}

	st.messages[msg.ID] = msg
	st.messageIDsByChannel[msg.ChannelID] = insertByCreatedAt(st, st.messageIDsByChannel[msg.ChannelID], msg)
	return true, true
}

func insertByCreatedAt(st *state, ids []string, msg models.Message) []string {
	// first position holding a strictly newer message; equal timestamps keep arrival order
	i := sort.Search(len(ids), func(i int) bool {
		return st.messages[ids[i]].CreatedAt.After(msg.CreatedAt)
	})

	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = msg.ID
	return ids
}

// PrependHistory merges a page of older messages as returned by the message source,
// newest first. Ids already present in the channel are not duplicated.
type PrependHistory struct {
	ChannelID string
	Page      []models.Message
	HasMore   bool
}

func (a PrependHistory) apply(st *state) []Event {
	channel, exists := st.channels[a.ChannelID]
	if !exists {
		return nil
	}

	index := st.messageIDsByChannel[a.ChannelID]
	present := make(map[string]struct{}, len(index))
	for _, id := range index {
		present[id] = struct{}{}
	}

	var oldest time.Time
	if len(index) > 0 {
		oldest = st.messages[index[0]].CreatedAt
	}

	var older []string
	var stragglers []models.Message
	for i := len(a.Page) - 1; i >= 0; i-- {
		msg := a.Page[i]
		if msg.ID == "" || msg.ChannelID != a.ChannelID {
			continue
		}
		// a message never moves between channels
		if existing, exists := st.messages[msg.ID]; exists && existing.ChannelID != a.ChannelID {
			continue
		}

		st.messages[msg.ID] = msg
		if _, exists := present[msg.ID]; exists {
			continue
		}
		present[msg.ID] = struct{}{}

		if len(index) == 0 || msg.CreatedAt.Before(oldest) {
			older = append(older, msg.ID)
		} else {
			stragglers = append(stragglers, msg)
		}
	}

	merged := make([]string, 0, len(older)+len(index))
	merged = append(merged, older...)
	merged = append(merged, index...)
	// a source handing back something that is not older still lands in order
	for _, msg := range stragglers {
		merged = insertByCreatedAt(st, merged, msg)
	}
	st.messageIDsByChannel[a.ChannelID] = merged
	st.hasMore[a.ChannelID] = a.HasMore

	added := append(older, idsOf(stragglers)...)
	return []Event{
		{Type: HistoryPrepended, GuildID: channel.GuildID, ChannelID: a.ChannelID, Payload: HistoryPayload{ChannelID: a.ChannelID, MessageIDs: added}},
		{Type: PaginationChanged, GuildID: channel.GuildID, ChannelID: a.ChannelID, Payload: paginationPayload(st, a.ChannelID)},
	}
}

func idsOf(messages []models.Message) []string {
	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}
	return ids
}

// EditMessage replaces the content of a message and stamps it as edited.
type EditMessage struct {
	MessageID string
	Content   string
	EditedAt  time.Time
}

func (a EditMessage) apply(st *state) []Event {
	msg, exists := st.messages[a.MessageID]
	if !exists {
		return nil
	}

	editedAt := a.EditedAt
	msg.Content = a.Content
	msg.EncryptedContent = a.Content
	msg.EditedAt = &editedAt
	st.messages[a.MessageID] = msg

	channel := st.channels[msg.ChannelID]
	return []Event{{Type: MessageModified, GuildID: channel.GuildID, ChannelID: msg.ChannelID, Payload: msg}}
}

type DeleteMessage struct {
	MessageID string
}

func (a DeleteMessage) apply(st *state) []Event {
	msg, exists := st.messages[a.MessageID]
	if !exists {
		return nil
	}

	delete(st.messages, a.MessageID)
	st.messageIDsByChannel[msg.ChannelID] = removeString(st.messageIDsByChannel[msg.ChannelID], a.MessageID)

	channel := st.channels[msg.ChannelID]
	return []Event{{Type: MessageDeleted, GuildID: channel.GuildID, ChannelID: msg.ChannelID, Payload: a.MessageID}}
}
