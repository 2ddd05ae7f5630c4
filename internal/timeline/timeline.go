package timeline

import (
	"chatapp-client/internal/models"
	"time"
)

// GroupGap is the longest pause between two messages of one sender that still keeps
// them in the same group.
const GroupGap = 5 * time.Minute

const dateLayout = "2006-01-02"

type ItemKind string

const (
	KindDate  ItemKind = "date"
	KindGroup ItemKind = "group"
)

// Item is either a date separator or a run of messages from one sender.
type Item struct {
	Kind     ItemKind         `json:"kind"`
	Date     string           `json:"date,omitempty"`
	SenderID string           `json:"senderId,omitempty"`
	Messages []models.Message `json:"messages,omitempty"`
}

// Group turns an ascending list of messages into date separators and sender groups.
// Concatenating the messages of every group yields the input unchanged.
func Group(messages []models.Message) []Item {
	var items []Item
	var current *Item
	var lastDate string

	flush := func() {
		if current != nil {
			items = append(items, *current)
			current = nil
		}
	}

	for i, msg := range messages {
		date := msg.CreatedAt.UTC().Format(dateLayout)
		if i == 0 || date != lastDate {
			flush()
			items = append(items, Item{Kind: KindDate, Date: date})
			lastDate = date
		}

		if current != nil {
			last := current.Messages[len(current.Messages)-1]
			if current.SenderID != msg.SenderID || msg.CreatedAt.Sub(last.CreatedAt) >= GroupGap {
				flush()
			}
		}

		if current == nil {
			current = &Item{Kind: KindGroup, SenderID: msg.SenderID}
		}
		current.Messages = append(current.Messages, msg)
	}
	flush()

	return items
}
