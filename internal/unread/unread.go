package unread

import (
	"chatapp-client/internal/models"
	"chatapp-client/internal/session"
	"chatapp-client/internal/store"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Tracker keeps the unread and mention counters in step with the messages that arrive
// and the channel the user is looking at.
type Tracker struct {
	store   *store.Store
	session session.Provider

	mutex            sync.Mutex
	viewingGuildID   string
	viewingChannelID string

	sugar *zap.SugaredLogger
}

func New(sugar *zap.SugaredLogger, st *store.Store, sess session.Provider) *Tracker {
	return &Tracker{
		store:   st,
		session: sess,
		sugar:   sugar,
	}
}

// Observe accounts for a message that arrived from someone else. Messages sent by the
// current user never count as unread.
func (t *Tracker) Observe(msg models.Message) {
	userID := t.session.UserID()
	if msg.SenderID == userID {
		return
	}

	channel, exists := t.store.Channel(msg.ChannelID)
	if !exists {
		return
	}

	t.mutex.Lock()
	viewing := t.viewingChannelID == msg.ChannelID
	t.mutex.Unlock()

	if viewing {
		t.store.Dispatch(store.MarkChannelRead{ChannelID: msg.ChannelID, MessageID: msg.ID})
		return
	}

	t.store.Dispatch(store.IncrementUnread{ChannelID: msg.ChannelID})

	user, _ := t.store.User(userID)
	if Mentions(msg.Content, userID, user.UserName) {
		t.sugar.Debugf("Message [%s] mentions user [%s]", msg.ID, userID)
		t.store.Dispatch(store.IncrementMention{GuildID: channel.GuildID})
	}
}

// Viewing marks the channel read up to its newest message and remembers it as the
// channel on screen. The guild mention counter is reset once none of its channels have
// unread messages left.
func (t *Tracker) Viewing(guildID string, channelID string) bool {
	channel, exists := t.store.Channel(channelID)
	if !exists || channel.GuildID != guildID {
		return false
	}

	t.mutex.Lock()
	t.viewingGuildID = guildID
	t.viewingChannelID = channelID
	t.mutex.Unlock()

	t.store.Dispatch(store.VisitChannel{GuildID: guildID, ChannelID: channelID})

	if latest, exists := t.store.LatestMessage(channelID); exists {
		t.store.Dispatch(store.MarkChannelRead{ChannelID: channelID, MessageID: latest.ID})
	}

	if !t.store.GuildHasUnread(guildID) {
		t.store.Dispatch(store.ResetGuildMentions{GuildID: guildID})
	}
	return true
}

// ViewingChannel returns the channel on screen, if any.
func (t *Tracker) ViewingChannel() (string, string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.viewingGuildID, t.viewingChannelID
}

// Listen feeds every new message of the store into Observe.
func (t *Tracker) Listen(event store.Event) {
	if event.Type != store.MessageCreated {
		return
	}
	msg, ok := event.Payload.(models.Message)
	if !ok {
		return
	}
	t.Observe(msg)
}

// Mentions reports whether content addresses the user as @username, <@userId> or
// through @everyone.
func Mentions(content string, userID string, userName string) bool {
	if strings.Contains(content, "@everyone") {
		return true
	}
	if userID != "" && strings.Contains(content, "<@"+userID+">") {
		return true
	}
	if userName == "" {
		return false
	}

	needle := "@" + userName
	for offset := 0; ; {
		i := strings.Index(content[offset:], needle)
		if i < 0 {
			return false
		}
		end := offset + i + len(needle)
		// @neo must not match inside @neon
		if end == len(content) || !isNameByte(content[end]) {
			return true
		}
		offset = end
	}
}

func isNameByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
