package source

import (
	"chatapp-client/internal/models"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var seedNames = []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi"}

var seedLines = []string{
	"hey everyone",
	"did anyone look at the build?",
	"lgtm",
	"pushing a fix in a minute",
	"lunch?",
	"the deploy is green again",
	"can someone review my change",
	"brb",
	"@%s can you take a look",
	"thanks!",
}

var seedStatuses = []models.Status{models.StatusOnline, models.StatusIdle, models.StatusDND, models.StatusOffline}

// MessagesPerChannel is how much backend history Seed generates for each text channel.
const MessagesPerChannel = 75

// Seed generates users, two guilds with channels, roles, members and presence, and
// fills the backend history of every text channel. The snapshot itself carries no
// messages; they are fetched page by page.
func (m *Mock) Seed(ctx context.Context) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	snapshot := models.Snapshot{Presence: make(map[string]models.Status)}

	self := models.User{ID: m.userID, UserName: "me", DisplayName: "Me"}
	snapshot.Users = append(snapshot.Users, self)
	snapshot.Presence[self.ID] = models.StatusOnline

	users := []models.User{self}
	for _, name := range seedNames {
		user := models.User{ID: uuid.NewString(), UserName: name, DisplayName: name}
		users = append(users, user)
		snapshot.Users = append(snapshot.Users, user)
		snapshot.Presence[user.ID] = seedStatuses[m.rng.IntN(len(seedStatuses))]
	}

	now := m.now().UTC()

	for g, guildName := range []string{"Gophers", "Side Project"} {
		guild := models.Guild{ID: uuid.NewString(), Name: guildName, OwnerID: self.ID}
		snapshot.Guilds = append(snapshot.Guilds, guild)

		admin := models.Role{ID: uuid.NewString(), GuildID: guild.ID, Name: "Admin", Color: "#e74c3c", Position: 2}
		moderator := models.Role{ID: uuid.NewString(), GuildID: guild.ID, Name: "Moderator", Color: "#3498db", Position: 1}
		member := models.Role{ID: uuid.NewString(), GuildID: guild.ID, Name: "Member", Color: "#95a5a6", Position: 0}
		snapshot.Roles = append(snapshot.Roles, admin, moderator, member)

		for i, user := range users {
			var roles []string
			switch {
			case user.ID == self.ID:
				roles = []string{admin.ID, member.ID}
			case i%4 == 1:
				roles = []string{moderator.ID}
			case i%4 == 3:
				// left without a role on purpose, lands in the fallback bucket
			default:
				roles = []string{member.ID}
			}
			snapshot.Members = append(snapshot.Members, models.Member{
				UserID:   user.ID,
				GuildID:  guild.ID,
				Roles:    roles,
				JoinedAt: now.Add(-time.Duration(30+i+g) * 24 * time.Hour),
			})
		}

		channelDefs := []struct {
			name        string
			channelType models.ChannelType
			category    string
		}{
			{"general", models.ChannelText, "Text Channels"},
			{"random", models.ChannelText, "Text Channels"},
			{"dev", models.ChannelText, "Work"},
			{"Lounge", models.ChannelVoice, "Voice Channels"},
		}
		for position, def := range channelDefs {
			channel := models.Channel{
				ID:          uuid.NewString(),
				GuildID:     guild.ID,
				Name:        def.name,
				ChannelType: def.channelType,
				Position:    position,
				Category:    def.category,
			}
			snapshot.Channels = append(snapshot.Channels, channel)

			if channel.ChannelType == models.ChannelText {
				m.history[channel.ID] = m.generateHistory(channel.ID, users, now)
			}
		}
	}

	return snapshot, nil
}

// generateHistory walks backwards from now in uneven steps so that the history spans
// several days and exercises both gap and date grouping.
func (m *Mock) generateHistory(channelID string, users []models.User, now time.Time) []models.Message {
	history := make([]models.Message, MessagesPerChannel)
	at := now.Add(-time.Minute)

	for i := MessagesPerChannel - 1; i >= 0; i-- {
		sender := users[m.rng.IntN(len(users))]
		line := seedLines[m.rng.IntN(len(seedLines))]
		if line == seedLines[8] {
			line = fmt.Sprintf(line, users[m.rng.IntN(len(users))].UserName)
		}

		history[i] = models.Message{
			ID:               uuid.NewString(),
			ChannelID:        channelID,
			SenderID:         sender.ID,
			Content:          line,
			EncryptedContent: line,
			Nonce:            uuid.NewString(),
			CreatedAt:        at,
			Attachments:      []models.Attachment{},
		}

		switch m.rng.IntN(10) {
		case 0:
			at = at.Add(-time.Duration(6+m.rng.IntN(600)) * time.Minute)
		case 1, 2:
			at = at.Add(-time.Duration(2+m.rng.IntN(4)) * time.Minute)
		default:
			at = at.Add(-time.Duration(5+m.rng.IntN(55)) * time.Second)
		}
	}

	return history
}

// Incoming makes up a message from one of senderIDs in one of channelIDs, as if another
// client had just sent it, and adds it to the backend history.
func (m *Mock) Incoming(channelIDs []string, senderIDs []string, mentionName string) (models.Message, bool) {
	if len(channelIDs) == 0 || len(senderIDs) == 0 {
		return models.Message{}, false
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	line := seedLines[m.rng.IntN(len(seedLines))]
	if line == seedLines[8] {
		line = fmt.Sprintf(line, mentionName)
	}

	msg := models.Message{
		ID:               uuid.NewString(),
		ChannelID:        channelIDs[m.rng.IntN(len(channelIDs))],
		SenderID:         senderIDs[m.rng.IntN(len(senderIDs))],
		Content:          line,
		EncryptedContent: line,
		Nonce:            uuid.NewString(),
		CreatedAt:        m.now().UTC(),
		Attachments:      []models.Attachment{},
	}
	m.history[msg.ChannelID] = append(m.history[msg.ChannelID], msg)

	return msg, true
}
