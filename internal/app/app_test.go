package app

import (
	"chatapp-client/internal/config"
	"chatapp-client/internal/database"
	"chatapp-client/internal/models"
	"chatapp-client/internal/pagination"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() models.ConfigFile {
	return models.ConfigFile{
		Port:          "3000",
		SelfContained: true,
		MessageSource: config.SourceMock,
		UserID:        "me",
	}
}

func newApp(t *testing.T, cfg models.ConfigFile) *App {
	t.Helper()

	sugar := zap.NewNop().Sugar()
	db, err := database.OpenSqlite(sugar, filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a, err := New(sugar, cfg, db, nil)
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *models.ConfigFile)
		wantErr bool
	}{
		{"Self contained mock", func(cfg *models.ConfigFile) {}, false},
		{"Shared without redis", func(cfg *models.ConfigFile) { cfg.SelfContained = false }, true},
		{"Redis source without redis", func(cfg *models.ConfigFile) { cfg.MessageSource = config.SourceRedis }, true},
		{"Unknown source", func(cfg *models.ConfigFile) { cfg.MessageSource = "carrier pigeon" }, true},
		{"Worker ID out of range", func(cfg *models.ConfigFile) { cfg.SnowflakeWorkerID = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)

			_, err := New(zap.NewNop().Sugar(), cfg, nil, nil)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBootstrap(t *testing.T) {
	a := newApp(t, testConfig())
	require.NoError(t, a.Bootstrap(context.Background()))

	guilds := a.Store.Guilds()
	require.Len(t, guilds, 2)

	channelIDs := a.textChannelIDs()
	require.NotEmpty(t, channelIDs)
	for _, channelID := range channelIDs {
		assert.Len(t, a.Store.Messages(channelID), pagination.PageSize, channelID)
		assert.True(t, a.Store.HasMore(channelID), channelID)
		assert.False(t, a.Store.IsLoading(channelID), channelID)
		assert.Zero(t, a.Store.UnreadCount(channelID), "history is not unread")
	}

	guildID, channelID := a.Unread.ViewingChannel()
	assert.Equal(t, guilds[0].ID, guildID)
	channel, exists := a.Store.Channel(channelID)
	require.True(t, exists)
	assert.Equal(t, models.ChannelText, channel.ChannelType)
	assert.Equal(t, guildID, channel.GuildID)

	prefs := a.Store.Preferences()
	assert.Equal(t, guildID, prefs.LastVisitedGuildID)
	assert.Equal(t, channelID, prefs.LastVisitedChannelByGuild[guildID])

	latest, exists := a.Store.LatestMessage(channelID)
	require.True(t, exists)
	lastRead, _ := a.Store.LastRead(channelID)
	assert.Equal(t, latest.ID, lastRead)
}

func TestInitialView(t *testing.T) {
	a := newApp(t, testConfig())
	require.NoError(t, a.Bootstrap(context.Background()))

	second := a.Store.Guilds()[1]
	var last models.Channel
	for _, channel := range a.Store.Channels(second.ID) {
		if channel.ChannelType == models.ChannelText {
			last = channel
		}
	}
	require.NotEmpty(t, last.ID)

	require.True(t, a.Unread.Viewing(second.ID, last.ID))

	guildID, channelID, ok := a.initialView()
	require.True(t, ok)
	assert.Equal(t, second.ID, guildID)
	assert.Equal(t, last.ID, channelID)
}

func TestIncoming(t *testing.T) {
	a := newApp(t, testConfig())
	require.NoError(t, a.Bootstrap(context.Background()))

	_, viewedChannelID := a.Unread.ViewingChannel()

	outside := 0
	for range 30 {
		msg, ok := a.Incoming()
		require.True(t, ok)
		assert.NotEqual(t, "me", msg.SenderID)

		stored, exists := a.Store.Message(msg.ID)
		require.True(t, exists)
		assert.Equal(t, msg.Content, stored.Content)
		assert.Equal(t, models.StatusOnline, a.Store.Presence(msg.SenderID), "senders show up online")

		if msg.ChannelID != viewedChannelID {
			outside++
		}
	}

	total := 0
	for _, count := range a.Store.Counters().UnreadCountByChannel {
		total += count
	}
	assert.Equal(t, outside, total)
	assert.Zero(t, a.Store.UnreadCount(viewedChannelID))
}

func TestRun(t *testing.T) {
	cfg := testConfig()
	cfg.MockIncomingIntervalMs = 5
	a := newApp(t, cfg)
	require.NoError(t, a.Bootstrap(context.Background()))

	before := 0
	for _, channelID := range a.textChannelIDs() {
		before += len(a.Store.Messages(channelID))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	assert.Eventually(t, func() bool {
		after := 0
		for _, channelID := range a.textChannelIDs() {
			after += len(a.Store.Messages(channelID))
		}
		return after > before
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run didn't return after cancel")
	}
}
