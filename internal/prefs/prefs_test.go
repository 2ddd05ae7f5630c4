package prefs

import (
	"chatapp-client/internal/database"
	"chatapp-client/internal/keyValue"
	"chatapp-client/internal/models"
	"chatapp-client/internal/store"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*Persister, *store.Store) {
	t.Helper()

	sugar := zap.NewNop().Sugar()
	db, err := database.OpenSqlite(sugar, filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.New(sugar)
	st.Dispatch(store.CreateGuild{Guild: models.Guild{ID: "g1"}})
	st.Dispatch(store.CreateChannel{Channel: models.Channel{ID: "ch1", GuildID: "g1"}})

	return New(sugar, db, keyValue.NewLocal(sugar), st, "me"), st
}

func TestLoadDefaults(t *testing.T) {
	persister, st := setup(t)

	prefs, err := persister.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(), prefs)
	assert.Equal(t, models.ThemeDark, st.Preferences().Theme)
}

func TestSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	persister, st := setup(t)

	saved := models.Preferences{
		LastVisitedGuildID:        "g1",
		LastVisitedChannelByGuild: map[string]string{"g1": "ch1"},
		Theme:                     models.ThemeLight,
		ChannelSidebarVisible:     false,
		MemberListVisible:         true,
	}
	require.NoError(t, persister.Save(ctx, saved))
	require.NoError(t, persister.Save(ctx, saved), "saving twice replaces the row")

	t.Run("From cache", func(t *testing.T) {
		prefs, err := persister.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, saved, prefs)
	})

	t.Run("From database", func(t *testing.T) {
		require.NoError(t, persister.cache.Delete(ctx, cacheKey("me")))
		prefs, err := persister.read(ctx)
		require.NoError(t, err)
		assert.Equal(t, saved, prefs)

		cached, err := persister.cache.Get(ctx, cacheKey("me"))
		require.NoError(t, err)
		assert.NotEmpty(t, cached)
	})

	assert.Equal(t, models.ThemeLight, st.Preferences().Theme)
}

func TestRunSavesChanges(t *testing.T) {
	persister, st := setup(t)
	st.Subscribe(persister.Listen)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- persister.Run(ctx)
	}()

	st.Dispatch(store.VisitChannel{GuildID: "g1", ChannelID: "ch1"})
	cancel()
	require.NoError(t, <-done)

	require.NoError(t, persister.cache.Delete(context.Background(), cacheKey("me")))
	prefs, err := persister.read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "g1", prefs.LastVisitedGuildID)
	assert.Equal(t, "ch1", prefs.LastVisitedChannelByGuild["g1"])
}

func TestListenIgnoresOtherEvents(t *testing.T) {
	persister, _ := setup(t)

	persister.Listen(store.Event{Type: store.GuildCreated})
	select {
	case <-persister.wake:
		t.Fatal("unexpected save")
	case <-time.After(10 * time.Millisecond):
	}
	assert.False(t, persister.dirty)
}

func TestLateEventSavesCurrentPreferences(t *testing.T) {
	ctx := context.Background()
	persister, st := setup(t)

	st.Dispatch(store.PatchPreferences{Theme: models.ThemeLight})
	stale := st.Preferences()
	st.Dispatch(store.PatchPreferences{Theme: models.ThemeDark})

	// the change to light is delivered after the change to dark
	persister.Listen(store.Event{Type: store.PreferencesChanged})
	persister.Listen(store.Event{Type: store.PreferencesChanged, Payload: stale})
	require.NoError(t, persister.flush(ctx))

	require.NoError(t, persister.cache.Delete(ctx, cacheKey("me")))
	prefs, err := persister.read(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, prefs.Theme)
	assert.Equal(t, models.ThemeDark, st.Preferences().Theme)
}
