package handlers

import (
	"chatapp-client/internal/debounce"
	"chatapp-client/internal/hub"
	"chatapp-client/internal/models"
	"chatapp-client/internal/pagination"
	"chatapp-client/internal/send"
	"chatapp-client/internal/session"
	"chatapp-client/internal/snowflake"
	"chatapp-client/internal/source"
	"chatapp-client/internal/store"
	"chatapp-client/internal/unread"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const historySize = 30

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestHandlers(t *testing.T, signer *session.Signer) *Handlers {
	t.Helper()

	sugar := zap.NewNop().Sugar()
	sess := session.Static("me")

	st := store.New(sugar)
	st.Dispatch(store.Load{Snapshot: models.Snapshot{
		Users: []models.User{
			{ID: "me", UserName: "me", DisplayName: "Me"},
			{ID: "u2", UserName: "neo", DisplayName: "Neo"},
		},
		Guilds: []models.Guild{
			{ID: "g1", Name: "Mine", OwnerID: "me"},
			{ID: "g2", Name: "Theirs", OwnerID: "u2"},
		},
		Channels: []models.Channel{
			{ID: "ch1", GuildID: "g1", Name: "general", ChannelType: models.ChannelText},
			{ID: "ch2", GuildID: "g2", Name: "general", ChannelType: models.ChannelText},
		},
		Roles: []models.Role{
			{ID: "admin", GuildID: "g1", Name: "Admin", Position: 1, Color: "#ff0000"},
		},
		Members: []models.Member{
			{UserID: "me", GuildID: "g1", Roles: []string{"admin"}},
			{UserID: "u2", GuildID: "g1"},
		},
		Presence: map[string]models.Status{"me": models.StatusOnline, "u2": models.StatusOffline},
	}})

	mock := source.NewMock(sugar, "me", source.WithLatency(0, 0), source.WithFailureRate(0))
	for i := range historySize {
		mock.AddHistory(models.Message{
			ID:        fmt.Sprintf("h%02d", i),
			ChannelID: "ch1",
			SenderID:  "u2",
			Content:   "old news",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	generator, err := snowflake.New(0)
	require.NoError(t, err)

	collapser := debounce.NewSidebarCollapser(sugar, st, 10*time.Millisecond)
	t.Cleanup(collapser.Stop)

	pipeline := send.New(sugar, st, mock, sess)
	t.Cleanup(pipeline.Wait)

	return New(sugar, Deps{
		Store:      st,
		Pagination: pagination.New(sugar, st, mock),
		Send:       pipeline,
		Unread:     unread.New(sugar, st, sess),
		Collapser:  collapser,
		Hub:        hub.New(sugar, generator, nil),
		Signer:     signer,
		UserID:     "me",
	})
}

func do(t *testing.T, handler http.Handler, method string, target string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateGuild(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantErrors map[string]string
	}{
		{"Valid", `{"name":"Gophers"}`, http.StatusCreated, nil},
		{"Empty name", `{"name":"   "}`, http.StatusBadRequest, map[string]string{"Name": "guildname"}},
		{"Bad icon", `{"name":"Gophers","iconUrl":"not a url"}`, http.StatusBadRequest, map[string]string{"IconURL": "url"}},
		{"Not json", `{"name":`, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(t, nil)
			rec := do(t, h.Router(false), http.MethodPost, "/api/guild/create", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantErrors != nil {
				var fieldErrors map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fieldErrors))
				assert.Equal(t, tt.wantErrors, fieldErrors)
			}

			if tt.wantStatus == http.StatusCreated {
				var guild models.Guild
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &guild))
				assert.Equal(t, "me", guild.OwnerID)
				_, exists := h.Store.Guild(guild.ID)
				assert.True(t, exists)
			}
		})
	}
}

func TestCreateChannel(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"Valid", `{"guildId":"g1","name":"dev-talk","channelType":"text"}`, http.StatusCreated},
		{"Bad name", `{"guildId":"g1","name":"Dev Talk"}`, http.StatusBadRequest},
		{"Bad type", `{"guildId":"g1","name":"dev","channelType":"video"}`, http.StatusBadRequest},
		{"Unknown guild", `{"guildId":"nope","name":"dev"}`, http.StatusNotFound},
		{"Not the owner", `{"guildId":"g2","name":"dev"}`, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(t, nil)
			rec := do(t, h.Router(false), http.MethodPost, "/api/channel/create", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestDeleteGuild(t *testing.T) {
	h := newTestHandlers(t, nil)
	router := h.Router(false)

	rec := do(t, router, http.MethodPost, "/api/guild/delete", `{"guildId":"g1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	_, exists := h.Store.Channel("ch1")
	assert.False(t, exists)

	rec = do(t, router, http.MethodPost, "/api/guild/delete", `{"guildId":"g1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenameGuild(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"Valid", `{"guildId":"g1","name":"Renamed"}`, http.StatusOK},
		{"Empty name", `{"guildId":"g1","name":" "}`, http.StatusBadRequest},
		{"Unknown guild", `{"guildId":"nope","name":"Renamed"}`, http.StatusNotFound},
		{"Not the owner", `{"guildId":"g2","name":"Renamed"}`, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(t, nil)
			h.Store.Dispatch(store.UpdateGuild{GuildID: "g1", IconURL: ptr("https://example.com/g1.png")})

			rec := do(t, h.Router(false), http.MethodPost, "/api/guild/rename", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			guild, _ := h.Store.Guild("g1")
			assert.Equal(t, "https://example.com/g1.png", guild.IconURL, "renaming keeps the icon")
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "Renamed", guild.Name)
			} else {
				assert.Equal(t, "Mine", guild.Name)
			}
		})
	}
}

func TestRenameChannel(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"Valid", `{"channelId":"ch1","name":"lobby"}`, http.StatusOK},
		{"Bad name", `{"channelId":"ch1","name":"The Lobby"}`, http.StatusBadRequest},
		{"Unknown channel", `{"channelId":"nope","name":"lobby"}`, http.StatusNotFound},
		{"Not the owner", `{"channelId":"ch2","name":"lobby"}`, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(t, nil)
			h.Store.Dispatch(store.UpdateChannel{ChannelID: "ch1", Position: ptr(3), Category: ptr("Text")})

			rec := do(t, h.Router(false), http.MethodPost, "/api/channel/rename", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			channel, _ := h.Store.Channel("ch1")
			assert.Equal(t, 3, channel.Position)
			assert.Equal(t, "Text", channel.Category)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "lobby", channel.Name)
			} else {
				assert.Equal(t, "general", channel.Name)
			}
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestTimelineAndLoadOlder(t *testing.T) {
	h := newTestHandlers(t, nil)
	router := h.Router(false)

	type loadResult struct {
		Started bool `json:"started"`
		HasMore bool `json:"hasMore"`
	}

	rec := do(t, router, http.MethodGet, "/api/timeline?channelID=ch1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var timeline Timeline
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &timeline))
	assert.Empty(t, timeline.Items)
	assert.True(t, timeline.HasMore, "unknown pagination state reads as more to load")

	wantHasMore := []bool{true, false}
	for _, want := range wantHasMore {
		rec = do(t, router, http.MethodPost, "/api/message/loadOlder", `{"channelId":"ch1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		var result loadResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.Started)
		assert.Equal(t, want, result.HasMore)
	}

	assert.Len(t, h.Store.Messages("ch1"), historySize)

	rec = do(t, router, http.MethodGet, "/api/timeline?channelID=ch1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &timeline))
	require.NotEmpty(t, timeline.Items)
	assert.Equal(t, "date", string(timeline.Items[0].Kind))
	assert.False(t, timeline.HasMore)
	assert.False(t, timeline.Loading)

	rec = do(t, router, http.MethodGet, "/api/timeline?channelID=nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoadOlderEmptyChannel(t *testing.T) {
	h := newTestHandlers(t, nil)
	router := h.Router(false)

	type loadResult struct {
		Started bool `json:"started"`
		HasMore bool `json:"hasMore"`
	}

	// ch2 has no history at all
	wantStarted := []bool{true, false, false}
	for _, want := range wantStarted {
		rec := do(t, router, http.MethodPost, "/api/message/loadOlder", `{"channelId":"ch2"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		var result loadResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, want, result.Started, "an exhausted channel isn't fetched again")
		assert.False(t, result.HasMore)
	}

	assert.Empty(t, h.Store.Messages("ch2"))
	assert.False(t, h.Store.IsLoading("ch2"))
}

func TestCreateMessage(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"Valid", `{"channelId":"ch1","content":"hello"}`, http.StatusCreated},
		{"Blank", `{"channelId":"ch1","content":"   "}`, http.StatusBadRequest},
		{"Too long", fmt.Sprintf(`{"channelId":"ch1","content":"%s"}`, strings.Repeat("a", send.MaxContentLength+1)), http.StatusBadRequest},
		{"Unknown channel", `{"channelId":"nope","content":"hello"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(t, nil)
			rec := do(t, h.Router(false), http.MethodPost, "/api/message/create", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus != http.StatusCreated {
				return
			}
			var msg models.Message
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
			assert.Equal(t, "me", msg.SenderID)
			assert.NotEmpty(t, msg.Nonce)

			stored, exists := h.Store.Message(msg.ID)
			require.True(t, exists, "the message is visible before the source answers")
			assert.Equal(t, "hello", stored.Content)
		})
	}
}

func TestEditAndDeleteMessage(t *testing.T) {
	h := newTestHandlers(t, nil)
	router := h.Router(false)

	h.Store.Dispatch(store.UpsertMessages{Messages: []models.Message{
		{ID: "mine", ChannelID: "ch1", SenderID: "me", Content: "typo", CreatedAt: base},
		{ID: "theirs", ChannelID: "ch1", SenderID: "u2", Content: "hi", CreatedAt: base.Add(time.Minute)},
	}})

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
	}{
		{"Edit own", "/api/message/edit", `{"messageId":"mine","content":"fixed"}`, http.StatusOK},
		{"Edit someone else's", "/api/message/edit", `{"messageId":"theirs","content":"mine now"}`, http.StatusForbidden},
		{"Edit to blank", "/api/message/edit", `{"messageId":"mine","content":""}`, http.StatusBadRequest},
		{"Edit unknown", "/api/message/edit", `{"messageId":"nope","content":"x"}`, http.StatusNotFound},
		{"Delete someone else's", "/api/message/delete", `{"messageId":"theirs"}`, http.StatusForbidden},
		{"Delete own", "/api/message/delete", `{"messageId":"mine"}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	_, exists := h.Store.Message("mine")
	assert.False(t, exists)
	theirs, _ := h.Store.Message("theirs")
	assert.Equal(t, "hi", theirs.Content)
}

func TestGetMemberList(t *testing.T) {
	h := newTestHandlers(t, nil)

	rec := do(t, h.Router(false), http.MethodGet, "/api/members?guildID=g1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var groups []MemberListGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups, 2)

	assert.Equal(t, "Admin", groups[0].Role.Name)
	require.Len(t, groups[0].Members, 1)
	assert.Equal(t, "Me", groups[0].Members[0].DisplayName)
	assert.Equal(t, "#ff0000", groups[0].Members[0].Color)

	assert.Equal(t, 1, groups[1].Count)
	assert.Equal(t, models.StatusOffline, groups[1].Members[0].Status)

	rec = do(t, h.Router(false), http.MethodGet, "/api/members?guildID=nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVisitAndUnread(t *testing.T) {
	h := newTestHandlers(t, nil)
	router := h.Router(false)

	h.Store.Dispatch(store.UpsertMessages{Messages: []models.Message{
		{ID: "m1", ChannelID: "ch1", SenderID: "u2", Content: "hey @me", CreatedAt: base},
	}})
	h.Unread.Observe(models.Message{ID: "m1", ChannelID: "ch1", SenderID: "u2", Content: "hey @me", CreatedAt: base})
	require.Equal(t, 1, h.Store.UnreadCount("ch1"))
	require.Equal(t, 1, h.Store.MentionCount("g1"))

	rec := do(t, router, http.MethodPost, "/api/channel/visit", `{"guildId":"g1","channelId":"ch1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/unread", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var counters store.Counters
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counters))
	assert.Zero(t, counters.UnreadCountByChannel["ch1"])
	assert.Zero(t, counters.MentionCountByGuild["g1"])
	assert.Equal(t, "m1", counters.LastReadByChannel["ch1"])

	assert.Equal(t, "g1", h.Store.Preferences().LastVisitedGuildID)

	rec = do(t, router, http.MethodPost, "/api/channel/visit", `{"guildId":"g2","channelId":"ch1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdatePreferences(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		check      func(t *testing.T, prefs models.Preferences)
	}{
		{
			name:       "Theme only",
			body:       `{"theme":"light"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, prefs models.Preferences) {
				assert.Equal(t, models.ThemeLight, prefs.Theme)
				assert.True(t, prefs.ChannelSidebarVisible, "left out fields keep their value")
				assert.True(t, prefs.MemberListVisible)
			},
		},
		{
			name:       "Hide member list",
			body:       `{"memberListVisible":false}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, prefs models.Preferences) {
				assert.False(t, prefs.MemberListVisible)
				assert.Equal(t, models.ThemeDark, prefs.Theme)
			},
		},
		{
			name:       "Visits can't be written directly",
			body:       `{"theme":"light","lastVisitedGuildId":"g1","lastVisitedChannelByGuild":{"g1":"nope"}}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, prefs models.Preferences) {
				assert.Equal(t, models.ThemeLight, prefs.Theme)
				assert.Empty(t, prefs.LastVisitedGuildID)
				assert.Empty(t, prefs.LastVisitedChannelByGuild)
			},
		},
		{
			name:       "Unknown theme",
			body:       `{"theme":"sepia"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(t, nil)
			rec := do(t, h.Router(false), http.MethodPost, "/api/preferences", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.check != nil {
				var prefs models.Preferences
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prefs))
				tt.check(t, prefs)
				tt.check(t, h.Store.Preferences())
			}
		})
	}
}

func TestResize(t *testing.T) {
	h := newTestHandlers(t, nil)
	router := h.Router(false)

	rec := do(t, router, http.MethodPost, "/api/layout/resize", `{"width":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/layout/resize", `{"width":500}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	assert.Eventually(t, func() bool {
		return !h.Store.Preferences().ChannelSidebarVisible
	}, time.Second, 5*time.Millisecond)
}

func TestUserVerifier(t *testing.T) {
	signer := session.NewSigner("secret")
	mine, _, err := signer.CreateToken(false, "me")
	require.NoError(t, err)
	theirs, _, err := signer.CreateToken(false, "u2")
	require.NoError(t, err)
	forged, _, err := session.NewSigner("other secret").CreateToken(false, "me")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
	}{
		{"No token", "", "", http.StatusUnauthorized},
		{"Bearer token", "Bearer " + mine, "", http.StatusOK},
		{"Cookie", "", mine, http.StatusOK},
		{"Wrong secret", "Bearer " + forged, "", http.StatusUnauthorized},
		{"Someone else", "", theirs, http.StatusForbidden},
	}

	h := newTestHandlers(t, signer)
	router := h.Router(false)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/isLoggedIn", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "JWT", Value: tt.cookie})
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
