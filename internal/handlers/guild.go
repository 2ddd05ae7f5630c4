package handlers

import (
	"chatapp-client/internal/models"
	"chatapp-client/internal/store"
	"net/http"

	"github.com/google/uuid"
)

type GuildListItem struct {
	models.Guild
	MentionCount int  `json:"mentionCount"`
	HasUnread    bool `json:"hasUnread"`
}

func (h *Handlers) GetGuildList(w http.ResponseWriter, r *http.Request) {
	guilds := h.Store.Guilds()

	items := make([]GuildListItem, 0, len(guilds))
	for _, guild := range guilds {
		items = append(items, GuildListItem{
			Guild:        guild,
			MentionCount: h.Store.MentionCount(guild.ID),
			HasUnread:    h.Store.GuildHasUnread(guild.ID),
		})
	}

	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) CreateGuild(w http.ResponseWriter, r *http.Request) {
	type CreateGuild struct {
		Name    string `json:"name" validate:"guildname"`
		IconURL string `json:"iconUrl" validate:"omitempty,url"`
	}

	var payload CreateGuild
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	guild := models.Guild{
		ID:      uuid.NewString(),
		Name:    payload.Name,
		OwnerID: userIDFrom(r),
		IconURL: payload.IconURL,
	}
	h.Store.Dispatch(store.CreateGuild{Guild: guild})

	h.sugar.Debugf("User ID [%s] created guild [%s]", guild.OwnerID, guild.ID)
	h.writeJSON(w, http.StatusCreated, guild)
}

func (h *Handlers) DeleteGuild(w http.ResponseWriter, r *http.Request) {
	type DeleteGuild struct {
		GuildID string `json:"guildId" validate:"required"`
	}

	var payload DeleteGuild
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	events := h.Store.Dispatch(store.DeleteGuild{GuildID: payload.GuildID})
	if len(events) == 0 {
		http.Error(w, "Guild doesn't exist", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) RenameGuild(w http.ResponseWriter, r *http.Request) {
	type RenameGuild struct {
		GuildID string `json:"guildId" validate:"required"`
		Name    string `json:"name" validate:"guildname"`
	}

	var payload RenameGuild
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	guild, exists := h.Store.Guild(payload.GuildID)
	if !exists {
		http.Error(w, "Guild doesn't exist", http.StatusNotFound)
		return
	}

	userID := userIDFrom(r)
	if guild.OwnerID != userID {
		h.sugar.Warnf("User ID [%s] tried to rename guild [%s] they don't own", userID, guild.ID)
		http.Error(w, "You don't own this guild", http.StatusForbidden)
		return
	}

	h.Store.Dispatch(store.UpdateGuild{GuildID: guild.ID, Name: payload.Name})

	renamed, _ := h.Store.Guild(guild.ID)
	h.writeJSON(w, http.StatusOK, renamed)
}
