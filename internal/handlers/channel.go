package handlers

import (
	"chatapp-client/internal/models"
	"chatapp-client/internal/store"
	"net/http"

	"github.com/google/uuid"
)

type ChannelListItem struct {
	models.Channel
	UnreadCount int `json:"unreadCount"`
}

func (h *Handlers) GetChannelList(w http.ResponseWriter, r *http.Request) {
	guildID := r.URL.Query().Get("guildID")
	if _, exists := h.Store.Guild(guildID); !exists {
		http.Error(w, "Invalid guild ID", http.StatusNotFound)
		return
	}

	channels := h.Store.Channels(guildID)
	items := make([]ChannelListItem, 0, len(channels))
	for _, channel := range channels {
		items = append(items, ChannelListItem{Channel: channel, UnreadCount: h.Store.UnreadCount(channel.ID)})
	}

	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) CreateChannel(w http.ResponseWriter, r *http.Request) {
	type CreateChannel struct {
		GuildID     string             `json:"guildId" validate:"required"`
		Name        string             `json:"name" validate:"channelname"`
		ChannelType models.ChannelType `json:"channelType" validate:"omitempty,oneof=text voice"`
		Category    string             `json:"category" validate:"max=32"`
	}

	var payload CreateChannel
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	guild, exists := h.Store.Guild(payload.GuildID)
	if !exists {
		http.Error(w, "Invalid guild ID", http.StatusNotFound)
		return
	}

	userID := userIDFrom(r)
	if guild.OwnerID != userID {
		h.sugar.Warnf("User ID [%s] tried to create a channel in guild [%s] they don't own", userID, guild.ID)
		http.Error(w, "You don't own this guild", http.StatusForbidden)
		return
	}

	channel := models.Channel{
		ID:          uuid.NewString(),
		GuildID:     guild.ID,
		Name:        payload.Name,
		ChannelType: payload.ChannelType,
		Position:    len(h.Store.Channels(guild.ID)),
		Category:    payload.Category,
	}
	h.Store.Dispatch(store.CreateChannel{Channel: channel})

	created, _ := h.Store.Channel(channel.ID)
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	type DeleteChannel struct {
		ChannelID string `json:"channelId" validate:"required"`
	}

	var payload DeleteChannel
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	channel, exists := h.Store.Channel(payload.ChannelID)
	if !exists {
		http.Error(w, "Channel doesn't exist", http.StatusNotFound)
		return
	}

	guild, _ := h.Store.Guild(channel.GuildID)
	if guild.OwnerID != userIDFrom(r) {
		http.Error(w, "You don't own this guild", http.StatusForbidden)
		return
	}

	h.Store.Dispatch(store.DeleteChannel{ChannelID: channel.ID})
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) RenameChannel(w http.ResponseWriter, r *http.Request) {
	type RenameChannel struct {
		ChannelID string `json:"channelId" validate:"required"`
		Name      string `json:"name" validate:"channelname"`
	}

	var payload RenameChannel
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	channel, exists := h.Store.Channel(payload.ChannelID)
	if !exists {
		http.Error(w, "Channel doesn't exist", http.StatusNotFound)
		return
	}

	guild, _ := h.Store.Guild(channel.GuildID)
	if guild.OwnerID != userIDFrom(r) {
		http.Error(w, "You don't own this guild", http.StatusForbidden)
		return
	}

	h.Store.Dispatch(store.UpdateChannel{ChannelID: channel.ID, Name: payload.Name})

	renamed, _ := h.Store.Channel(channel.ID)
	h.writeJSON(w, http.StatusOK, renamed)
}

// MarkChannelRead marks the channel read up to the given message, or its newest one.
func (h *Handlers) MarkChannelRead(w http.ResponseWriter, r *http.Request) {
	type MarkRead struct {
		ChannelID string `json:"channelId" validate:"required"`
		MessageID string `json:"messageId"`
	}

	var payload MarkRead
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	if _, exists := h.Store.Channel(payload.ChannelID); !exists {
		http.Error(w, "Channel doesn't exist", http.StatusNotFound)
		return
	}

	messageID := payload.MessageID
	if messageID == "" {
		latest, exists := h.Store.LatestMessage(payload.ChannelID)
		if !exists {
			w.WriteHeader(http.StatusOK)
			return
		}
		messageID = latest.ID
	}

	h.Store.Dispatch(store.MarkChannelRead{ChannelID: payload.ChannelID, MessageID: messageID})
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) VisitChannel(w http.ResponseWriter, r *http.Request) {
	type Visit struct {
		GuildID   string `json:"guildId" validate:"required"`
		ChannelID string `json:"channelId" validate:"required"`
	}

	var payload Visit
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	if !h.Unread.Viewing(payload.GuildID, payload.ChannelID) {
		http.Error(w, "Channel doesn't exist in guild", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
}
