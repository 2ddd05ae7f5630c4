package handlers

import (
	"chatapp-client/internal/send"
	"chatapp-client/internal/store"
	"chatapp-client/internal/timeline"
	"errors"
	"net/http"
	"time"
)

type Timeline struct {
	Items   []timeline.Item `json:"items"`
	HasMore bool            `json:"hasMore"`
	Loading bool            `json:"loading"`
}

func (h *Handlers) GetTimeline(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelID")
	if _, exists := h.Store.Channel(channelID); !exists {
		http.Error(w, "Invalid channel ID", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, Timeline{
		Items:   timeline.Group(h.Store.Messages(channelID)),
		HasMore: h.Store.HasMore(channelID),
		Loading: h.Store.IsLoading(channelID),
	})
}

func (h *Handlers) CreateMessage(w http.ResponseWriter, r *http.Request) {
	type CreateMessage struct {
		ChannelID string `json:"channelId" validate:"required"`
		Content   string `json:"content" validate:"message"`
	}

	var payload CreateMessage
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	// the confirmation is only logged by the pipeline, the response doesn't wait for it
	msg, _, err := h.Send.SendMessage(r.Context(), payload.ChannelID, payload.Content)
	if err != nil {
		switch {
		case errors.Is(err, send.ErrUnknownChannel):
			http.Error(w, "Channel doesn't exist", http.StatusNotFound)
		case errors.Is(err, send.ErrEmptyContent), errors.Is(err, send.ErrContentTooLong):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, msg)
}

func (h *Handlers) EditMessage(w http.ResponseWriter, r *http.Request) {
	type EditMessage struct {
		MessageID string `json:"messageId" validate:"required"`
		Content   string `json:"content" validate:"message"`
	}

	var payload EditMessage
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	if !h.ownsMessage(w, r, payload.MessageID) {
		return
	}

	h.Store.Dispatch(store.EditMessage{MessageID: payload.MessageID, Content: payload.Content, EditedAt: time.Now().UTC()})

	edited, _ := h.Store.Message(payload.MessageID)
	h.writeJSON(w, http.StatusOK, edited)
}

func (h *Handlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	type DeleteMessage struct {
		MessageID string `json:"messageId" validate:"required"`
	}

	var payload DeleteMessage
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	if !h.ownsMessage(w, r, payload.MessageID) {
		return
	}

	h.Store.Dispatch(store.DeleteMessage{MessageID: payload.MessageID})
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) ownsMessage(w http.ResponseWriter, r *http.Request, messageID string) bool {
	msg, exists := h.Store.Message(messageID)
	if !exists {
		http.Error(w, "Message doesn't exist", http.StatusNotFound)
		return false
	}

	userID := userIDFrom(r)
	if msg.SenderID != userID {
		h.sugar.Warnf("User ID [%s] tried to change message [%s] of user ID [%s]", userID, msg.ID, msg.SenderID)
		http.Error(w, "", http.StatusForbidden)
		return false
	}
	return true
}

func (h *Handlers) LoadOlderMessages(w http.ResponseWriter, r *http.Request) {
	type LoadOlder struct {
		ChannelID string `json:"channelId" validate:"required"`
	}

	var payload LoadOlder
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	if _, exists := h.Store.Channel(payload.ChannelID); !exists {
		http.Error(w, "Channel doesn't exist", http.StatusNotFound)
		return
	}

	// a channel opened for the first time starts from its newest page
	load := h.Pagination.LoadOlder
	if len(h.Store.MessageIDs(payload.ChannelID)) == 0 {
		load = h.Pagination.LoadLatest
	}

	started, err := load(r.Context(), payload.ChannelID)
	if err != nil {
		h.sugar.Error(err)
		http.Error(w, "", http.StatusBadGateway)
		return
	}

	type Result struct {
		Started bool `json:"started"`
		HasMore bool `json:"hasMore"`
	}
	h.writeJSON(w, http.StatusOK, Result{Started: started, HasMore: h.Store.HasMore(payload.ChannelID)})
}
