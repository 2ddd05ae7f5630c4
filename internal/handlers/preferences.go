package handlers

import (
	"chatapp-client/internal/models"
	"chatapp-client/internal/store"
	"net/http"
)

func (h *Handlers) GetUnread(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Store.Counters())
}

func (h *Handlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Store.Preferences())
}

// UpdatePreferences changes the display preferences. Visits are recorded through
// VisitChannel, never written here.
func (h *Handlers) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	type UpdatePreferences struct {
		Theme                 models.Theme `json:"theme" validate:"omitempty,oneof=dark light"`
		ChannelSidebarVisible *bool        `json:"channelSidebarVisible"`
		MemberListVisible     *bool        `json:"memberListVisible"`
	}

	var payload UpdatePreferences
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	// fields left out of the request keep their current value
	h.Store.Dispatch(store.PatchPreferences{
		Theme:                 payload.Theme,
		ChannelSidebarVisible: payload.ChannelSidebarVisible,
		MemberListVisible:     payload.MemberListVisible,
	})
	h.writeJSON(w, http.StatusOK, h.Store.Preferences())
}

func (h *Handlers) Resize(w http.ResponseWriter, r *http.Request) {
	type Resize struct {
		Width int `json:"width" validate:"gt=0"`
	}

	var payload Resize
	if !h.decodeRequest(w, r, &payload) {
		return
	}

	h.Collapser.Resize(payload.Width)
	w.WriteHeader(http.StatusAccepted)
}
