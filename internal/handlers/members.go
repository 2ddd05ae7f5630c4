package handlers

import (
	"chatapp-client/internal/members"
	"chatapp-client/internal/models"
	"net/http"
)

type MemberListEntry struct {
	UserID      string        `json:"userId"`
	DisplayName string        `json:"displayName"`
	AvatarURL   string        `json:"avatarUrl,omitempty"`
	Color       string        `json:"color,omitempty"`
	Status      models.Status `json:"status"`
}

type MemberListGroup struct {
	Role    models.Role       `json:"role"`
	Count   int               `json:"count"`
	Members []MemberListEntry `json:"members"`
}

func (h *Handlers) GetMemberList(w http.ResponseWriter, r *http.Request) {
	guildID := r.URL.Query().Get("guildID")
	if _, exists := h.Store.Guild(guildID); !exists {
		http.Error(w, "Invalid guild ID", http.StatusNotFound)
		return
	}

	dir := h.Store.Directory(guildID)
	groups := members.GroupByRole(dir.Keys, dir.Members, dir.Roles, dir.Presence)

	response := make([]MemberListGroup, 0, len(groups))
	for _, group := range groups {
		entries := make([]MemberListEntry, 0, len(group.Members))
		for _, member := range group.Members {
			user := dir.Users[member.UserID]
			status, exists := dir.Presence[member.UserID]
			if !exists {
				status = models.StatusOffline
			}

			entries = append(entries, MemberListEntry{
				UserID:      member.UserID,
				DisplayName: members.DisplayName(member, user),
				AvatarURL:   user.AvatarURL,
				Color:       members.NameColor(member, dir.Roles),
				Status:      status,
			})
		}

		response = append(response, MemberListGroup{Role: group.Role, Count: group.Count(), Members: entries})
	}

	h.writeJSON(w, http.StatusOK, response)
}
