package store

import "chatapp-client/internal/models"

type UpsertUser struct {
	User models.User
}

func (a UpsertUser) apply(st *state) []Event {
	if a.User.ID == "" {
		return nil
	}
	st.users[a.User.ID] = a.User
	return []Event{{Type: UserModified, Payload: a.User}}
}

// UpsertMember adds or replaces the member record of a user in a guild.
type UpsertMember struct {
	Member models.Member
}

func (a UpsertMember) apply(st *state) []Event {
	if !upsertMember(st, a.Member) {
		return nil
	}
	return []Event{{Type: MemberModified, GuildID: a.Member.GuildID, Payload: a.Member}}
}

func upsertMember(st *state, member models.Member) bool {
	if member.UserID == "" {
		return false
	}
	if _, exists := st.guilds[member.GuildID]; !exists {
		return false
	}

	key := member.Key()
	if _, exists := st.members[key]; !exists {
		st.memberKeysByGuild[member.GuildID] = append(st.memberKeysByGuild[member.GuildID], key)
	}
	member.Roles = append([]string(nil), member.Roles...)
	st.members[key] = member
	return true
}

type RemoveMember struct {
	Key models.MemberKey
}

func (a RemoveMember) apply(st *state) []Event {
	if _, exists := st.members[a.Key]; !exists {
		return nil
	}

	delete(st.members, a.Key)
	keys := st.memberKeysByGuild[a.Key.GuildID]
	for i := range keys {
		if keys[i] == a.Key {
			st.memberKeysByGuild[a.Key.GuildID] = append(keys[:i:i], keys[i+1:]...)
			break
		}
	}

	return []Event{{Type: MemberRemoved, GuildID: a.Key.GuildID, Payload: a.Key}}
}

type UpsertRole struct {
	Role models.Role
}

func (a UpsertRole) apply(st *state) []Event {
	if !upsertRole(st, a.Role) {
		return nil
	}
	return []Event{{Type: RoleModified, GuildID: a.Role.GuildID, Payload: a.Role}}
}

func upsertRole(st *state, role models.Role) bool {
	if role.ID == "" {
		return false
	}
	if _, exists := st.guilds[role.GuildID]; !exists {
		return false
	}

	if _, exists := st.roles[role.ID]; !exists {
		st.roleIDsByGuild[role.GuildID] = append(st.roleIDsByGuild[role.GuildID], role.ID)
	}
	st.roles[role.ID] = role
	return true
}

// DeleteRole removes the role and strips it from every member that carried it.
type DeleteRole struct {
	RoleID string
}

func (a DeleteRole) apply(st *state) []Event {
	role, exists := st.roles[a.RoleID]
	if !exists {
		return nil
	}

	delete(st.roles, a.RoleID)
	st.roleIDsByGuild[role.GuildID] = removeString(st.roleIDsByGuild[role.GuildID], a.RoleID)

	events := []Event{{Type: RoleDeleted, GuildID: role.GuildID, Payload: a.RoleID}}
	for _, key := range st.memberKeysByGuild[role.GuildID] {
		member := st.members[key]
		if !containsString(member.Roles, a.RoleID) {
			continue
		}
		member.Roles = removeString(member.Roles, a.RoleID)
		st.members[key] = member
		events = append(events, Event{Type: MemberModified, GuildID: role.GuildID, Payload: member})
	}

	return events
}

type SetPresence struct {
	UserID string
	Status models.Status
}

func (a SetPresence) apply(st *state) []Event {
	if a.UserID == "" {
		return nil
	}

	status := a.Status
	if status == "" {
		status = models.StatusOffline
	}
	if current, exists := st.presence[a.UserID]; exists && current == status {
		return nil
	}

	st.presence[a.UserID] = status
	return []Event{{Type: PresenceChanged, Payload: a}}
}
