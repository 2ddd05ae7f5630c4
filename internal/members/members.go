package members

import (
	"chatapp-client/internal/models"
	"sort"
)

// FallbackPosition sorts the bucket of members without any known role last.
const FallbackPosition = -1

// FallbackRoleName labels the bucket of members without a role.
// TODO: the bucket also holds offline members, rename once there is product wording for
// members without a role.
const FallbackRoleName = "Online"

const fallbackRoleID = ""

type RoleGroup struct {
	Role    models.Role     `json:"role"`
	Members []models.Member `json:"members"`
}

// Count is what the list header shows next to the role name.
func (g RoleGroup) Count() int {
	return len(g.Members)
}

// GroupByRole buckets members by their highest positioned role. Within a bucket members
// that are online, idle or dnd come before offline ones, each part keeping the order of
// memberKeys. Buckets are sorted by role position, highest first.
func GroupByRole(memberKeys []models.MemberKey, membersByKey map[models.MemberKey]models.Member, rolesByID map[string]models.Role, presenceByUserID map[string]models.Status) []RoleGroup {
	type bucket struct {
		role    models.Role
		online  []models.Member
		offline []models.Member
	}

	buckets := make(map[string]*bucket)
	var order []string

	for _, key := range memberKeys {
		member, exists := membersByKey[key]
		if !exists {
			continue
		}

		role, found := HighestRole(member, rolesByID)
		if !found {
			role = models.Role{ID: fallbackRoleID, GuildID: member.GuildID, Name: FallbackRoleName, Position: FallbackPosition}
		}

		b, exists := buckets[role.ID]
		if !exists {
			b = &bucket{role: role}
			buckets[role.ID] = b
			order = append(order, role.ID)
		}

		if presenceByUserID[member.UserID].IsOnline() {
			b.online = append(b.online, member)
		} else {
			b.offline = append(b.offline, member)
		}
	}

	groups := make([]RoleGroup, 0, len(order))
	for _, roleID := range order {
		b := buckets[roleID]
		groupMembers := make([]models.Member, 0, len(b.online)+len(b.offline))
		groupMembers = append(groupMembers, b.online...)
		groupMembers = append(groupMembers, b.offline...)
		groups = append(groups, RoleGroup{Role: b.role, Members: groupMembers})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Role.Position > groups[j].Role.Position
	})

	return groups
}

// HighestRole resolves the member's roles and returns the one with the highest
// position. On equal positions the role listed first on the member wins.
func HighestRole(member models.Member, rolesByID map[string]models.Role) (models.Role, bool) {
	var best models.Role
	found := false

	for _, roleID := range member.Roles {
		role, exists := rolesByID[roleID]
		if !exists {
			continue
		}
		if !found || role.Position > best.Position {
			best = role
			found = true
		}
	}

	return best, found
}

// NameColor is the color of the member's highest role, empty when it has none.
func NameColor(member models.Member, rolesByID map[string]models.Role) string {
	role, found := HighestRole(member, rolesByID)
	if !found {
		return ""
	}
	return role.Color
}

// DisplayName prefers the guild nickname, then the user's display name, then the
// username.
func DisplayName(member models.Member, user models.User) string {
	switch {
	case member.Nickname != "":
		return member.Nickname
	case user.DisplayName != "":
		return user.DisplayName
	case user.UserName != "":
		return user.UserName
	default:
		return member.UserID
	}
}
