package members_test

import (
	"chatapp-client/internal/members"
	"chatapp-client/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	keys     []models.MemberKey
	members  map[models.MemberKey]models.Member
	roles    map[string]models.Role
	presence map[string]models.Status
}

func newFixture(roles ...models.Role) *fixture {
	f := &fixture{
		members:  make(map[models.MemberKey]models.Member),
		roles:    make(map[string]models.Role),
		presence: make(map[string]models.Status),
	}
	for _, role := range roles {
		f.roles[role.ID] = role
	}
	return f
}

func (f *fixture) add(userID string, status models.Status, roleIDs ...string) {
	member := models.Member{UserID: userID, GuildID: "g1", Roles: roleIDs}
	f.keys = append(f.keys, member.Key())
	f.members[member.Key()] = member
	if status != "" {
		f.presence[userID] = status
	}
}

func (f *fixture) group() []members.RoleGroup {
	return members.GroupByRole(f.keys, f.members, f.roles, f.presence)
}

func userIDs(group members.RoleGroup) []string {
	var ids []string
	for _, member := range group.Members {
		ids = append(ids, member.UserID)
	}
	return ids
}

func TestGroupByRoleAdminAndMember(t *testing.T) {
	f := newFixture(
		models.Role{ID: "admin", GuildID: "g1", Name: "Admin", Position: 2},
		models.Role{ID: "member", GuildID: "g1", Name: "Member", Position: 0},
	)
	f.add("m1", models.StatusOnline, "member")
	f.add("m2", models.StatusOffline, "member")
	f.add("a1", models.StatusOnline, "admin")
	f.add("m3", models.StatusOnline, "member")

	groups := f.group()
	require.Len(t, groups, 2)

	assert.Equal(t, "Admin", groups[0].Role.Name)
	assert.Equal(t, 1, groups[0].Count())
	assert.Equal(t, "Member", groups[1].Role.Name)
	assert.Equal(t, 3, groups[1].Count())
	assert.Equal(t, []string{"m1", "m3", "m2"}, userIDs(groups[1]))
}

func TestGroupByRole(t *testing.T) {
	tests := []struct {
		name     string
		build    func(f *fixture)
		expected map[string][]string
		order    []string
	}{
		{
			name:     "No members",
			build:    func(f *fixture) {},
			expected: map[string][]string{},
			order:    []string{},
		},
		{
			name: "Highest role wins",
			build: func(f *fixture) {
				f.add("u1", models.StatusOnline, "low", "high")
				f.add("u2", models.StatusOnline, "low")
			},
			expected: map[string][]string{"High": {"u1"}, "Low": {"u2"}},
			order:    []string{"High", "Low"},
		},
		{
			name: "Equal positions keep the first listed role",
			build: func(f *fixture) {
				f.add("u1", models.StatusOnline, "twinB", "twinA")
			},
			expected: map[string][]string{"TwinB": {"u1"}},
			order:    []string{"TwinB"},
		},
		{
			name: "Members without resolvable roles fall back last",
			build: func(f *fixture) {
				f.add("u1", models.StatusOffline, "missing")
				f.add("u2", models.StatusOnline)
				f.add("u3", models.StatusOnline, "low")
			},
			expected: map[string][]string{members.FallbackRoleName: {"u2", "u1"}, "Low": {"u3"}},
			order:    []string{"Low", members.FallbackRoleName},
		},
		{
			name: "Idle and dnd count as online, unknown presence as offline",
			build: func(f *fixture) {
				f.add("u1", "", "low")
				f.add("u2", models.StatusDND, "low")
				f.add("u3", models.StatusOffline, "low")
				f.add("u4", models.StatusIdle, "low")
			},
			expected: map[string][]string{"Low": {"u2", "u4", "u1", "u3"}},
			order:    []string{"Low"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(
				models.Role{ID: "high", Name: "High", Position: 10},
				models.Role{ID: "low", Name: "Low", Position: 1},
				models.Role{ID: "twinA", Name: "TwinA", Position: 5},
				models.Role{ID: "twinB", Name: "TwinB", Position: 5},
			)
			tt.build(f)

			groups := f.group()

			order := []string{}
			got := map[string][]string{}
			for _, group := range groups {
				order = append(order, group.Role.Name)
				got[group.Role.Name] = userIDs(group)
			}
			assert.Equal(t, tt.order, order)
			assert.Equal(t, tt.expected, got)

			for i := 1; i < len(groups); i++ {
				assert.Greater(t, groups[i-1].Role.Position, groups[i].Role.Position)
			}
			for _, group := range groups {
				seenOffline := false
				for _, member := range group.Members {
					online := f.presence[member.UserID].IsOnline()
					if !online {
						seenOffline = true
					}
					assert.False(t, online && seenOffline, "online member %s listed after an offline one", member.UserID)
				}
			}
		})
	}
}

func TestFallbackBucketPosition(t *testing.T) {
	f := newFixture()
	f.add("u1", models.StatusOnline)

	groups := f.group()
	require.Len(t, groups, 1)
	assert.Equal(t, members.FallbackPosition, groups[0].Role.Position)
	assert.Equal(t, members.FallbackRoleName, groups[0].Role.Name)
}

func TestDisplayNameAndColor(t *testing.T) {
	roles := map[string]models.Role{
		"mod":  {ID: "mod", Color: "#00ff00", Position: 3},
		"user": {ID: "user", Color: "#cccccc", Position: 1},
	}

	member := models.Member{UserID: "u1", GuildID: "g1", Roles: []string{"user", "mod"}}
	assert.Equal(t, "#00ff00", members.NameColor(member, roles))
	assert.Equal(t, "", members.NameColor(models.Member{UserID: "u2"}, roles))

	user := models.User{ID: "u1", UserName: "neo", DisplayName: "Neo"}
	assert.Equal(t, "Neo", members.DisplayName(member, user))
	member.Nickname = "The One"
	assert.Equal(t, "The One", members.DisplayName(member, user))
	assert.Equal(t, "neo", members.DisplayName(models.Member{UserID: "u1"}, models.User{UserName: "neo"}))
	assert.Equal(t, "u9", members.DisplayName(models.Member{UserID: "u9"}, models.User{}))
}
