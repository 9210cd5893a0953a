package group

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"lifefence/internal/database"
	"lifefence/internal/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu          sync.Mutex
	groups      map[uuid.UUID]database.Group
	memberships map[uuid.UUID]database.GroupMembership
	users       map[uuid.UUID]database.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		groups:      make(map[uuid.UUID]database.Group),
		memberships: make(map[uuid.UUID]database.GroupMembership),
		users:       make(map[uuid.UUID]database.User),
	}
}

func (s *fakeStore) addUser(t *testing.T) uuid.UUID {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.users[id] = database.User{ID: id, Name: "user", Username: id.String()[:8]}
	return id
}

func (s *fakeStore) CreateGroup(ctx context.Context, params database.CreateGroupParams) (database.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group := database.Group{
		ID:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		CreatedBy:   params.CreatedBy,
		CreatedAt:   time.Now().UTC(),
	}
	s.groups[group.ID] = group
	membership := database.GroupMembership{
		ID:      uuid.New(),
		GroupID: group.ID,
		UserID:  params.CreatedBy,
		Role:    database.MembershipRoleAdmin,
	}
	s.memberships[membership.ID] = membership
	return group, nil
}

func (s *fakeStore) GetGroupByID(ctx context.Context, id uuid.UUID) (database.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[id]
	if !ok {
		return database.Group{}, database.ErrGroupNotFound
	}
	return group, nil
}

func (s *fakeStore) UpdateGroupByID(ctx context.Context, id uuid.UUID, params database.UpdateGroupParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[id]
	if !ok {
		return database.ErrGroupNotFound
	}
	if params.Name.IsSet {
		group.Name = params.Name.Val
	}
	if params.Description.IsSet {
		group.Description = params.Description
	}
	s.groups[id] = group
	return nil
}

func (s *fakeStore) DeleteGroupByID(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, id)
	for mid, m := range s.memberships {
		if m.GroupID == id {
			delete(s.memberships, mid)
		}
	}
	return nil
}

func (s *fakeStore) CreateMembership(ctx context.Context, params database.CreateMembershipParams) (database.GroupMembership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	membership := database.GroupMembership{
		ID:        uuid.New(),
		GroupID:   params.GroupID,
		UserID:    params.UserID,
		Role:      params.Role,
		InvitedBy: params.InvitedBy,
	}
	s.memberships[membership.ID] = membership
	return membership, nil
}

func (s *fakeStore) GetMembership(ctx context.Context, groupID, userID uuid.UUID) (database.GroupMembership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.memberships {
		if m.GroupID == groupID && m.UserID == userID {
			return m, nil
		}
	}
	return database.GroupMembership{}, database.ErrMembershipNotFound
}

func (s *fakeStore) DeleteMembership(ctx context.Context, groupID, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.memberships {
		if m.GroupID == groupID && m.UserID == userID {
			delete(s.memberships, id)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *fakeStore) CountMembershipsByRole(ctx context.Context, groupID uuid.UUID, role database.MembershipRole) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, m := range s.memberships {
		if m.GroupID == groupID && m.Role == role {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) ListGroups(ctx context.Context, params database.ListGroupsParams) ([]database.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var groups []database.Group
	for _, m := range s.memberships {
		if m.UserID != params.UserID {
			continue
		}
		if params.Role.IsSet && m.Role != params.Role.Val {
			continue
		}
		if g, ok := s.groups[m.GroupID]; ok {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func (s *fakeStore) ListGroupMembers(ctx context.Context, groupID uuid.UUID) ([]database.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var members []database.GroupMember
	for _, m := range s.memberships {
		if m.GroupID != groupID {
			continue
		}
		user := s.users[m.UserID]
		members = append(members, database.GroupMember{
			GroupMembership: m,
			UserName:        user.Name,
			UserUsername:    user.Username,
		})
	}
	return members, nil
}

func (s *fakeStore) GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return database.User{}, database.ErrUserNotFound
	}
	return user, nil
}

func newTestManager(store Store) *Manager {
	return NewManager(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateGroupMakesCreatorAdmin(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)
	creator := store.addUser(t)

	created, err := manager.CreateGroup(ctx, creator, "hiking club", util.Some("weekend hikes"))
	require.NoError(t, err)

	role, err := manager.RoleOf(ctx, created.ID, creator)
	require.NoError(t, err)
	assert.Equal(t, database.MembershipRoleAdmin, role)
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)

	admin := store.addUser(t)
	member := store.addUser(t)
	outsider := store.addUser(t)
	created, err := manager.CreateGroup(ctx, admin, "club", util.None[string]())
	require.NoError(t, err)

	_, err = manager.AddMember(ctx, created.ID, admin, member, database.MembershipRoleMember)
	require.NoError(t, err)

	tests := []struct {
		name    string
		actor   uuid.UUID
		target  uuid.UUID
		role    database.MembershipRole
		wantErr error
	}{
		{
			name:    "non admin cannot invite",
			actor:   member,
			target:  outsider,
			role:    database.MembershipRoleMember,
			wantErr: ErrForbidden,
		},
		{
			name:    "outsider cannot invite",
			actor:   outsider,
			target:  outsider,
			role:    database.MembershipRoleMember,
			wantErr: ErrNotMember,
		},
		{
			name:    "unknown target",
			actor:   admin,
			target:  uuid.New(),
			role:    database.MembershipRoleMember,
			wantErr: ErrUserNotFound,
		},
		{
			name:    "already a member",
			actor:   admin,
			target:  member,
			role:    database.MembershipRoleMember,
			wantErr: ErrAlreadyMember,
		},
		{
			name:   "admin invites outsider",
			actor:  admin,
			target: outsider,
			role:   database.MembershipRoleModerator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			membership, err := manager.AddMember(ctx, created.ID, tt.actor, tt.target, tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.role, membership.Role)
			assert.Equal(t, util.Some(tt.actor), membership.InvitedBy)
		})
	}
}

func TestRemoveMemberLastAdmin(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)

	adminA := store.addUser(t)
	userB := store.addUser(t)
	userC := store.addUser(t)

	created, err := manager.CreateGroup(ctx, adminA, "club", util.None[string]())
	require.NoError(t, err)
	_, err = manager.AddMember(ctx, created.ID, adminA, userB, database.MembershipRoleMember)
	require.NoError(t, err)

	// B is not an admin and cannot remove anyone.
	err = manager.RemoveMember(ctx, created.ID, userB, adminA)
	assert.ErrorIs(t, err, ErrForbidden)

	// A is the only admin; self-removal must be refused.
	err = manager.RemoveMember(ctx, created.ID, adminA, adminA)
	assert.ErrorIs(t, err, ErrLastAdmin)

	// After promoting C to admin, A can leave.
	_, err = manager.AddMember(ctx, created.ID, adminA, userC, database.MembershipRoleAdmin)
	require.NoError(t, err)
	err = manager.RemoveMember(ctx, created.ID, adminA, adminA)
	require.NoError(t, err)

	_, err = manager.RoleOf(ctx, created.ID, adminA)
	assert.ErrorIs(t, err, ErrNotMember)

	// The group still has an admin.
	role, err := manager.RoleOf(ctx, created.ID, userC)
	require.NoError(t, err)
	assert.Equal(t, database.MembershipRoleAdmin, role)
}

func TestRemoveMemberMissing(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)

	admin := store.addUser(t)
	created, err := manager.CreateGroup(ctx, admin, "club", util.None[string]())
	require.NoError(t, err)

	err = manager.RemoveMember(ctx, created.ID, admin, uuid.New())
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestRequireRole(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)

	admin := store.addUser(t)
	moderator := store.addUser(t)
	member := store.addUser(t)
	created, err := manager.CreateGroup(ctx, admin, "club", util.None[string]())
	require.NoError(t, err)

	_, err = manager.AddMember(ctx, created.ID, admin, moderator, database.MembershipRoleModerator)
	require.NoError(t, err)
	_, err = manager.AddMember(ctx, created.ID, admin, member, database.MembershipRoleMember)
	require.NoError(t, err)

	tests := []struct {
		name    string
		user    uuid.UUID
		minimum database.MembershipRole
		wantErr error
	}{
		{name: "admin passes admin gate", user: admin, minimum: database.MembershipRoleAdmin},
		{name: "moderator fails admin gate", user: moderator, minimum: database.MembershipRoleAdmin, wantErr: ErrForbidden},
		{name: "moderator passes moderator gate", user: moderator, minimum: database.MembershipRoleModerator},
		{name: "member fails moderator gate", user: member, minimum: database.MembershipRoleModerator, wantErr: ErrForbidden},
		{name: "member passes member gate", user: member, minimum: database.MembershipRoleMember},
		{name: "outsider fails member gate", user: uuid.New(), minimum: database.MembershipRoleMember, wantErr: ErrNotMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manager.RequireRole(ctx, created.ID, tt.user, tt.minimum)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateAndDeleteGroupAdminOnly(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)

	admin := store.addUser(t)
	member := store.addUser(t)
	created, err := manager.CreateGroup(ctx, admin, "club", util.None[string]())
	require.NoError(t, err)
	_, err = manager.AddMember(ctx, created.ID, admin, member, database.MembershipRoleMember)
	require.NoError(t, err)

	_, err = manager.UpdateGroup(ctx, created.ID, member, database.UpdateGroupParams{Name: util.Some("new name")})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := manager.UpdateGroup(ctx, created.ID, admin, database.UpdateGroupParams{Name: util.Some("new name")})
	require.NoError(t, err)
	assert.Equal(t, "new name", updated.Name)

	err = manager.DeleteGroup(ctx, created.ID, member)
	assert.ErrorIs(t, err, ErrForbidden)

	err = manager.DeleteGroup(ctx, created.ID, admin)
	require.NoError(t, err)

	_, err = manager.GetGroupWithMembers(ctx, created.ID, admin)
	assert.Error(t, err)
}

func TestListGroups(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)

	userA := store.addUser(t)
	userB := store.addUser(t)

	groupOne, err := manager.CreateGroup(ctx, userA, "one", util.None[string]())
	require.NoError(t, err)
	groupTwo, err := manager.CreateGroup(ctx, userB, "two", util.None[string]())
	require.NoError(t, err)
	_, err = manager.AddMember(ctx, groupTwo.ID, userB, userA, database.MembershipRoleMember)
	require.NoError(t, err)

	all, err := manager.ListGroups(ctx, userA)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	adminOnly, err := manager.ListAdminGroups(ctx, userA)
	require.NoError(t, err)
	require.Len(t, adminOnly, 1)
	assert.Equal(t, groupOne.ID, adminOnly[0].ID)
}

func TestGetGroupWithMembersMemberOnly(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)

	admin := store.addUser(t)
	outsider := store.addUser(t)
	created, err := manager.CreateGroup(ctx, admin, "club", util.None[string]())
	require.NoError(t, err)

	_, err = manager.GetGroupWithMembers(ctx, created.ID, outsider)
	assert.ErrorIs(t, err, ErrNotMember)

	result, err := manager.GetGroupWithMembers(ctx, created.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, created.ID, result.Group.ID)
	require.Len(t, result.Members, 1)
	assert.Equal(t, database.MembershipRoleAdmin, result.Members[0].Role)
}
