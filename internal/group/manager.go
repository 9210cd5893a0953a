package group

import (
	"context"
	"errors"
	"log/slog"

	"lifefence/internal/database"
	"lifefence/internal/util"

	"github.com/google/uuid"
)

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrNotMember      = errors.New("not a member of the group")
	ErrForbidden      = errors.New("insufficient role")
	ErrAlreadyMember  = errors.New("user is already a member")
	ErrLastAdmin      = errors.New("group must retain at least one admin")
	ErrInvalidRole    = errors.New("invalid membership role")
)

// roleRank orders roles for minimum-role guards. Only admin passes
// admin-gated checks; moderator sits between member and admin.
func roleRank(role database.MembershipRole) int {
	switch role {
	case database.MembershipRoleAdmin:
		return 3
	case database.MembershipRoleModerator:
		return 2
	case database.MembershipRoleMember:
		return 1
	default:
		return 0
	}
}

// Store is the persistence surface the manager needs. *database.Database
// satisfies it.
type Store interface {
	CreateGroup(ctx context.Context, params database.CreateGroupParams) (database.Group, error)
	GetGroupByID(ctx context.Context, id uuid.UUID) (database.Group, error)
	UpdateGroupByID(ctx context.Context, id uuid.UUID, params database.UpdateGroupParams) error
	DeleteGroupByID(ctx context.Context, id uuid.UUID) error
	CreateMembership(ctx context.Context, params database.CreateMembershipParams) (database.GroupMembership, error)
	GetMembership(ctx context.Context, groupID, userID uuid.UUID) (database.GroupMembership, error)
	DeleteMembership(ctx context.Context, groupID, userID uuid.UUID) (int64, error)
	CountMembershipsByRole(ctx context.Context, groupID uuid.UUID, role database.MembershipRole) (int, error)
	ListGroups(ctx context.Context, params database.ListGroupsParams) ([]database.Group, error)
	ListGroupMembers(ctx context.Context, groupID uuid.UUID) ([]database.GroupMember, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
}

type Manager struct {
	store  Store
	logger *slog.Logger
}

func NewManager(store Store, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
	}
}

// CreateGroup creates the group and makes the creator its admin. The two
// writes commit together or not at all.
func (m *Manager) CreateGroup(ctx context.Context, actor uuid.UUID, name string, description util.Optional[string]) (database.Group, error) {
	group, err := m.store.CreateGroup(ctx, database.CreateGroupParams{
		Name:        name,
		Description: description,
		CreatedBy:   actor,
	})
	if err != nil {
		return database.Group{}, err
	}

	m.logger.Info("group created", slog.String("group_id", group.ID.String()), slog.String("created_by", actor.String()))
	return group, nil
}

func (m *Manager) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	_, err := m.store.GetMembership(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, database.ErrMembershipNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *Manager) RoleOf(ctx context.Context, groupID, userID uuid.UUID) (database.MembershipRole, error) {
	membership, err := m.store.GetMembership(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, database.ErrMembershipNotFound) {
			return "", ErrNotMember
		}
		return "", err
	}
	return membership.Role, nil
}

// RequireRole is the guard in front of every group-scoped mutation: the user
// must be a member with at least the minimum role. Non-members get
// ErrNotMember, members below the bar get ErrForbidden.
func (m *Manager) RequireRole(ctx context.Context, groupID, userID uuid.UUID, minimum database.MembershipRole) error {
	role, err := m.RoleOf(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if roleRank(role) < roleRank(minimum) {
		return ErrForbidden
	}
	return nil
}

// AddMember adds target to the group with the given role. Only admins may
// invite.
func (m *Manager) AddMember(ctx context.Context, groupID, actor, target uuid.UUID, role database.MembershipRole) (database.GroupMembership, error) {
	if !role.IsValid() {
		return database.GroupMembership{}, ErrInvalidRole
	}

	if _, err := m.store.GetGroupByID(ctx, groupID); err != nil {
		if errors.Is(err, database.ErrGroupNotFound) {
			return database.GroupMembership{}, ErrGroupNotFound
		}
		return database.GroupMembership{}, err
	}

	if err := m.RequireRole(ctx, groupID, actor, database.MembershipRoleAdmin); err != nil {
		return database.GroupMembership{}, err
	}

	if _, err := m.store.GetUserByID(ctx, target); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return database.GroupMembership{}, ErrUserNotFound
		}
		return database.GroupMembership{}, err
	}

	if _, err := m.store.GetMembership(ctx, groupID, target); err == nil {
		return database.GroupMembership{}, ErrAlreadyMember
	} else if !errors.Is(err, database.ErrMembershipNotFound) {
		return database.GroupMembership{}, err
	}

	membership, err := m.store.CreateMembership(ctx, database.CreateMembershipParams{
		GroupID:   groupID,
		UserID:    target,
		Role:      role,
		InvitedBy: util.Some(actor),
	})
	if err != nil {
		return database.GroupMembership{}, err
	}

	m.logger.Info("member added",
		slog.String("group_id", groupID.String()),
		slog.String("user_id", target.String()),
		slog.String("role", role.String()))
	return membership, nil
}

// RemoveMember removes target from the group. Admins may remove anyone,
// including themselves, except when doing so would leave the group without an
// admin.
func (m *Manager) RemoveMember(ctx context.Context, groupID, actor, target uuid.UUID) error {
	if err := m.RequireRole(ctx, groupID, actor, database.MembershipRoleAdmin); err != nil {
		return err
	}

	membership, err := m.store.GetMembership(ctx, groupID, target)
	if err != nil {
		if errors.Is(err, database.ErrMembershipNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	if membership.Role == database.MembershipRoleAdmin {
		admins, err := m.store.CountMembershipsByRole(ctx, groupID, database.MembershipRoleAdmin)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	affected, err := m.store.DeleteMembership(ctx, groupID, target)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMemberNotFound
	}

	m.logger.Info("member removed", slog.String("group_id", groupID.String()), slog.String("user_id", target.String()))
	return nil
}

func (m *Manager) UpdateGroup(ctx context.Context, groupID, actor uuid.UUID, params database.UpdateGroupParams) (database.Group, error) {
	if err := m.RequireRole(ctx, groupID, actor, database.MembershipRoleAdmin); err != nil {
		return database.Group{}, err
	}

	if err := m.store.UpdateGroupByID(ctx, groupID, params); err != nil {
		return database.Group{}, err
	}
	return m.store.GetGroupByID(ctx, groupID)
}

func (m *Manager) DeleteGroup(ctx context.Context, groupID, actor uuid.UUID) error {
	if err := m.RequireRole(ctx, groupID, actor, database.MembershipRoleAdmin); err != nil {
		return err
	}

	if err := m.store.DeleteGroupByID(ctx, groupID); err != nil {
		return err
	}

	m.logger.Info("group deleted", slog.String("group_id", groupID.String()), slog.String("deleted_by", actor.String()))
	return nil
}

func (m *Manager) ListGroups(ctx context.Context, userID uuid.UUID) ([]database.Group, error) {
	return m.store.ListGroups(ctx, database.ListGroupsParams{UserID: userID})
}

func (m *Manager) ListAdminGroups(ctx context.Context, userID uuid.UUID) ([]database.Group, error) {
	return m.store.ListGroups(ctx, database.ListGroupsParams{
		UserID: userID,
		Role:   util.Some(database.MembershipRoleAdmin),
	})
}

// GroupWithMembers is a group plus its member roster.
type GroupWithMembers struct {
	Group   database.Group
	Members []database.GroupMember
}

// GetGroupWithMembers returns the group and its roster. Members only.
func (m *Manager) GetGroupWithMembers(ctx context.Context, groupID, actor uuid.UUID) (GroupWithMembers, error) {
	if err := m.RequireRole(ctx, groupID, actor, database.MembershipRoleMember); err != nil {
		return GroupWithMembers{}, err
	}

	group, err := m.store.GetGroupByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, database.ErrGroupNotFound) {
			return GroupWithMembers{}, ErrGroupNotFound
		}
		return GroupWithMembers{}, err
	}

	members, err := m.store.ListGroupMembers(ctx, groupID)
	if err != nil {
		return GroupWithMembers{}, err
	}

	return GroupWithMembers{Group: group, Members: members}, nil
}
