package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lifefence/internal/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrGroupNotFound      = errors.New("group not found")
	ErrMembershipNotFound = errors.New("group membership not found")
)

type MembershipRole string

const (
	MembershipRoleAdmin     MembershipRole = "admin"
	MembershipRoleModerator MembershipRole = "moderator"
	MembershipRoleMember    MembershipRole = "member"
)

func (r MembershipRole) IsValid() bool {
	switch r {
	case MembershipRoleAdmin, MembershipRoleModerator, MembershipRoleMember:
		return true
	default:
		return false
	}
}

func (r MembershipRole) String() string {
	return string(r)
}

type Group struct {
	ID          uuid.UUID
	Name        string
	Description util.Optional[string]
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type GroupMembership struct {
	ID        uuid.UUID
	GroupID   uuid.UUID
	UserID    uuid.UUID
	Role      MembershipRole
	InvitedBy util.Optional[uuid.UUID]
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GroupMember is a membership joined with user identity, for member listings.
type GroupMember struct {
	GroupMembership
	UserName     string
	UserUsername string
}

type CreateGroupParams struct {
	Name        string
	Description util.Optional[string]
	CreatedBy   uuid.UUID
}

// CreateGroup inserts the group and an admin membership for its creator in
// one transaction, so a group never exists without an admin.
func (db *Database) CreateGroup(ctx context.Context, params CreateGroupParams) (Group, error) {
	group := Group{
		ID:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		CreatedBy:   params.CreatedBy,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return group, fmt.Errorf("database: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO tbl_group (id, name, description, created_by, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		group.ID, group.Name, group.Description, group.CreatedBy, group.CreatedAt, group.UpdatedAt); err != nil {
		return group, fmt.Errorf("database: failed to insert group (name=%s): %w", group.Name, err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO tbl_group_membership (id, group_id, user_id, role, invited_by, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), group.ID, params.CreatedBy, MembershipRoleAdmin, util.None[uuid.UUID](), group.CreatedAt, group.UpdatedAt); err != nil {
		return group, fmt.Errorf("database: failed to insert creator membership (group_id=%s): %w", group.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return group, fmt.Errorf("database: failed to commit group creation: %w", err)
	}
	return group, nil
}

func (db *Database) GetGroupByID(ctx context.Context, id uuid.UUID) (Group, error) {
	var group Group

	err := db.Pool.QueryRow(ctx, `SELECT id, name, description, created_by, created_at, updated_at FROM tbl_group WHERE id = $1`, id).Scan(
		&group.ID, &group.Name, &group.Description, &group.CreatedBy, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return group, ErrGroupNotFound
		}
		return group, fmt.Errorf("database: failed to scan group: %w", err)
	}
	return group, nil
}

type UpdateGroupParams struct {
	Name        util.Optional[string]
	Description util.Optional[string]
}

func (db *Database) UpdateGroupByID(ctx context.Context, id uuid.UUID, params UpdateGroupParams) error {
	var query strings.Builder
	query.WriteString(`UPDATE tbl_group SET `)
	var args []any
	argNum := 1

	if params.Name.IsSet {
		query.WriteString(fmt.Sprintf("name = $%d, ", argNum))
		args = append(args, params.Name.Val)
		argNum++
	}
	if params.Description.IsSet {
		query.WriteString(fmt.Sprintf("description = $%d, ", argNum))
		args = append(args, params.Description.Val)
		argNum++
	}

	query.WriteString(fmt.Sprintf("updated_at = $%d WHERE id = $%d", argNum, argNum+1))
	args = append(args, time.Now().UTC(), id)

	if _, err := db.Pool.Exec(ctx, query.String(), args...); err != nil {
		return fmt.Errorf("database: failed to update group (id=%s): %w", id, err)
	}
	return nil
}

// DeleteGroupByID removes the group; memberships, tasks and events cascade
// via foreign keys.
func (db *Database) DeleteGroupByID(ctx context.Context, id uuid.UUID) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM tbl_group WHERE id = $1`, id); err != nil {
		return fmt.Errorf("database: failed to delete group (id=%s): %w", id, err)
	}
	return nil
}

type CreateMembershipParams struct {
	GroupID   uuid.UUID
	UserID    uuid.UUID
	Role      MembershipRole
	InvitedBy util.Optional[uuid.UUID]
}

func (db *Database) CreateMembership(ctx context.Context, params CreateMembershipParams) (GroupMembership, error) {
	membership := GroupMembership{
		ID:        uuid.New(),
		GroupID:   params.GroupID,
		UserID:    params.UserID,
		Role:      params.Role,
		InvitedBy: params.InvitedBy,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if _, err := db.Pool.Exec(ctx, `INSERT INTO tbl_group_membership (id, group_id, user_id, role, invited_by, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		membership.ID, membership.GroupID, membership.UserID, membership.Role, membership.InvitedBy, membership.CreatedAt, membership.UpdatedAt); err != nil {
		return membership, fmt.Errorf("database: failed to insert membership (group_id=%s, user_id=%s): %w", membership.GroupID, membership.UserID, err)
	}
	return membership, nil
}

func (db *Database) GetMembership(ctx context.Context, groupID, userID uuid.UUID) (GroupMembership, error) {
	var membership GroupMembership

	err := db.Pool.QueryRow(ctx, `SELECT id, group_id, user_id, role, invited_by, created_at, updated_at FROM tbl_group_membership WHERE group_id = $1 AND user_id = $2`, groupID, userID).Scan(
		&membership.ID, &membership.GroupID, &membership.UserID, &membership.Role, &membership.InvitedBy, &membership.CreatedAt, &membership.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return membership, ErrMembershipNotFound
		}
		return membership, fmt.Errorf("database: failed to scan membership: %w", err)
	}
	return membership, nil
}

func (db *Database) DeleteMembership(ctx context.Context, groupID, userID uuid.UUID) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM tbl_group_membership WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return 0, fmt.Errorf("database: failed to delete membership (group_id=%s, user_id=%s): %w", groupID, userID, err)
	}
	return tag.RowsAffected(), nil
}

func (db *Database) CountMembershipsByRole(ctx context.Context, groupID uuid.UUID, role MembershipRole) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM tbl_group_membership WHERE group_id = $1 AND role = $2`, groupID, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("database: failed to count memberships (group_id=%s, role=%s): %w", groupID, role, err)
	}
	return count, nil
}

type ListGroupsParams struct {
	UserID uuid.UUID
	Role   util.Optional[MembershipRole]
}

// ListGroups returns the groups the user belongs to, newest first,
// optionally restricted to a role.
func (db *Database) ListGroups(ctx context.Context, params ListGroupsParams) ([]Group, error) {
	var groups []Group

	var query strings.Builder
	query.WriteString(`SELECT g.id, g.name, g.description, g.created_by, g.created_at, g.updated_at
		FROM tbl_group g
		JOIN tbl_group_membership m ON m.group_id = g.id
		WHERE m.user_id = $1`)
	args := []any{params.UserID}
	argNum := 2

	if params.Role.IsSet {
		query.WriteString(fmt.Sprintf(" AND m.role = $%d", argNum))
		args = append(args, params.Role.Val)
		argNum++
	}
	query.WriteString(" ORDER BY g.created_at DESC")

	rows, err := db.Pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var group Group
		if err := rows.Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy, &group.CreatedAt, &group.UpdatedAt); err != nil {
			return nil, fmt.Errorf("database: failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: failed to iterate groups: %w", err)
	}

	return groups, nil
}

func (db *Database) ListGroupMembers(ctx context.Context, groupID uuid.UUID) ([]GroupMember, error) {
	var members []GroupMember

	rows, err := db.Pool.Query(ctx, `SELECT m.id, m.group_id, m.user_id, m.role, m.invited_by, m.created_at, m.updated_at, u.name, u.username
		FROM tbl_group_membership m
		JOIN tbl_user u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.created_at ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var member GroupMember
		if err := rows.Scan(&member.ID, &member.GroupID, &member.UserID, &member.Role, &member.InvitedBy, &member.CreatedAt, &member.UpdatedAt, &member.UserName, &member.UserUsername); err != nil {
			return nil, fmt.Errorf("database: failed to scan group member: %w", err)
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: failed to iterate group members: %w", err)
	}

	return members, nil
}

func (db *Database) ListMemberGroupIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := db.Pool.Query(ctx, `SELECT group_id FROM tbl_group_membership WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list member group ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("database: failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: failed to iterate group ids: %w", err)
	}

	return ids, nil
}
