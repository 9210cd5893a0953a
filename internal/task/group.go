package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lifefence/internal/database"
	"lifefence/internal/util"

	"github.com/google/uuid"
)

var (
	ErrGroupTaskNotFound = errors.New("group task not found")
	ErrNotMember         = errors.New("not a member of the group")
	ErrCannotManage      = errors.New("not allowed to manage this task")
	ErrAssigneeNotMember = errors.New("assignee is not a member of the group")
	ErrInvalidStatus     = errors.New("invalid task status")
)

// GroupStore is the persistence surface for group tasks.
// *database.Database satisfies it.
type GroupStore interface {
	CreateGroupTask(ctx context.Context, params database.CreateGroupTaskParams) (database.GroupTask, error)
	GetGroupTaskByID(ctx context.Context, id uuid.UUID) (database.GroupTask, error)
	UpdateGroupTaskByID(ctx context.Context, id uuid.UUID, params database.UpdateGroupTaskParams) error
	DeleteGroupTaskByID(ctx context.Context, id uuid.UUID) error
	ListGroupTasks(ctx context.Context, params database.ListGroupTasksParams) ([]database.GroupTask, error)
	ListMemberGroupIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Memberships answers role questions for a group. *group.Manager satisfies it.
type Memberships interface {
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	RoleOf(ctx context.Context, groupID, userID uuid.UUID) (database.MembershipRole, error)
}

type GroupManager struct {
	store       GroupStore
	memberships Memberships
	logger      *slog.Logger
}

func NewGroupManager(store GroupStore, memberships Memberships, logger *slog.Logger) *GroupManager {
	return &GroupManager{
		store:       store,
		memberships: memberships,
		logger:      logger,
	}
}

func (m *GroupManager) requireMember(ctx context.Context, groupID, userID uuid.UUID) error {
	member, err := m.memberships.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}
	return nil
}

// canManage reports whether the actor may modify the task: group admins, the
// task's creator, and its current assignee all may.
func (m *GroupManager) canManage(ctx context.Context, task database.GroupTask, actor uuid.UUID) (bool, error) {
	if task.CreatedBy == actor {
		return true, nil
	}
	if task.AssignedTo.IsSet && task.AssignedTo.Val == actor {
		return true, nil
	}

	role, err := m.memberships.RoleOf(ctx, task.GroupID, actor)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			return false, nil
		}
		return false, err
	}
	return role == database.MembershipRoleAdmin, nil
}

type CreateGroupTaskParams struct {
	GroupID     uuid.UUID
	Title       string
	Description util.Optional[string]
	DueDate     util.Optional[time.Time]
	AssignedTo  util.Optional[uuid.UUID]
}

// Create adds a task to the group. The actor must be a member; an assignee,
// when given, must be a member of the same group.
func (m *GroupManager) Create(ctx context.Context, actor uuid.UUID, params CreateGroupTaskParams) (database.GroupTask, error) {
	if err := m.requireMember(ctx, params.GroupID, actor); err != nil {
		return database.GroupTask{}, err
	}

	if params.AssignedTo.IsSet {
		member, err := m.memberships.IsMember(ctx, params.GroupID, params.AssignedTo.Val)
		if err != nil {
			return database.GroupTask{}, err
		}
		if !member {
			return database.GroupTask{}, ErrAssigneeNotMember
		}
	}

	task, err := m.store.CreateGroupTask(ctx, database.CreateGroupTaskParams{
		GroupID:     params.GroupID,
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		AssignedTo:  params.AssignedTo,
		CreatedBy:   actor,
	})
	if err != nil {
		return database.GroupTask{}, err
	}

	m.logger.Info("group task created", slog.String("task_id", task.ID.String()), slog.String("group_id", task.GroupID.String()))
	return task, nil
}

func (m *GroupManager) Get(ctx context.Context, actor, taskID uuid.UUID) (database.GroupTask, error) {
	task, err := m.store.GetGroupTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, database.ErrGroupTaskNotFound) {
			return database.GroupTask{}, ErrGroupTaskNotFound
		}
		return database.GroupTask{}, err
	}

	if err := m.requireMember(ctx, task.GroupID, actor); err != nil {
		return database.GroupTask{}, err
	}
	return task, nil
}

type ListGroupTasksParams struct {
	GroupID      util.Optional[uuid.UUID]
	Status       util.Optional[database.GroupTaskStatus]
	AssignedToMe bool
	CreatedByMe  bool
}

// List returns group tasks visible to the actor: those in a named group the
// actor belongs to, or across all the actor's groups when no group is given.
func (m *GroupManager) List(ctx context.Context, actor uuid.UUID, params ListGroupTasksParams) ([]database.GroupTask, error) {
	if params.Status.IsSet && !params.Status.Val.IsValid() {
		return nil, ErrInvalidStatus
	}

	var groupIDs []uuid.UUID
	if params.GroupID.IsSet {
		if err := m.requireMember(ctx, params.GroupID.Val, actor); err != nil {
			return nil, err
		}
		groupIDs = []uuid.UUID{params.GroupID.Val}
	} else {
		ids, err := m.store.ListMemberGroupIDs(ctx, actor)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []database.GroupTask{}, nil
		}
		groupIDs = ids
	}

	listParams := database.ListGroupTasksParams{
		GroupIDs: groupIDs,
		Status:   params.Status,
	}
	if params.AssignedToMe {
		listParams.AssignedTo = util.Some(actor)
	}
	if params.CreatedByMe {
		listParams.CreatedBy = util.Some(actor)
	}

	return m.store.ListGroupTasks(ctx, listParams)
}

type UpdateGroupTaskParams struct {
	Title       util.Optional[string]
	Description util.Optional[string]
	DueDate     util.Optional[time.Time]
	AssignedTo  util.Optional[uuid.UUID]
}

// Update patches the task. Admins, the creator and the assignee may update;
// a new assignee must be a member of the task's group.
func (m *GroupManager) Update(ctx context.Context, actor, taskID uuid.UUID, params UpdateGroupTaskParams) (database.GroupTask, error) {
	task, err := m.Get(ctx, actor, taskID)
	if err != nil {
		return database.GroupTask{}, err
	}

	allowed, err := m.canManage(ctx, task, actor)
	if err != nil {
		return database.GroupTask{}, err
	}
	if !allowed {
		return database.GroupTask{}, ErrCannotManage
	}

	if params.AssignedTo.IsSet {
		member, err := m.memberships.IsMember(ctx, task.GroupID, params.AssignedTo.Val)
		if err != nil {
			return database.GroupTask{}, err
		}
		if !member {
			return database.GroupTask{}, ErrAssigneeNotMember
		}
	}

	if err := m.store.UpdateGroupTaskByID(ctx, taskID, database.UpdateGroupTaskParams{
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		AssignedTo:  params.AssignedTo,
	}); err != nil {
		return database.GroupTask{}, err
	}
	return m.store.GetGroupTaskByID(ctx, taskID)
}

// SetStatus moves the task to any of the stored statuses. Transitions are
// deliberately unrestricted, completed tasks included.
func (m *GroupManager) SetStatus(ctx context.Context, actor, taskID uuid.UUID, status database.GroupTaskStatus) (database.GroupTask, error) {
	if !status.IsValid() {
		return database.GroupTask{}, ErrInvalidStatus
	}

	task, err := m.Get(ctx, actor, taskID)
	if err != nil {
		return database.GroupTask{}, err
	}

	allowed, err := m.canManage(ctx, task, actor)
	if err != nil {
		return database.GroupTask{}, err
	}
	if !allowed {
		return database.GroupTask{}, ErrCannotManage
	}

	if err := m.store.UpdateGroupTaskByID(ctx, taskID, database.UpdateGroupTaskParams{
		Status: util.Some(status),
	}); err != nil {
		return database.GroupTask{}, err
	}
	return m.store.GetGroupTaskByID(ctx, taskID)
}

// Delete removes the task. Only the creator or a group admin may delete; the
// assignee alone may not.
func (m *GroupManager) Delete(ctx context.Context, actor, taskID uuid.UUID) error {
	task, err := m.Get(ctx, actor, taskID)
	if err != nil {
		return err
	}

	if task.CreatedBy != actor {
		role, err := m.memberships.RoleOf(ctx, task.GroupID, actor)
		if err != nil {
			return err
		}
		if role != database.MembershipRoleAdmin {
			return ErrCannotManage
		}
	}

	if err := m.store.DeleteGroupTaskByID(ctx, taskID); err != nil {
		return err
	}

	m.logger.Info("group task deleted", slog.String("task_id", taskID.String()))
	return nil
}
