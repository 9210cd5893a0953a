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
	ErrTaskNotFound     = errors.New("task not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrParentNotFound   = errors.New("parent task not found")
	ErrParentCycle      = errors.New("task cannot be its own ancestor")
)

// PersonalStore is the persistence surface for personal tasks.
// *database.Database satisfies it.
type PersonalStore interface {
	CreateTask(ctx context.Context, params database.CreateTaskParams) (database.Task, error)
	GetTaskByID(ctx context.Context, id, userID uuid.UUID) (database.Task, error)
	ListTasks(ctx context.Context, params database.ListTasksParams) ([]database.Task, error)
	UpdateTaskByID(ctx context.Context, id, userID uuid.UUID, params database.UpdateTaskParams) error
	GetLocationByID(ctx context.Context, id, userID uuid.UUID) (database.Location, error)
}

// PersonalManager handles a user's own hierarchical tasks. Every lookup is
// scoped to the owner, so a foreign task behaves exactly like a missing one.
type PersonalManager struct {
	store  PersonalStore
	logger *slog.Logger
}

func NewPersonalManager(store PersonalStore, logger *slog.Logger) *PersonalManager {
	return &PersonalManager{
		store:  store,
		logger: logger,
	}
}

type CreatePersonalParams struct {
	Title      string
	StartDate  time.Time
	DueDate    time.Time
	ParentID   util.Optional[uuid.UUID]
	LocationID util.Optional[uuid.UUID]
}

func (m *PersonalManager) Create(ctx context.Context, owner uuid.UUID, params CreatePersonalParams) (database.Task, error) {
	if params.LocationID.IsSet {
		if _, err := m.store.GetLocationByID(ctx, params.LocationID.Val, owner); err != nil {
			if errors.Is(err, database.ErrLocationNotFound) {
				return database.Task{}, ErrLocationNotFound
			}
			return database.Task{}, err
		}
	}

	if params.ParentID.IsSet {
		if _, err := m.store.GetTaskByID(ctx, params.ParentID.Val, owner); err != nil {
			if errors.Is(err, database.ErrTaskNotFound) {
				return database.Task{}, ErrParentNotFound
			}
			return database.Task{}, err
		}
	}

	task, err := m.store.CreateTask(ctx, database.CreateTaskParams{
		UserID:     owner,
		Title:      params.Title,
		StartDate:  params.StartDate,
		DueDate:    params.DueDate,
		ParentID:   params.ParentID,
		LocationID: params.LocationID,
	})
	if err != nil {
		return database.Task{}, err
	}

	m.logger.Info("task created", slog.String("task_id", task.ID.String()), slog.String("user_id", owner.String()))
	return task, nil
}

func (m *PersonalManager) Get(ctx context.Context, owner, taskID uuid.UUID) (database.Task, error) {
	task, err := m.store.GetTaskByID(ctx, taskID, owner)
	if err != nil {
		if errors.Is(err, database.ErrTaskNotFound) {
			return database.Task{}, ErrTaskNotFound
		}
		return database.Task{}, err
	}
	return task, nil
}

func (m *PersonalManager) List(ctx context.Context, owner uuid.UUID) ([]database.Task, error) {
	return m.store.ListTasks(ctx, database.ListTasksParams{UserID: owner})
}

func (m *PersonalManager) ListByLocation(ctx context.Context, owner, locationID uuid.UUID) ([]database.Task, error) {
	if _, err := m.store.GetLocationByID(ctx, locationID, owner); err != nil {
		if errors.Is(err, database.ErrLocationNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return m.store.ListTasks(ctx, database.ListTasksParams{
		UserID:     owner,
		LocationID: util.Some(locationID),
	})
}

func (m *PersonalManager) ListSubtasks(ctx context.Context, owner, parentID uuid.UUID) ([]database.Task, error) {
	if _, err := m.store.GetTaskByID(ctx, parentID, owner); err != nil {
		if errors.Is(err, database.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return m.store.ListTasks(ctx, database.ListTasksParams{
		UserID:   owner,
		ParentID: util.Some(parentID),
	})
}

// Complete marks the task done. Completing an already-completed task is a
// no-op, not an error.
func (m *PersonalManager) Complete(ctx context.Context, owner, taskID uuid.UUID) (database.Task, error) {
	task, err := m.Get(ctx, owner, taskID)
	if err != nil {
		return database.Task{}, err
	}
	if task.Completed {
		return task, nil
	}

	if err := m.store.UpdateTaskByID(ctx, taskID, owner, database.UpdateTaskParams{
		Completed: util.Some(true),
	}); err != nil {
		return database.Task{}, err
	}
	return m.Get(ctx, owner, taskID)
}

type UpdatePersonalParams struct {
	Title     util.Optional[string]
	StartDate util.Optional[time.Time]
	DueDate   util.Optional[time.Time]
	Completed util.Optional[bool]
	ParentID  util.Optional[uuid.UUID]
}

// Update patches only the fields present. Re-parenting verifies the new
// parent exists, belongs to the owner, and does not sit below the task in
// its own subtree.
func (m *PersonalManager) Update(ctx context.Context, owner, taskID uuid.UUID, params UpdatePersonalParams) (database.Task, error) {
	if _, err := m.Get(ctx, owner, taskID); err != nil {
		return database.Task{}, err
	}

	if params.ParentID.IsSet {
		if err := m.checkParent(ctx, owner, taskID, params.ParentID.Val); err != nil {
			return database.Task{}, err
		}
	}

	if err := m.store.UpdateTaskByID(ctx, taskID, owner, database.UpdateTaskParams{
		Title:     params.Title,
		StartDate: params.StartDate,
		DueDate:   params.DueDate,
		Completed: params.Completed,
		ParentID:  params.ParentID,
	}); err != nil {
		return database.Task{}, err
	}
	return m.Get(ctx, owner, taskID)
}

// checkParent walks the ancestor chain from the candidate parent upward: if
// the task itself appears on it, the re-parent would close a cycle.
func (m *PersonalManager) checkParent(ctx context.Context, owner, taskID, parentID uuid.UUID) error {
	if parentID == taskID {
		return ErrParentCycle
	}

	current := parentID
	for {
		parent, err := m.store.GetTaskByID(ctx, current, owner)
		if err != nil {
			if errors.Is(err, database.ErrTaskNotFound) {
				return ErrParentNotFound
			}
			return err
		}
		if !parent.ParentID.IsSet {
			return nil
		}
		current = parent.ParentID.Val
		if current == taskID {
			return ErrParentCycle
		}
	}
}
