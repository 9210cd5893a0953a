package task

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

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePersonalStore struct {
	mu        sync.Mutex
	tasks     map[uuid.UUID]database.Task
	locations map[uuid.UUID]database.Location
}

func newFakePersonalStore() *fakePersonalStore {
	return &fakePersonalStore{
		tasks:     make(map[uuid.UUID]database.Task),
		locations: make(map[uuid.UUID]database.Location),
	}
}

func (s *fakePersonalStore) addLocation(owner uuid.UUID) database.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	location := database.Location{ID: uuid.New(), UserID: owner}
	s.locations[location.ID] = location
	return location
}

func (s *fakePersonalStore) CreateTask(ctx context.Context, params database.CreateTaskParams) (database.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := database.Task{
		ID:         uuid.New(),
		UserID:     params.UserID,
		Title:      params.Title,
		StartDate:  params.StartDate,
		DueDate:    params.DueDate,
		ParentID:   params.ParentID,
		LocationID: params.LocationID,
		CreatedAt:  time.Now().UTC(),
	}
	s.tasks[task.ID] = task
	return task, nil
}

func (s *fakePersonalStore) GetTaskByID(ctx context.Context, id, userID uuid.UUID) (database.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.UserID != userID {
		return database.Task{}, database.ErrTaskNotFound
	}
	return task, nil
}

func (s *fakePersonalStore) ListTasks(ctx context.Context, params database.ListTasksParams) ([]database.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tasks []database.Task
	for _, task := range s.tasks {
		if task.UserID != params.UserID {
			continue
		}
		if params.ParentID.IsSet && (!task.ParentID.IsSet || task.ParentID.Val != params.ParentID.Val) {
			continue
		}
		if params.LocationID.IsSet && (!task.LocationID.IsSet || task.LocationID.Val != params.LocationID.Val) {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (s *fakePersonalStore) UpdateTaskByID(ctx context.Context, id, userID uuid.UUID, params database.UpdateTaskParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.UserID != userID {
		return nil
	}
	if params.Title.IsSet {
		task.Title = params.Title.Val
	}
	if params.StartDate.IsSet {
		task.StartDate = params.StartDate.Val
	}
	if params.DueDate.IsSet {
		task.DueDate = params.DueDate.Val
	}
	if params.Completed.IsSet {
		task.Completed = params.Completed.Val
	}
	if params.ParentID.IsSet {
		task.ParentID = params.ParentID
	}
	s.tasks[id] = task
	return nil
}

func (s *fakePersonalStore) GetLocationByID(ctx context.Context, id, userID uuid.UUID) (database.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	location, ok := s.locations[id]
	if !ok || location.UserID != userID {
		return database.Location{}, database.ErrLocationNotFound
	}
	return location, nil
}

func newPersonalFixture() (*fakePersonalStore, *PersonalManager) {
	store := newFakePersonalStore()
	return store, NewPersonalManager(store, testLogger())
}

func createPersonalTask(t *testing.T, manager *PersonalManager, owner uuid.UUID, params CreatePersonalParams) database.Task {
	t.Helper()
	if params.Title == "" {
		params.Title = "task"
	}
	if params.StartDate.IsZero() {
		params.StartDate = time.Now().UTC()
		params.DueDate = params.StartDate.Add(24 * time.Hour)
	}
	task, err := manager.Create(context.Background(), owner, params)
	require.NoError(t, err)
	return task
}

func TestCreatePersonalTaskWithForeignLocation(t *testing.T) {
	ctx := context.Background()
	store, manager := newPersonalFixture()

	owner := uuid.New()
	stranger := uuid.New()
	location := store.addLocation(stranger)

	// A location owned by someone else looks missing, never forbidden.
	_, err := manager.Create(ctx, owner, CreatePersonalParams{
		Title:      "water plants",
		StartDate:  time.Now().UTC(),
		DueDate:    time.Now().UTC().Add(time.Hour),
		LocationID: util.Some(location.ID),
	})
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestCreatePersonalTaskWithParent(t *testing.T) {
	ctx := context.Background()
	_, manager := newPersonalFixture()
	owner := uuid.New()

	parent := createPersonalTask(t, manager, owner, CreatePersonalParams{})

	child := createPersonalTask(t, manager, owner, CreatePersonalParams{
		ParentID: util.Some(parent.ID),
	})
	assert.Equal(t, util.Some(parent.ID), child.ParentID)

	_, err := manager.Create(ctx, owner, CreatePersonalParams{
		Title:     "orphan",
		StartDate: time.Now().UTC(),
		DueDate:   time.Now().UTC().Add(time.Hour),
		ParentID:  util.Some(uuid.New()),
	})
	assert.ErrorIs(t, err, ErrParentNotFound)

	subtasks, err := manager.ListSubtasks(ctx, owner, parent.ID)
	require.NoError(t, err)
	require.Len(t, subtasks, 1)
	assert.Equal(t, child.ID, subtasks[0].ID)
}

func TestCompleteIdempotent(t *testing.T) {
	ctx := context.Background()
	_, manager := newPersonalFixture()
	owner := uuid.New()

	created := createPersonalTask(t, manager, owner, CreatePersonalParams{})

	first, err := manager.Complete(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.True(t, first.Completed)

	// Completing again is a no-op.
	second, err := manager.Complete(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.True(t, second.Completed)
}

func TestCompleteForeignTask(t *testing.T) {
	ctx := context.Background()
	_, manager := newPersonalFixture()

	owner := uuid.New()
	created := createPersonalTask(t, manager, owner, CreatePersonalParams{})

	_, err := manager.Complete(ctx, uuid.New(), created.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestUpdateReparentCycle(t *testing.T) {
	ctx := context.Background()
	_, manager := newPersonalFixture()
	owner := uuid.New()

	// root <- mid <- leaf
	root := createPersonalTask(t, manager, owner, CreatePersonalParams{})
	mid := createPersonalTask(t, manager, owner, CreatePersonalParams{ParentID: util.Some(root.ID)})
	leaf := createPersonalTask(t, manager, owner, CreatePersonalParams{ParentID: util.Some(mid.ID)})

	_, err := manager.Update(ctx, owner, root.ID, UpdatePersonalParams{ParentID: util.Some(root.ID)})
	assert.ErrorIs(t, err, ErrParentCycle)

	// Parenting root under its own descendant closes a cycle.
	_, err = manager.Update(ctx, owner, root.ID, UpdatePersonalParams{ParentID: util.Some(leaf.ID)})
	assert.ErrorIs(t, err, ErrParentCycle)

	// Moving leaf directly under root is fine.
	updated, err := manager.Update(ctx, owner, leaf.ID, UpdatePersonalParams{ParentID: util.Some(root.ID)})
	require.NoError(t, err)
	assert.Equal(t, util.Some(root.ID), updated.ParentID)
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	ctx := context.Background()
	_, manager := newPersonalFixture()
	owner := uuid.New()

	created := createPersonalTask(t, manager, owner, CreatePersonalParams{Title: "original"})

	updated, err := manager.Update(ctx, owner, created.ID, UpdatePersonalParams{
		Completed: util.Some(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "original", updated.Title)
	assert.True(t, updated.Completed)
}

func TestListByLocation(t *testing.T) {
	ctx := context.Background()
	store, manager := newPersonalFixture()
	owner := uuid.New()
	location := store.addLocation(owner)

	createPersonalTask(t, manager, owner, CreatePersonalParams{LocationID: util.Some(location.ID)})
	createPersonalTask(t, manager, owner, CreatePersonalParams{})

	atLocation, err := manager.ListByLocation(ctx, owner, location.ID)
	require.NoError(t, err)
	assert.Len(t, atLocation, 1)

	all, err := manager.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = manager.ListByLocation(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, ErrLocationNotFound)
}
