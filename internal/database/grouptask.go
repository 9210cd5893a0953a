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

var ErrGroupTaskNotFound = errors.New("group task not found")

type GroupTaskStatus string

const (
	GroupTaskStatusPending    GroupTaskStatus = "pending"
	GroupTaskStatusInProgress GroupTaskStatus = "in_progress"
	GroupTaskStatusCompleted  GroupTaskStatus = "completed"
)

func (s GroupTaskStatus) IsValid() bool {
	switch s {
	case GroupTaskStatusPending, GroupTaskStatusInProgress, GroupTaskStatusCompleted:
		return true
	default:
		return false
	}
}

func (s GroupTaskStatus) String() string {
	return string(s)
}

type GroupTask struct {
	ID          uuid.UUID
	GroupID     uuid.UUID
	Title       string
	Description util.Optional[string]
	DueDate     util.Optional[time.Time]
	Status      GroupTaskStatus
	AssignedTo  util.Optional[uuid.UUID]
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Overdue reports whether the task has passed its due date without being
// completed. Overdue is derived, never stored.
func (t GroupTask) Overdue(now time.Time) bool {
	return t.DueDate.IsSet && t.DueDate.Val.Before(now) && t.Status != GroupTaskStatusCompleted
}

type CreateGroupTaskParams struct {
	GroupID     uuid.UUID
	Title       string
	Description util.Optional[string]
	DueDate     util.Optional[time.Time]
	AssignedTo  util.Optional[uuid.UUID]
	CreatedBy   uuid.UUID
}

func (db *Database) CreateGroupTask(ctx context.Context, params CreateGroupTaskParams) (GroupTask, error) {
	task := GroupTask{
		ID:          uuid.New(),
		GroupID:     params.GroupID,
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Status:      GroupTaskStatusPending,
		AssignedTo:  params.AssignedTo,
		CreatedBy:   params.CreatedBy,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if _, err := db.Pool.Exec(ctx, `INSERT INTO tbl_group_task (id, group_id, title, description, due_date, status, assigned_to, created_by, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		task.ID, task.GroupID, task.Title, task.Description, task.DueDate, task.Status, task.AssignedTo, task.CreatedBy, task.CreatedAt, task.UpdatedAt); err != nil {
		return task, fmt.Errorf("database: failed to insert group task (group_id=%s): %w", task.GroupID, err)
	}
	return task, nil
}

func (db *Database) GetGroupTaskByID(ctx context.Context, id uuid.UUID) (GroupTask, error) {
	var task GroupTask

	err := db.Pool.QueryRow(ctx, `SELECT id, group_id, title, description, due_date, status, assigned_to, created_by, created_at, updated_at FROM tbl_group_task WHERE id = $1`, id).Scan(
		&task.ID, &task.GroupID, &task.Title, &task.Description, &task.DueDate, &task.Status, &task.AssignedTo, &task.CreatedBy, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task, ErrGroupTaskNotFound
		}
		return task, fmt.Errorf("database: failed to scan group task: %w", err)
	}
	return task, nil
}

type UpdateGroupTaskParams struct {
	Title       util.Optional[string]
	Description util.Optional[string]
	DueDate     util.Optional[time.Time]
	Status      util.Optional[GroupTaskStatus]
	AssignedTo  util.Optional[uuid.UUID]
}

func (db *Database) UpdateGroupTaskByID(ctx context.Context, id uuid.UUID, params UpdateGroupTaskParams) error {
	var query strings.Builder
	query.WriteString(`UPDATE tbl_group_task SET `)
	var args []any
	argNum := 1

	if params.Title.IsSet {
		query.WriteString(fmt.Sprintf("title = $%d, ", argNum))
		args = append(args, params.Title.Val)
		argNum++
	}
	if params.Description.IsSet {
		query.WriteString(fmt.Sprintf("description = $%d, ", argNum))
		args = append(args, params.Description.Val)
		argNum++
	}
	if params.DueDate.IsSet {
		query.WriteString(fmt.Sprintf("due_date = $%d, ", argNum))
		args = append(args, params.DueDate.Val)
		argNum++
	}
	if params.Status.IsSet {
		query.WriteString(fmt.Sprintf("status = $%d, ", argNum))
		args = append(args, params.Status.Val)
		argNum++
	}
	if params.AssignedTo.IsSet {
		query.WriteString(fmt.Sprintf("assigned_to = $%d, ", argNum))
		args = append(args, params.AssignedTo.Val)
		argNum++
	}

	query.WriteString(fmt.Sprintf("updated_at = $%d WHERE id = $%d", argNum, argNum+1))
	args = append(args, time.Now().UTC(), id)

	if _, err := db.Pool.Exec(ctx, query.String(), args...); err != nil {
		return fmt.Errorf("database: failed to update group task (id=%s): %w", id, err)
	}
	return nil
}

func (db *Database) DeleteGroupTaskByID(ctx context.Context, id uuid.UUID) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM tbl_group_task WHERE id = $1`, id); err != nil {
		return fmt.Errorf("database: failed to delete group task (id=%s): %w", id, err)
	}
	return nil
}

type ListGroupTasksParams struct {
	GroupIDs   []uuid.UUID
	Status     util.Optional[GroupTaskStatus]
	AssignedTo util.Optional[uuid.UUID]
	CreatedBy  util.Optional[uuid.UUID]
}

// ListGroupTasks returns tasks in the given groups, newest first. GroupIDs
// is the caller's membership scope and must not be empty.
func (db *Database) ListGroupTasks(ctx context.Context, params ListGroupTasksParams) ([]GroupTask, error) {
	var tasks []GroupTask

	var query strings.Builder
	query.WriteString(`SELECT id, group_id, title, description, due_date, status, assigned_to, created_by, created_at, updated_at FROM tbl_group_task WHERE group_id = ANY($1)`)
	args := []any{params.GroupIDs}
	argNum := 2

	if params.Status.IsSet {
		query.WriteString(fmt.Sprintf(" AND status = $%d", argNum))
		args = append(args, params.Status.Val)
		argNum++
	}
	if params.AssignedTo.IsSet {
		query.WriteString(fmt.Sprintf(" AND assigned_to = $%d", argNum))
		args = append(args, params.AssignedTo.Val)
		argNum++
	}
	if params.CreatedBy.IsSet {
		query.WriteString(fmt.Sprintf(" AND created_by = $%d", argNum))
		args = append(args, params.CreatedBy.Val)
		argNum++
	}
	query.WriteString(" ORDER BY created_at DESC")

	rows, err := db.Pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list group tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var task GroupTask
		if err := rows.Scan(&task.ID, &task.GroupID, &task.Title, &task.Description, &task.DueDate, &task.Status, &task.AssignedTo, &task.CreatedBy, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("database: failed to scan group task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: failed to iterate group tasks: %w", err)
	}

	return tasks, nil
}
