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

var ErrTaskNotFound = errors.New("task not found")

// Task is a personal task. Lookups are always scoped to the owning user so a
// foreign task is indistinguishable from a missing one.
type Task struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Title      string
	StartDate  time.Time
	DueDate    time.Time
	Completed  bool
	ParentID   util.Optional[uuid.UUID]
	LocationID util.Optional[uuid.UUID]
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CreateTaskParams struct {
	UserID     uuid.UUID
	Title      string
	StartDate  time.Time
	DueDate    time.Time
	ParentID   util.Optional[uuid.UUID]
	LocationID util.Optional[uuid.UUID]
}

func (db *Database) CreateTask(ctx context.Context, params CreateTaskParams) (Task, error) {
	task := Task{
		ID:         uuid.New(),
		UserID:     params.UserID,
		Title:      params.Title,
		StartDate:  params.StartDate,
		DueDate:    params.DueDate,
		Completed:  false,
		ParentID:   params.ParentID,
		LocationID: params.LocationID,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if _, err := db.Pool.Exec(ctx, `INSERT INTO tbl_task (id, user_id, title, start_date, due_date, completed, parent_id, location_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		task.ID, task.UserID, task.Title, task.StartDate, task.DueDate, task.Completed, task.ParentID, task.LocationID, task.CreatedAt, task.UpdatedAt); err != nil {
		return task, fmt.Errorf("database: failed to insert task (user_id=%s): %w", task.UserID, err)
	}
	return task, nil
}

func (db *Database) GetTaskByID(ctx context.Context, id, userID uuid.UUID) (Task, error) {
	var task Task

	err := db.Pool.QueryRow(ctx, `SELECT id, user_id, title, start_date, due_date, completed, parent_id, location_id, created_at, updated_at FROM tbl_task WHERE id = $1 AND user_id = $2`, id, userID).Scan(
		&task.ID, &task.UserID, &task.Title, &task.StartDate, &task.DueDate, &task.Completed, &task.ParentID, &task.LocationID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task, ErrTaskNotFound
		}
		return task, fmt.Errorf("database: failed to scan task: %w", err)
	}
	return task, nil
}

type ListTasksParams struct {
	UserID     uuid.UUID
	ParentID   util.Optional[uuid.UUID]
	LocationID util.Optional[uuid.UUID]
}

func (db *Database) ListTasks(ctx context.Context, params ListTasksParams) ([]Task, error) {
	var tasks []Task

	var query strings.Builder
	query.WriteString(`SELECT id, user_id, title, start_date, due_date, completed, parent_id, location_id, created_at, updated_at FROM tbl_task WHERE user_id = $1`)
	args := []any{params.UserID}
	argNum := 2

	if params.ParentID.IsSet {
		query.WriteString(fmt.Sprintf(" AND parent_id = $%d", argNum))
		args = append(args, params.ParentID.Val)
		argNum++
	}
	if params.LocationID.IsSet {
		query.WriteString(fmt.Sprintf(" AND location_id = $%d", argNum))
		args = append(args, params.LocationID.Val)
		argNum++
	}
	query.WriteString(" ORDER BY created_at DESC")

	rows, err := db.Pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var task Task
		if err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.StartDate, &task.DueDate, &task.Completed, &task.ParentID, &task.LocationID, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("database: failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

type UpdateTaskParams struct {
	Title     util.Optional[string]
	StartDate util.Optional[time.Time]
	DueDate   util.Optional[time.Time]
	Completed util.Optional[bool]
	ParentID  util.Optional[uuid.UUID]
}

func (db *Database) UpdateTaskByID(ctx context.Context, id, userID uuid.UUID, params UpdateTaskParams) error {
	var query strings.Builder
	query.WriteString(`UPDATE tbl_task SET `)
	var args []any
	argNum := 1

	if params.Title.IsSet {
		query.WriteString(fmt.Sprintf("title = $%d, ", argNum))
		args = append(args, params.Title.Val)
		argNum++
	}
	if params.StartDate.IsSet {
		query.WriteString(fmt.Sprintf("start_date = $%d, ", argNum))
		args = append(args, params.StartDate.Val)
		argNum++
	}
	if params.DueDate.IsSet {
		query.WriteString(fmt.Sprintf("due_date = $%d, ", argNum))
		args = append(args, params.DueDate.Val)
		argNum++
	}
	if params.Completed.IsSet {
		query.WriteString(fmt.Sprintf("completed = $%d, ", argNum))
		args = append(args, params.Completed.Val)
		argNum++
	}
	if params.ParentID.IsSet {
		query.WriteString(fmt.Sprintf("parent_id = $%d, ", argNum))
		args = append(args, params.ParentID.Val)
		argNum++
	}

	query.WriteString(fmt.Sprintf("updated_at = $%d WHERE id = $%d AND user_id = $%d", argNum, argNum+1, argNum+2))
	args = append(args, time.Now().UTC(), id, userID)

	if _, err := db.Pool.Exec(ctx, query.String(), args...); err != nil {
		return fmt.Errorf("database: failed to update task (id=%s): %w", id, err)
	}
	return nil
}
