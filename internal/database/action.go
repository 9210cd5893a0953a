package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrTriggerActionNotFound = errors.New("trigger action not found")

// TriggerAction is a one-shot action armed for a location within a time
// window. Once consumed it never fires again.
type TriggerAction struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	LocationID uuid.UUID
	Action     string
	StartTime  time.Time
	EndTime    time.Time
	Used       bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CreateTriggerActionParams struct {
	UserID     uuid.UUID
	LocationID uuid.UUID
	Action     string
	StartTime  time.Time
	EndTime    time.Time
}

func (db *Database) CreateTriggerAction(ctx context.Context, params CreateTriggerActionParams) (TriggerAction, error) {
	action := TriggerAction{
		ID:         uuid.New(),
		UserID:     params.UserID,
		LocationID: params.LocationID,
		Action:     params.Action,
		StartTime:  params.StartTime,
		EndTime:    params.EndTime,
		Used:       false,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if _, err := db.Pool.Exec(ctx, `INSERT INTO tbl_trigger_action (id, user_id, location_id, trigger_function, start_time, end_time, used, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		action.ID, action.UserID, action.LocationID, action.Action, action.StartTime, action.EndTime, action.Used, action.CreatedAt, action.UpdatedAt); err != nil {
		return action, fmt.Errorf("database: failed to insert trigger action (user_id=%s): %w", action.UserID, err)
	}
	return action, nil
}

func (db *Database) GetTriggerActionByID(ctx context.Context, id, userID uuid.UUID) (TriggerAction, error) {
	var action TriggerAction

	err := db.Pool.QueryRow(ctx, `SELECT id, user_id, location_id, trigger_function, start_time, end_time, used, created_at, updated_at FROM tbl_trigger_action WHERE id = $1 AND user_id = $2`, id, userID).Scan(
		&action.ID, &action.UserID, &action.LocationID, &action.Action, &action.StartTime, &action.EndTime, &action.Used, &action.CreatedAt, &action.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return action, ErrTriggerActionNotFound
		}
		return action, fmt.Errorf("database: failed to scan trigger action: %w", err)
	}
	return action, nil
}

// ListActiveTriggerActions returns unconsumed actions armed for the location
// whose window contains the given instant, newest first.
func (db *Database) ListActiveTriggerActions(ctx context.Context, userID, locationID uuid.UUID, at time.Time) ([]TriggerAction, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, user_id, location_id, trigger_function, start_time, end_time, used, created_at, updated_at
		FROM tbl_trigger_action
		WHERE user_id = $1 AND location_id = $2 AND used = FALSE AND start_time <= $3 AND end_time >= $3
		ORDER BY created_at DESC`, userID, locationID, at)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list active trigger actions: %w", err)
	}
	defer rows.Close()

	var actions []TriggerAction
	for rows.Next() {
		var action TriggerAction
		if err := rows.Scan(&action.ID, &action.UserID, &action.LocationID, &action.Action, &action.StartTime, &action.EndTime, &action.Used, &action.CreatedAt, &action.UpdatedAt); err != nil {
			return nil, fmt.Errorf("database: failed to scan trigger action: %w", err)
		}
		actions = append(actions, action)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: failed to iterate trigger actions: %w", err)
	}

	return actions, nil
}

// ConsumeTriggerAction marks the action used if and only if it is still
// unconsumed and the instant falls inside its window. The conditional UPDATE
// makes the fire atomic: of any number of concurrent callers exactly one gets
// the row back, the rest get ErrTriggerActionNotFound.
func (db *Database) ConsumeTriggerAction(ctx context.Context, id, userID uuid.UUID, at time.Time) (TriggerAction, error) {
	var action TriggerAction

	err := db.Pool.QueryRow(ctx, `UPDATE tbl_trigger_action
		SET used = TRUE, updated_at = $4
		WHERE id = $1 AND user_id = $2 AND used = FALSE AND start_time <= $3 AND end_time >= $3
		RETURNING id, user_id, location_id, trigger_function, start_time, end_time, used, created_at, updated_at`,
		id, userID, at, time.Now().UTC()).Scan(
		&action.ID, &action.UserID, &action.LocationID, &action.Action, &action.StartTime, &action.EndTime, &action.Used, &action.CreatedAt, &action.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return action, ErrTriggerActionNotFound
		}
		return action, fmt.Errorf("database: failed to consume trigger action (id=%s): %w", id, err)
	}
	return action, nil
}
