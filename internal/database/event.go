package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifefence/internal/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrGroupEventNotFound = errors.New("group event not found")

// GroupEvent is a scheduled gathering at a coordinate, visible to every
// member of the group.
type GroupEvent struct {
	ID                  uuid.UUID
	GroupID             uuid.UUID
	Title               string
	Description         util.Optional[string]
	Latitude            float64
	Longitude           float64
	TriggerRadiusMeters int
	StartTime           time.Time
	EndTime             time.Time
	CreatedBy           uuid.UUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type CreateGroupEventParams struct {
	GroupID             uuid.UUID
	Title               string
	Description         util.Optional[string]
	Latitude            float64
	Longitude           float64
	TriggerRadiusMeters int
	StartTime           time.Time
	EndTime             time.Time
	CreatedBy           uuid.UUID
}

func (db *Database) CreateGroupEvent(ctx context.Context, params CreateGroupEventParams) (GroupEvent, error) {
	event := GroupEvent{
		ID:                  uuid.New(),
		GroupID:             params.GroupID,
		Title:               params.Title,
		Description:         params.Description,
		Latitude:            params.Latitude,
		Longitude:           params.Longitude,
		TriggerRadiusMeters: params.TriggerRadiusMeters,
		StartTime:           params.StartTime,
		EndTime:             params.EndTime,
		CreatedBy:           params.CreatedBy,
		CreatedAt:           time.Now().UTC(),
		UpdatedAt:           time.Now().UTC(),
	}

	if _, err := db.Pool.Exec(ctx, `INSERT INTO tbl_group_event (id, group_id, title, description, latitude, longitude, trigger_radius_meters, start_time, end_time, created_by, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		event.ID, event.GroupID, event.Title, event.Description, event.Latitude, event.Longitude, event.TriggerRadiusMeters, event.StartTime, event.EndTime, event.CreatedBy, event.CreatedAt, event.UpdatedAt); err != nil {
		return event, fmt.Errorf("database: failed to insert group event (group_id=%s): %w", event.GroupID, err)
	}
	return event, nil
}

func (db *Database) GetGroupEventByID(ctx context.Context, id uuid.UUID) (GroupEvent, error) {
	var event GroupEvent

	err := db.Pool.QueryRow(ctx, `SELECT id, group_id, title, description, latitude, longitude, trigger_radius_meters, start_time, end_time, created_by, created_at, updated_at FROM tbl_group_event WHERE id = $1`, id).Scan(
		&event.ID, &event.GroupID, &event.Title, &event.Description, &event.Latitude, &event.Longitude, &event.TriggerRadiusMeters, &event.StartTime, &event.EndTime, &event.CreatedBy, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event, ErrGroupEventNotFound
		}
		return event, fmt.Errorf("database: failed to scan group event: %w", err)
	}
	return event, nil
}

func (db *Database) ListGroupEvents(ctx context.Context, groupID uuid.UUID) ([]GroupEvent, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, group_id, title, description, latitude, longitude, trigger_radius_meters, start_time, end_time, created_by, created_at, updated_at FROM tbl_group_event WHERE group_id = $1 ORDER BY start_time ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list group events: %w", err)
	}
	defer rows.Close()

	var events []GroupEvent
	for rows.Next() {
		var event GroupEvent
		if err := rows.Scan(&event.ID, &event.GroupID, &event.Title, &event.Description, &event.Latitude, &event.Longitude, &event.TriggerRadiusMeters, &event.StartTime, &event.EndTime, &event.CreatedBy, &event.CreatedAt, &event.UpdatedAt); err != nil {
			return nil, fmt.Errorf("database: failed to scan group event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: failed to iterate group events: %w", err)
	}

	return events, nil
}

func (db *Database) DeleteGroupEventByID(ctx context.Context, id uuid.UUID) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM tbl_group_event WHERE id = $1`, id); err != nil {
		return fmt.Errorf("database: failed to delete group event (id=%s): %w", id, err)
	}
	return nil
}
