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

var ErrEventNotFound = errors.New("group event not found")

// EventStore is the persistence surface for group events.
// *database.Database satisfies it.
type EventStore interface {
	CreateGroupEvent(ctx context.Context, params database.CreateGroupEventParams) (database.GroupEvent, error)
	GetGroupEventByID(ctx context.Context, id uuid.UUID) (database.GroupEvent, error)
	ListGroupEvents(ctx context.Context, groupID uuid.UUID) ([]database.GroupEvent, error)
	DeleteGroupEventByID(ctx context.Context, id uuid.UUID) error
}

type EventManager struct {
	store       EventStore
	memberships Memberships
	logger      *slog.Logger
}

func NewEventManager(store EventStore, memberships Memberships, logger *slog.Logger) *EventManager {
	return &EventManager{
		store:       store,
		memberships: memberships,
		logger:      logger,
	}
}

func (m *EventManager) requireMember(ctx context.Context, groupID, userID uuid.UUID) error {
	member, err := m.memberships.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}
	return nil
}

type CreateEventParams struct {
	GroupID             uuid.UUID
	Title               string
	Description         util.Optional[string]
	Latitude            float64
	Longitude           float64
	TriggerRadiusMeters int
	StartTime           time.Time
	EndTime             time.Time
}

func (m *EventManager) Create(ctx context.Context, actor uuid.UUID, params CreateEventParams) (database.GroupEvent, error) {
	if !params.EndTime.After(params.StartTime) {
		return database.GroupEvent{}, ErrInvalidWindow
	}

	if err := m.requireMember(ctx, params.GroupID, actor); err != nil {
		return database.GroupEvent{}, err
	}

	event, err := m.store.CreateGroupEvent(ctx, database.CreateGroupEventParams{
		GroupID:             params.GroupID,
		Title:               params.Title,
		Description:         params.Description,
		Latitude:            params.Latitude,
		Longitude:           params.Longitude,
		TriggerRadiusMeters: params.TriggerRadiusMeters,
		StartTime:           params.StartTime,
		EndTime:             params.EndTime,
		CreatedBy:           actor,
	})
	if err != nil {
		return database.GroupEvent{}, err
	}

	m.logger.Info("group event created", slog.String("event_id", event.ID.String()), slog.String("group_id", event.GroupID.String()))
	return event, nil
}

func (m *EventManager) ListForGroup(ctx context.Context, actor, groupID uuid.UUID) ([]database.GroupEvent, error) {
	if err := m.requireMember(ctx, groupID, actor); err != nil {
		return nil, err
	}
	return m.store.ListGroupEvents(ctx, groupID)
}

// Delete removes the event. Only its creator or a group admin may.
func (m *EventManager) Delete(ctx context.Context, actor, eventID uuid.UUID) error {
	event, err := m.store.GetGroupEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, database.ErrGroupEventNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	if err := m.requireMember(ctx, event.GroupID, actor); err != nil {
		return err
	}

	if event.CreatedBy != actor {
		role, err := m.memberships.RoleOf(ctx, event.GroupID, actor)
		if err != nil {
			return err
		}
		if role != database.MembershipRoleAdmin {
			return ErrCannotManage
		}
	}

	if err := m.store.DeleteGroupEventByID(ctx, eventID); err != nil {
		return err
	}

	m.logger.Info("group event deleted", slog.String("event_id", eventID.String()))
	return nil
}
