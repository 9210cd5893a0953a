package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lifefence/internal/database"

	"github.com/google/uuid"
)

var (
	ErrActionNotFound = errors.New("trigger action not found")
	ErrInvalidWindow  = errors.New("window end must be after start")
)

// ActionStore is the persistence surface for trigger actions.
// *database.Database satisfies it.
type ActionStore interface {
	CreateTriggerAction(ctx context.Context, params database.CreateTriggerActionParams) (database.TriggerAction, error)
	ListActiveTriggerActions(ctx context.Context, userID, locationID uuid.UUID, at time.Time) ([]database.TriggerAction, error)
	ConsumeTriggerAction(ctx context.Context, id, userID uuid.UUID, at time.Time) (database.TriggerAction, error)
	GetLocationByID(ctx context.Context, id, userID uuid.UUID) (database.Location, error)
}

// ActionManager arms and fires one-shot location-bound trigger actions.
type ActionManager struct {
	store  ActionStore
	logger *slog.Logger
}

func NewActionManager(store ActionStore, logger *slog.Logger) *ActionManager {
	return &ActionManager{
		store:  store,
		logger: logger,
	}
}

type CreateActionParams struct {
	LocationID uuid.UUID
	Action     string
	StartTime  time.Time
	EndTime    time.Time
}

func (m *ActionManager) Create(ctx context.Context, owner uuid.UUID, params CreateActionParams) (database.TriggerAction, error) {
	if !params.EndTime.After(params.StartTime) {
		return database.TriggerAction{}, ErrInvalidWindow
	}

	if _, err := m.store.GetLocationByID(ctx, params.LocationID, owner); err != nil {
		if errors.Is(err, database.ErrLocationNotFound) {
			return database.TriggerAction{}, ErrLocationNotFound
		}
		return database.TriggerAction{}, err
	}

	action, err := m.store.CreateTriggerAction(ctx, database.CreateTriggerActionParams{
		UserID:     owner,
		LocationID: params.LocationID,
		Action:     params.Action,
		StartTime:  params.StartTime,
		EndTime:    params.EndTime,
	})
	if err != nil {
		return database.TriggerAction{}, err
	}

	m.logger.Info("trigger action armed",
		slog.String("action_id", action.ID.String()),
		slog.String("location_id", params.LocationID.String()))
	return action, nil
}

// FindActive returns the owner's unconsumed actions whose window contains
// the instant, for the location, most recently created first.
func (m *ActionManager) FindActive(ctx context.Context, owner, locationID uuid.UUID, at time.Time) ([]database.TriggerAction, error) {
	if _, err := m.store.GetLocationByID(ctx, locationID, owner); err != nil {
		if errors.Is(err, database.ErrLocationNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return m.store.ListActiveTriggerActions(ctx, owner, locationID, at)
}

// Fire consumes the action exactly once. A second fire, an out-of-window
// fire, and a fire on someone else's action all report not found.
func (m *ActionManager) Fire(ctx context.Context, owner, actionID uuid.UUID, at time.Time) (database.TriggerAction, error) {
	action, err := m.store.ConsumeTriggerAction(ctx, actionID, owner, at)
	if err != nil {
		if errors.Is(err, database.ErrTriggerActionNotFound) {
			return database.TriggerAction{}, ErrActionNotFound
		}
		return database.TriggerAction{}, err
	}

	m.logger.Info("trigger action fired", slog.String("action_id", action.ID.String()))
	return action, nil
}
