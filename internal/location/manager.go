package location

import (
	"context"
	"errors"
	"log/slog"

	"lifefence/internal/database"
	"lifefence/internal/util"

	"github.com/google/uuid"
)

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrTagNotFound      = errors.New("location tag not found")
	ErrTagTaken         = errors.New("tag of this kind already held")
	ErrDuplicateTag     = errors.New("location already tagged")
	ErrInvalidTagKind   = errors.New("invalid tag kind")
)

// Store is the persistence surface the manager needs. *database.Database
// satisfies it.
type Store interface {
	CreateLocation(ctx context.Context, params database.CreateLocationParams) (database.Location, error)
	GetLocationByID(ctx context.Context, id, userID uuid.UUID) (database.Location, error)
	ListLocations(ctx context.Context, userID uuid.UUID) ([]database.Location, error)
	CreateLocationTag(ctx context.Context, params database.CreateLocationTagParams) (database.LocationTag, error)
	ListLocationTags(ctx context.Context, params database.ListLocationTagsParams) ([]database.LocationTag, error)
	DeleteLocationTagByID(ctx context.Context, id, userID uuid.UUID) (int64, error)
	ListLocationsByTag(ctx context.Context, userID uuid.UUID, kind database.TagKind) ([]database.Location, error)
}

type Manager struct {
	store  Store
	logger *slog.Logger
}

func NewManager(store Store, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
	}
}

type CreateParams struct {
	Address      util.Optional[string]
	Latitude     float64
	Longitude    float64
	LocationType util.Optional[string]
}

func (m *Manager) Create(ctx context.Context, owner uuid.UUID, params CreateParams) (database.Location, error) {
	location, err := m.store.CreateLocation(ctx, database.CreateLocationParams{
		UserID:       owner,
		Address:      params.Address,
		Latitude:     params.Latitude,
		Longitude:    params.Longitude,
		LocationType: params.LocationType,
	})
	if err != nil {
		return database.Location{}, err
	}

	m.logger.Info("location created", slog.String("location_id", location.ID.String()), slog.String("user_id", owner.String()))
	return location, nil
}

func (m *Manager) Get(ctx context.Context, owner, locationID uuid.UUID) (database.Location, error) {
	location, err := m.store.GetLocationByID(ctx, locationID, owner)
	if err != nil {
		if errors.Is(err, database.ErrLocationNotFound) {
			return database.Location{}, ErrLocationNotFound
		}
		return database.Location{}, err
	}
	return location, nil
}

func (m *Manager) List(ctx context.Context, owner uuid.UUID) ([]database.Location, error) {
	return m.store.ListLocations(ctx, owner)
}

// Tag marks one of the owner's locations as residence, office or blacklist.
// Residence and office are held at most once per user: tagging a second
// location fails until the first tag is removed. Blacklist only rejects the
// exact same location twice.
func (m *Manager) Tag(ctx context.Context, owner, locationID uuid.UUID, kind database.TagKind) (database.LocationTag, error) {
	if !kind.IsValid() {
		return database.LocationTag{}, ErrInvalidTagKind
	}

	if _, err := m.store.GetLocationByID(ctx, locationID, owner); err != nil {
		if errors.Is(err, database.ErrLocationNotFound) {
			return database.LocationTag{}, ErrLocationNotFound
		}
		return database.LocationTag{}, err
	}

	switch kind {
	case database.TagKindResidence, database.TagKindOffice:
		existing, err := m.store.ListLocationTags(ctx, database.ListLocationTagsParams{
			UserID: owner,
			Kind:   util.Some(kind),
		})
		if err != nil {
			return database.LocationTag{}, err
		}
		if len(existing) > 0 {
			return database.LocationTag{}, ErrTagTaken
		}
	case database.TagKindBlacklist:
		existing, err := m.store.ListLocationTags(ctx, database.ListLocationTagsParams{
			UserID:     owner,
			Kind:       util.Some(kind),
			LocationID: util.Some(locationID),
		})
		if err != nil {
			return database.LocationTag{}, err
		}
		if len(existing) > 0 {
			return database.LocationTag{}, ErrDuplicateTag
		}
	}

	tag, err := m.store.CreateLocationTag(ctx, database.CreateLocationTagParams{
		UserID:     owner,
		LocationID: locationID,
		Kind:       kind,
	})
	if err != nil {
		return database.LocationTag{}, err
	}

	m.logger.Info("location tagged",
		slog.String("location_id", locationID.String()),
		slog.String("user_id", owner.String()),
		slog.String("kind", kind.String()))
	return tag, nil
}

func (m *Manager) RemoveTag(ctx context.Context, owner, tagID uuid.UUID) error {
	affected, err := m.store.DeleteLocationTagByID(ctx, tagID, owner)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTagNotFound
	}
	return nil
}

// ListByTag returns the owner's locations currently tagged kind. An empty
// slice is a valid answer.
func (m *Manager) ListByTag(ctx context.Context, owner uuid.UUID, kind database.TagKind) ([]database.Location, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidTagKind
	}
	return m.store.ListLocationsByTag(ctx, owner, kind)
}
