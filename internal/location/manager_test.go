package location

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

type fakeStore struct {
	mu        sync.Mutex
	locations map[uuid.UUID]database.Location
	tags      map[uuid.UUID]database.LocationTag
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		locations: make(map[uuid.UUID]database.Location),
		tags:      make(map[uuid.UUID]database.LocationTag),
	}
}

func (s *fakeStore) CreateLocation(ctx context.Context, params database.CreateLocationParams) (database.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	location := database.Location{
		ID:           uuid.New(),
		UserID:       params.UserID,
		Address:      params.Address,
		Latitude:     params.Latitude,
		Longitude:    params.Longitude,
		LocationType: params.LocationType,
		CreatedAt:    time.Now().UTC(),
	}
	s.locations[location.ID] = location
	return location, nil
}

func (s *fakeStore) GetLocationByID(ctx context.Context, id, userID uuid.UUID) (database.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	location, ok := s.locations[id]
	if !ok || location.UserID != userID {
		return database.Location{}, database.ErrLocationNotFound
	}
	return location, nil
}

func (s *fakeStore) ListLocations(ctx context.Context, userID uuid.UUID) ([]database.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var locations []database.Location
	for _, l := range s.locations {
		if l.UserID == userID {
			locations = append(locations, l)
		}
	}
	return locations, nil
}

func (s *fakeStore) CreateLocationTag(ctx context.Context, params database.CreateLocationTagParams) (database.LocationTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag := database.LocationTag{
		ID:         uuid.New(),
		UserID:     params.UserID,
		LocationID: params.LocationID,
		Kind:       params.Kind,
		CreatedAt:  time.Now().UTC(),
	}
	s.tags[tag.ID] = tag
	return tag, nil
}

func (s *fakeStore) ListLocationTags(ctx context.Context, params database.ListLocationTagsParams) ([]database.LocationTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tags []database.LocationTag
	for _, tag := range s.tags {
		if tag.UserID != params.UserID {
			continue
		}
		if params.Kind.IsSet && tag.Kind != params.Kind.Val {
			continue
		}
		if params.LocationID.IsSet && tag.LocationID != params.LocationID.Val {
			continue
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (s *fakeStore) DeleteLocationTagByID(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, ok := s.tags[id]
	if !ok || tag.UserID != userID {
		return 0, nil
	}
	delete(s.tags, id)
	return 1, nil
}

func (s *fakeStore) ListLocationsByTag(ctx context.Context, userID uuid.UUID, kind database.TagKind) ([]database.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var locations []database.Location
	for _, tag := range s.tags {
		if tag.UserID != userID || tag.Kind != kind {
			continue
		}
		if l, ok := s.locations[tag.LocationID]; ok {
			locations = append(locations, l)
		}
	}
	return locations, nil
}

func newTestManager(store Store) *Manager {
	return NewManager(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func createLocation(t *testing.T, manager *Manager, owner uuid.UUID) database.Location {
	t.Helper()
	location, err := manager.Create(context.Background(), owner, CreateParams{
		Address:   util.Some("main street 1"),
		Latitude:  52.37,
		Longitude: 4.89,
	})
	require.NoError(t, err)
	return location
}

func TestTagResidenceSingleHolder(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)
	owner := uuid.New()

	home := createLocation(t, manager, owner)
	other := createLocation(t, manager, owner)

	tag, err := manager.Tag(ctx, owner, home.ID, database.TagKindResidence)
	require.NoError(t, err)

	// Second residence on any location is refused until the first goes.
	_, err = manager.Tag(ctx, owner, other.ID, database.TagKindResidence)
	assert.ErrorIs(t, err, ErrTagTaken)

	require.NoError(t, manager.RemoveTag(ctx, owner, tag.ID))

	_, err = manager.Tag(ctx, owner, other.ID, database.TagKindResidence)
	require.NoError(t, err)
}

func TestTagOfficeIndependentOfResidence(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)
	owner := uuid.New()

	place := createLocation(t, manager, owner)

	_, err := manager.Tag(ctx, owner, place.ID, database.TagKindResidence)
	require.NoError(t, err)

	// The same location can also be the office; the kinds do not collide.
	_, err = manager.Tag(ctx, owner, place.ID, database.TagKindOffice)
	require.NoError(t, err)
}

func TestTagBlacklistDuplicateOnly(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)
	owner := uuid.New()

	one := createLocation(t, manager, owner)
	two := createLocation(t, manager, owner)

	_, err := manager.Tag(ctx, owner, one.ID, database.TagKindBlacklist)
	require.NoError(t, err)

	// Multiple blacklisted locations are fine.
	_, err = manager.Tag(ctx, owner, two.ID, database.TagKindBlacklist)
	require.NoError(t, err)

	// Blacklisting the same location twice is not.
	_, err = manager.Tag(ctx, owner, one.ID, database.TagKindBlacklist)
	assert.ErrorIs(t, err, ErrDuplicateTag)
}

func TestTagForeignLocation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)

	owner := uuid.New()
	stranger := uuid.New()
	place := createLocation(t, manager, owner)

	// A foreign location is indistinguishable from a missing one.
	_, err := manager.Tag(ctx, stranger, place.ID, database.TagKindResidence)
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestTagInvalidKind(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)
	owner := uuid.New()
	place := createLocation(t, manager, owner)

	_, err := manager.Tag(ctx, owner, place.ID, database.TagKind("favourite"))
	assert.ErrorIs(t, err, ErrInvalidTagKind)
}

func TestRemoveTagScopedToOwner(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)

	owner := uuid.New()
	stranger := uuid.New()
	place := createLocation(t, manager, owner)
	tag, err := manager.Tag(ctx, owner, place.ID, database.TagKindOffice)
	require.NoError(t, err)

	err = manager.RemoveTag(ctx, stranger, tag.ID)
	assert.ErrorIs(t, err, ErrTagNotFound)

	require.NoError(t, manager.RemoveTag(ctx, owner, tag.ID))

	err = manager.RemoveTag(ctx, owner, tag.ID)
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestListByTag(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	manager := newTestManager(store)
	owner := uuid.New()

	empty, err := manager.ListByTag(ctx, owner, database.TagKindResidence)
	require.NoError(t, err)
	assert.Empty(t, empty)

	place := createLocation(t, manager, owner)
	_, err = manager.Tag(ctx, owner, place.ID, database.TagKindResidence)
	require.NoError(t, err)

	tagged, err := manager.ListByTag(ctx, owner, database.TagKindResidence)
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, place.ID, tagged[0].ID)
}
