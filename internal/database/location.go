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

var (
	ErrLocationNotFound    = errors.New("location not found")
	ErrLocationTagNotFound = errors.New("location tag not found")
)

type TagKind string

const (
	TagKindResidence TagKind = "residence"
	TagKindOffice    TagKind = "office"
	TagKindBlacklist TagKind = "blacklist"
)

func (k TagKind) IsValid() bool {
	switch k {
	case TagKindResidence, TagKindOffice, TagKindBlacklist:
		return true
	default:
		return false
	}
}

func (k TagKind) String() string {
	return string(k)
}

type Location struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Address      util.Optional[string]
	Latitude     float64
	Longitude    float64
	LocationType util.Optional[string]
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LocationTag marks a location with a semantic role (residence, office or
// blacklist) for its owner.
type LocationTag struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	LocationID uuid.UUID
	Kind       TagKind
	CreatedAt  time.Time
}

type CreateLocationParams struct {
	UserID       uuid.UUID
	Address      util.Optional[string]
	Latitude     float64
	Longitude    float64
	LocationType util.Optional[string]
}

func (db *Database) CreateLocation(ctx context.Context, params CreateLocationParams) (Location, error) {
	location := Location{
		ID:           uuid.New(),
		UserID:       params.UserID,
		Address:      params.Address,
		Latitude:     params.Latitude,
		Longitude:    params.Longitude,
		LocationType: params.LocationType,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if _, err := db.Pool.Exec(ctx, `INSERT INTO tbl_location (id, user_id, address, latitude, longitude, location_type, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		location.ID, location.UserID, location.Address, location.Latitude, location.Longitude, location.LocationType, location.CreatedAt, location.UpdatedAt); err != nil {
		return location, fmt.Errorf("database: failed to insert location (user_id=%s): %w", location.UserID, err)
	}
	return location, nil
}

func (db *Database) GetLocationByID(ctx context.Context, id, userID uuid.UUID) (Location, error) {
	var location Location

	err := db.Pool.QueryRow(ctx, `SELECT id, user_id, address, latitude, longitude, location_type, created_at, updated_at FROM tbl_location WHERE id = $1 AND user_id = $2`, id, userID).Scan(
		&location.ID, &location.UserID, &location.Address, &location.Latitude, &location.Longitude, &location.LocationType, &location.CreatedAt, &location.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return location, ErrLocationNotFound
		}
		return location, fmt.Errorf("database: failed to scan location: %w", err)
	}
	return location, nil
}

func (db *Database) ListLocations(ctx context.Context, userID uuid.UUID) ([]Location, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, user_id, address, latitude, longitude, location_type, created_at, updated_at FROM tbl_location WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var location Location
		if err := rows.Scan(&location.ID, &location.UserID, &location.Address, &location.Latitude, &location.Longitude, &location.LocationType, &location.CreatedAt, &location.UpdatedAt); err != nil {
			return nil, fmt.Errorf("database: failed to scan location: %w", err)
		}
		locations = append(locations, location)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: failed to iterate locations: %w", err)
	}

	return locations, nil
}

type CreateLocationTagParams struct {
	UserID     uuid.UUID
	LocationID uuid.UUID
	Kind       TagKind
}

func (db *Database) CreateLocationTag(ctx context.Context, params CreateLocationTagParams) (LocationTag, error) {
	tag := LocationTag{
		ID:         uuid.New(),
		UserID:     params.UserID,
		LocationID: params.LocationID,
		Kind:       params.Kind,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := db.Pool.Exec(ctx, `INSERT INTO tbl_location_tag (id, user_id, location_id, kind, created_at) VALUES ($1, $2, $3, $4, $5)`,
		tag.ID, tag.UserID, tag.LocationID, tag.Kind, tag.CreatedAt); err != nil {
		return tag, fmt.Errorf("database: failed to insert location tag (user_id=%s, kind=%s): %w", tag.UserID, tag.Kind, err)
	}
	return tag, nil
}

type ListLocationTagsParams struct {
	UserID     uuid.UUID
	Kind       util.Optional[TagKind]
	LocationID util.Optional[uuid.UUID]
}

func (db *Database) ListLocationTags(ctx context.Context, params ListLocationTagsParams) ([]LocationTag, error) {
	var query strings.Builder
	query.WriteString(`SELECT id, user_id, location_id, kind, created_at FROM tbl_location_tag WHERE user_id = $1`)
	args := []any{params.UserID}
	argNum := 2

	if params.Kind.IsSet {
		query.WriteString(fmt.Sprintf(" AND kind = $%d", argNum))
		args = append(args, params.Kind.Val)
		argNum++
	}
	if params.LocationID.IsSet {
		query.WriteString(fmt.Sprintf(" AND location_id = $%d", argNum))
		args = append(args, params.LocationID.Val)
		argNum++
	}

	rows, err := db.Pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list location tags: %w", err)
	}
	defer rows.Close()

	var tags []LocationTag
	for rows.Next() {
		var tag LocationTag
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.LocationID, &tag.Kind, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("database: failed to scan location tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: failed to iterate location tags: %w", err)
	}

	return tags, nil
}

func (db *Database) DeleteLocationTagByID(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM tbl_location_tag WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("database: failed to delete location tag (id=%s): %w", id, err)
	}
	return tag.RowsAffected(), nil
}

// ListLocationsByTag returns the locations currently tagged kind for the
// user, newest tag first.
func (db *Database) ListLocationsByTag(ctx context.Context, userID uuid.UUID, kind TagKind) ([]Location, error) {
	rows, err := db.Pool.Query(ctx, `SELECT l.id, l.user_id, l.address, l.latitude, l.longitude, l.location_type, l.created_at, l.updated_at
		FROM tbl_location l
		JOIN tbl_location_tag t ON t.location_id = l.id
		WHERE t.user_id = $1 AND t.kind = $2
		ORDER BY t.created_at DESC`, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list locations by tag: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var location Location
		if err := rows.Scan(&location.ID, &location.UserID, &location.Address, &location.Latitude, &location.Longitude, &location.LocationType, &location.CreatedAt, &location.UpdatedAt); err != nil {
			return nil, fmt.Errorf("database: failed to scan location: %w", err)
		}
		locations = append(locations, location)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: failed to iterate locations: %w", err)
	}

	return locations, nil
}
