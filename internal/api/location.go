package api

import (
	"time"

	"lifefence/internal/database"
	"lifefence/internal/location"
	"lifefence/internal/middleware"
	"lifefence/internal/util"

	"github.com/gofiber/fiber/v2"
)

type locationResponse struct {
	ID           string                `json:"id"`
	Address      util.Optional[string] `json:"address"`
	Latitude     float64               `json:"latitude"`
	Longitude    float64               `json:"longitude"`
	LocationType util.Optional[string] `json:"location_type"`
	CreatedAt    time.Time             `json:"created_at"`
}

func newLocationResponse(l database.Location) locationResponse {
	return locationResponse{
		ID:           l.ID.String(),
		Address:      l.Address,
		Latitude:     l.Latitude,
		Longitude:    l.Longitude,
		LocationType: l.LocationType,
		CreatedAt:    l.CreatedAt,
	}
}

func newLocationListResponse(locations []database.Location) []locationResponse {
	resp := make([]locationResponse, 0, len(locations))
	for _, l := range locations {
		resp = append(resp, newLocationResponse(l))
	}
	return resp
}

type createLocationRequest struct {
	Address      util.Optional[string] `json:"address"`
	Latitude     float64               `json:"latitude" validate:"min=-90,max=90"`
	Longitude    float64               `json:"longitude" validate:"min=-180,max=180"`
	LocationType util.Optional[string] `json:"location_type"`
}

func (h *Handler) CreateLocation(c *fiber.Ctx) error {
	var req createLocationRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	created, err := h.locations.Create(c.Context(), middleware.UserID(c), location.CreateParams{
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		LocationType: req.LocationType,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newLocationResponse(created))
}

func (h *Handler) ListLocations(c *fiber.Ctx) error {
	locations, err := h.locations.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newLocationListResponse(locations))
}

type tagLocationRequest struct {
	Kind string `json:"kind" validate:"required,oneof=residence office blacklist"`
}

func (h *Handler) TagLocation(c *fiber.Ctx) error {
	locationID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	var req tagLocationRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	tag, err := h.locations.Tag(c.Context(), middleware.UserID(c), locationID, database.TagKind(req.Kind))
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":          tag.ID.String(),
		"location_id": tag.LocationID.String(),
		"kind":        tag.Kind.String(),
	})
}

func (h *Handler) RemoveLocationTag(c *fiber.Ctx) error {
	tagID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	if err := h.locations.RemoveTag(c.Context(), middleware.UserID(c), tagID); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) ListLocationsByTag(c *fiber.Ctx) error {
	kind := database.TagKind(c.Params("kind"))

	locations, err := h.locations.ListByTag(c.Context(), middleware.UserID(c), kind)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newLocationListResponse(locations))
}
