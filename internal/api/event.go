package api

import (
	"time"

	"lifefence/internal/database"
	"lifefence/internal/middleware"
	"lifefence/internal/task"
	"lifefence/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type groupEventResponse struct {
	ID                  string                `json:"id"`
	GroupID             string                `json:"group_id"`
	Title               string                `json:"title"`
	Description         util.Optional[string] `json:"description"`
	Latitude            float64               `json:"latitude"`
	Longitude           float64               `json:"longitude"`
	TriggerRadiusMeters int                   `json:"trigger_radius_meters"`
	StartTime           time.Time             `json:"start_time"`
	EndTime             time.Time             `json:"end_time"`
	CreatedBy           string                `json:"created_by"`
}

func newGroupEventResponse(e database.GroupEvent) groupEventResponse {
	return groupEventResponse{
		ID:                  e.ID.String(),
		GroupID:             e.GroupID.String(),
		Title:               e.Title,
		Description:         e.Description,
		Latitude:            e.Latitude,
		Longitude:           e.Longitude,
		TriggerRadiusMeters: e.TriggerRadiusMeters,
		StartTime:           e.StartTime,
		EndTime:             e.EndTime,
		CreatedBy:           e.CreatedBy.String(),
	}
}

type createGroupEventRequest struct {
	GroupID             uuid.UUID             `json:"group_id" validate:"required"`
	Title               string                `json:"title" validate:"required,max=200"`
	Description         util.Optional[string] `json:"description"`
	Latitude            float64               `json:"latitude" validate:"min=-90,max=90"`
	Longitude           float64               `json:"longitude" validate:"min=-180,max=180"`
	TriggerRadiusMeters int                   `json:"trigger_radius_meters" validate:"required,min=1"`
	StartTime           time.Time             `json:"start_time" validate:"required"`
	EndTime             time.Time             `json:"end_time" validate:"required"`
}

func (h *Handler) CreateGroupEvent(c *fiber.Ctx) error {
	var req createGroupEventRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	created, err := h.events.Create(c.Context(), middleware.UserID(c), task.CreateEventParams{
		GroupID:             req.GroupID,
		Title:               req.Title,
		Description:         req.Description,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		TriggerRadiusMeters: req.TriggerRadiusMeters,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newGroupEventResponse(created))
}

func (h *Handler) ListGroupEvents(c *fiber.Ctx) error {
	groupID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	events, err := h.events.ListForGroup(c.Context(), middleware.UserID(c), groupID)
	if err != nil {
		return h.fail(c, err)
	}

	resp := make([]groupEventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, newGroupEventResponse(e))
	}
	return c.JSON(resp)
}

func (h *Handler) DeleteGroupEvent(c *fiber.Ctx) error {
	eventID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	if err := h.events.Delete(c.Context(), middleware.UserID(c), eventID); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
