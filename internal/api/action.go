package api

import (
	"time"

	"lifefence/internal/database"
	"lifefence/internal/middleware"
	"lifefence/internal/task"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type triggerActionResponse struct {
	ID         string    `json:"id"`
	LocationID string    `json:"location_id"`
	Action     string    `json:"action"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Used       bool      `json:"used"`
	CreatedAt  time.Time `json:"created_at"`
}

func newTriggerActionResponse(a database.TriggerAction) triggerActionResponse {
	return triggerActionResponse{
		ID:         a.ID.String(),
		LocationID: a.LocationID.String(),
		Action:     a.Action,
		StartTime:  a.StartTime,
		EndTime:    a.EndTime,
		Used:       a.Used,
		CreatedAt:  a.CreatedAt,
	}
}

type createTriggerActionRequest struct {
	LocationID uuid.UUID `json:"location_id" validate:"required"`
	Action     string    `json:"action" validate:"required,max=200"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
}

func (h *Handler) CreateTriggerAction(c *fiber.Ctx) error {
	var req createTriggerActionRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	created, err := h.actions.Create(c.Context(), middleware.UserID(c), task.CreateActionParams{
		LocationID: req.LocationID,
		Action:     req.Action,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newTriggerActionResponse(created))
}

// ListActiveTriggerActions lists the caller's in-window unconsumed actions
// for ?location_id=, evaluated at ?at= (RFC 3339, defaults to now).
func (h *Handler) ListActiveTriggerActions(c *fiber.Ctx) error {
	locationID, err := uuid.Parse(c.Query("location_id"))
	if err != nil {
		return h.badRequest(c, "invalid location_id")
	}

	at := time.Now().UTC()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return h.badRequest(c, "invalid at timestamp")
		}
		at = parsed
	}

	actions, err := h.actions.FindActive(c.Context(), middleware.UserID(c), locationID, at)
	if err != nil {
		return h.fail(c, err)
	}

	resp := make([]triggerActionResponse, 0, len(actions))
	for _, a := range actions {
		resp = append(resp, newTriggerActionResponse(a))
	}
	return c.JSON(resp)
}

func (h *Handler) FireTriggerAction(c *fiber.Ctx) error {
	actionID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	fired, err := h.actions.Fire(c.Context(), middleware.UserID(c), actionID, time.Now().UTC())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newTriggerActionResponse(fired))
}
