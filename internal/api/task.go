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

type personalTaskResponse struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	StartDate  time.Time             `json:"start_date"`
	DueDate    time.Time             `json:"due_date"`
	Completed  bool                  `json:"completed"`
	ParentID   util.Optional[string] `json:"parent_id"`
	LocationID util.Optional[string] `json:"location_id"`
	CreatedAt  time.Time             `json:"created_at"`
}

func newPersonalTaskResponse(t database.Task) personalTaskResponse {
	resp := personalTaskResponse{
		ID:        t.ID.String(),
		Title:     t.Title,
		StartDate: t.StartDate,
		DueDate:   t.DueDate,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
	}
	if t.ParentID.IsSet {
		resp.ParentID = util.Some(t.ParentID.Val.String())
	}
	if t.LocationID.IsSet {
		resp.LocationID = util.Some(t.LocationID.Val.String())
	}
	return resp
}

func newPersonalTaskListResponse(tasks []database.Task) []personalTaskResponse {
	resp := make([]personalTaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, newPersonalTaskResponse(t))
	}
	return resp
}

type createPersonalTaskRequest struct {
	Title      string                   `json:"title" validate:"required,max=200"`
	StartDate  time.Time                `json:"start_date" validate:"required"`
	DueDate    time.Time                `json:"due_date" validate:"required"`
	ParentID   util.Optional[uuid.UUID] `json:"parent_id"`
	LocationID util.Optional[uuid.UUID] `json:"location_id"`
}

func (h *Handler) CreatePersonalTask(c *fiber.Ctx) error {
	var req createPersonalTaskRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	created, err := h.personal.Create(c.Context(), middleware.UserID(c), task.CreatePersonalParams{
		Title:      req.Title,
		StartDate:  req.StartDate,
		DueDate:    req.DueDate,
		ParentID:   req.ParentID,
		LocationID: req.LocationID,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newPersonalTaskResponse(created))
}

// ListPersonalTasks lists the caller's tasks, optionally filtered by
// ?location_id=.
func (h *Handler) ListPersonalTasks(c *fiber.Ctx) error {
	owner := middleware.UserID(c)

	if raw := c.Query("location_id"); raw != "" {
		locationID, err := uuid.Parse(raw)
		if err != nil {
			return h.badRequest(c, "invalid location_id")
		}
		tasks, err := h.personal.ListByLocation(c.Context(), owner, locationID)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(newPersonalTaskListResponse(tasks))
	}

	tasks, err := h.personal.List(c.Context(), owner)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newPersonalTaskListResponse(tasks))
}

func (h *Handler) GetPersonalTask(c *fiber.Ctx) error {
	taskID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	found, err := h.personal.Get(c.Context(), middleware.UserID(c), taskID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newPersonalTaskResponse(found))
}

func (h *Handler) ListSubtasks(c *fiber.Ctx) error {
	taskID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	subtasks, err := h.personal.ListSubtasks(c.Context(), middleware.UserID(c), taskID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newPersonalTaskListResponse(subtasks))
}

type updatePersonalTaskRequest struct {
	Title     util.Optional[string]    `json:"title"`
	StartDate util.Optional[time.Time] `json:"start_date"`
	DueDate   util.Optional[time.Time] `json:"due_date"`
	Completed util.Optional[bool]      `json:"completed"`
	ParentID  util.Optional[uuid.UUID] `json:"parent_id"`
}

func (h *Handler) UpdatePersonalTask(c *fiber.Ctx) error {
	taskID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	var req updatePersonalTaskRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	updated, err := h.personal.Update(c.Context(), middleware.UserID(c), taskID, task.UpdatePersonalParams{
		Title:     req.Title,
		StartDate: req.StartDate,
		DueDate:   req.DueDate,
		Completed: req.Completed,
		ParentID:  req.ParentID,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newPersonalTaskResponse(updated))
}

func (h *Handler) CompletePersonalTask(c *fiber.Ctx) error {
	taskID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	completed, err := h.personal.Complete(c.Context(), middleware.UserID(c), taskID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newPersonalTaskResponse(completed))
}
