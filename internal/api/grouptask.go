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

type groupTaskResponse struct {
	ID          string                   `json:"id"`
	GroupID     string                   `json:"group_id"`
	Title       string                   `json:"title"`
	Description util.Optional[string]    `json:"description"`
	DueDate     util.Optional[time.Time] `json:"due_date"`
	Status      string                   `json:"status"`
	Overdue     bool                     `json:"overdue"`
	AssignedTo  util.Optional[string]    `json:"assigned_to"`
	CreatedBy   string                   `json:"created_by"`
	CreatedAt   time.Time                `json:"created_at"`
}

func newGroupTaskResponse(t database.GroupTask, now time.Time) groupTaskResponse {
	resp := groupTaskResponse{
		ID:          t.ID.String(),
		GroupID:     t.GroupID.String(),
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Status:      t.Status.String(),
		Overdue:     t.Overdue(now),
		CreatedBy:   t.CreatedBy.String(),
		CreatedAt:   t.CreatedAt,
	}
	if t.AssignedTo.IsSet {
		resp.AssignedTo = util.Some(t.AssignedTo.Val.String())
	}
	return resp
}

func newGroupTaskListResponse(tasks []database.GroupTask, now time.Time) []groupTaskResponse {
	resp := make([]groupTaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, newGroupTaskResponse(t, now))
	}
	return resp
}

type createGroupTaskRequest struct {
	GroupID     uuid.UUID                `json:"group_id" validate:"required"`
	Title       string                   `json:"title" validate:"required,max=200"`
	Description util.Optional[string]    `json:"description"`
	DueDate     util.Optional[time.Time] `json:"due_date"`
	AssignedTo  util.Optional[uuid.UUID] `json:"assigned_to"`
}

func (h *Handler) CreateGroupTask(c *fiber.Ctx) error {
	var req createGroupTaskRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	created, err := h.groupTasks.Create(c.Context(), middleware.UserID(c), task.CreateGroupTaskParams{
		GroupID:     req.GroupID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newGroupTaskResponse(created, time.Now().UTC()))
}

// ListGroupTasks lists group tasks visible to the caller. Filters:
// ?group_id=, ?status=, ?assigned_to_me=true, ?created_by_me=true.
func (h *Handler) ListGroupTasks(c *fiber.Ctx) error {
	var params task.ListGroupTasksParams

	if raw := c.Query("group_id"); raw != "" {
		groupID, err := uuid.Parse(raw)
		if err != nil {
			return h.badRequest(c, "invalid group_id")
		}
		params.GroupID = util.Some(groupID)
	}
	if raw := c.Query("status"); raw != "" {
		params.Status = util.Some(database.GroupTaskStatus(raw))
	}
	params.AssignedToMe = c.QueryBool("assigned_to_me")
	params.CreatedByMe = c.QueryBool("created_by_me")

	tasks, err := h.groupTasks.List(c.Context(), middleware.UserID(c), params)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newGroupTaskListResponse(tasks, time.Now().UTC()))
}

func (h *Handler) GetGroupTask(c *fiber.Ctx) error {
	taskID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	found, err := h.groupTasks.Get(c.Context(), middleware.UserID(c), taskID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newGroupTaskResponse(found, time.Now().UTC()))
}

type updateGroupTaskRequest struct {
	Title       util.Optional[string]    `json:"title"`
	Description util.Optional[string]    `json:"description"`
	DueDate     util.Optional[time.Time] `json:"due_date"`
	AssignedTo  util.Optional[uuid.UUID] `json:"assigned_to"`
}

func (h *Handler) UpdateGroupTask(c *fiber.Ctx) error {
	taskID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	var req updateGroupTaskRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	updated, err := h.groupTasks.Update(c.Context(), middleware.UserID(c), taskID, task.UpdateGroupTaskParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newGroupTaskResponse(updated, time.Now().UTC()))
}

type setGroupTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed"`
}

func (h *Handler) SetGroupTaskStatus(c *fiber.Ctx) error {
	taskID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	var req setGroupTaskStatusRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	updated, err := h.groupTasks.SetStatus(c.Context(), middleware.UserID(c), taskID, database.GroupTaskStatus(req.Status))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newGroupTaskResponse(updated, time.Now().UTC()))
}

func (h *Handler) DeleteGroupTask(c *fiber.Ctx) error {
	taskID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	if err := h.groupTasks.Delete(c.Context(), middleware.UserID(c), taskID); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
