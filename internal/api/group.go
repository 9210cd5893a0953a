package api

import (
	"time"

	"lifefence/internal/database"
	"lifefence/internal/middleware"
	"lifefence/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type groupResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description util.Optional[string] `json:"description"`
	CreatedBy   string                `json:"created_by"`
	CreatedAt   time.Time             `json:"created_at"`
}

func newGroupResponse(group database.Group) groupResponse {
	return groupResponse{
		ID:          group.ID.String(),
		Name:        group.Name,
		Description: group.Description,
		CreatedBy:   group.CreatedBy.String(),
		CreatedAt:   group.CreatedAt,
	}
}

func newGroupListResponse(groups []database.Group) []groupResponse {
	resp := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, newGroupResponse(g))
	}
	return resp
}

type memberResponse struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type createGroupRequest struct {
	Name        string                `json:"name" validate:"required,max=100"`
	Description util.Optional[string] `json:"description"`
}

func (h *Handler) CreateGroup(c *fiber.Ctx) error {
	var req createGroupRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	group, err := h.groups.CreateGroup(c.Context(), middleware.UserID(c), req.Name, req.Description)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newGroupResponse(group))
}

func (h *Handler) ListGroups(c *fiber.Ctx) error {
	groups, err := h.groups.ListGroups(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newGroupListResponse(groups))
}

func (h *Handler) ListAdminGroups(c *fiber.Ctx) error {
	groups, err := h.groups.ListAdminGroups(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newGroupListResponse(groups))
}

func (h *Handler) GetGroup(c *fiber.Ctx) error {
	groupID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	result, err := h.groups.GetGroupWithMembers(c.Context(), groupID, middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}

	members := make([]memberResponse, 0, len(result.Members))
	for _, m := range result.Members {
		members = append(members, memberResponse{
			UserID:   m.UserID.String(),
			Name:     m.UserName,
			Username: m.UserUsername,
			Role:     m.Role.String(),
		})
	}

	return c.JSON(fiber.Map{
		"group":   newGroupResponse(result.Group),
		"members": members,
	})
}

type updateGroupRequest struct {
	Name        util.Optional[string] `json:"name"`
	Description util.Optional[string] `json:"description"`
}

func (h *Handler) UpdateGroup(c *fiber.Ctx) error {
	groupID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	var req updateGroupRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	group, err := h.groups.UpdateGroup(c.Context(), groupID, middleware.UserID(c), database.UpdateGroupParams{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(newGroupResponse(group))
}

func (h *Handler) DeleteGroup(c *fiber.Ctx) error {
	groupID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	if err := h.groups.DeleteGroup(c.Context(), groupID, middleware.UserID(c)); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type addMemberRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Role   string    `json:"role" validate:"required,oneof=admin moderator member"`
}

func (h *Handler) AddGroupMember(c *fiber.Ctx) error {
	groupID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	var req addMemberRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	membership, err := h.groups.AddMember(c.Context(), groupID, middleware.UserID(c), req.UserID, database.MembershipRole(req.Role))
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"group_id": membership.GroupID.String(),
		"user_id":  membership.UserID.String(),
		"role":     membership.Role.String(),
	})
}

func (h *Handler) RemoveGroupMember(c *fiber.Ctx) error {
	groupID, err := paramUUID(c, "id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}
	userID, err := paramUUID(c, "user_id")
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	if err := h.groups.RemoveMember(c.Context(), groupID, middleware.UserID(c), userID); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
