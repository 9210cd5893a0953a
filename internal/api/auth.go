package api

import (
	"time"

	"lifefence/internal/account"
	"lifefence/internal/database"
	"lifefence/internal/middleware"
	"lifefence/internal/util"

	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	Name           string                `json:"name" validate:"required,max=100"`
	Username       string                `json:"username" validate:"required,min=3,max=50"`
	Email          string                `json:"email" validate:"required,email"`
	Password       string                `json:"password" validate:"required,password_strength"`
	DateOfBirth    time.Time             `json:"date_of_birth" validate:"required"`
	ParentUsername util.Optional[string] `json:"parent_username"`
}

type userResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Username    string                `json:"username"`
	Email       string                `json:"email"`
	DateOfBirth time.Time             `json:"date_of_birth"`
	ParentID    util.Optional[string] `json:"parent_id"`
	CreatedAt   time.Time             `json:"created_at"`
}

func newUserResponse(user database.User) userResponse {
	resp := userResponse{
		ID:          user.ID.String(),
		Name:        user.Name,
		Username:    user.Username,
		Email:       user.Email,
		DateOfBirth: user.DateOfBirth,
		CreatedAt:   user.CreatedAt,
	}
	if user.ParentID.IsSet {
		resp.ParentID = util.Some(user.ParentID.Val.String())
	}
	return resp
}

func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	user, err := h.accounts.Register(c.Context(), account.RegisterParams{
		Name:           req.Name,
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		DateOfBirth:    req.DateOfBirth,
		ParentUsername: req.ParentUsername,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newUserResponse(user))
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}

	token, user, err := h.accounts.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  newUserResponse(user),
	})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.accounts.Logout(c.Context(), middleware.Token(c)); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.accounts.Me(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(newUserResponse(user))
}
