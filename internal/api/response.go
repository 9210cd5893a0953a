package api

import (
	"errors"

	"lifefence/internal/account"
	"lifefence/internal/group"
	"lifefence/internal/location"
	"lifefence/internal/session"
	"lifefence/internal/task"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// statusForError maps domain sentinel errors onto HTTP status codes. Unknown
// errors fall through to 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, group.ErrGroupNotFound),
		errors.Is(err, group.ErrMemberNotFound),
		errors.Is(err, group.ErrUserNotFound),
		errors.Is(err, account.ErrUserNotFound),
		errors.Is(err, account.ErrParentNotFound),
		errors.Is(err, location.ErrLocationNotFound),
		errors.Is(err, location.ErrTagNotFound),
		errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, task.ErrLocationNotFound),
		errors.Is(err, task.ErrParentNotFound),
		errors.Is(err, task.ErrGroupTaskNotFound),
		errors.Is(err, task.ErrActionNotFound),
		errors.Is(err, task.ErrEventNotFound):
		return fiber.StatusNotFound

	case errors.Is(err, group.ErrForbidden),
		errors.Is(err, group.ErrNotMember),
		errors.Is(err, task.ErrNotMember),
		errors.Is(err, task.ErrCannotManage):
		return fiber.StatusForbidden

	case errors.Is(err, account.ErrUsernameTaken),
		errors.Is(err, account.ErrEmailTaken),
		errors.Is(err, group.ErrAlreadyMember),
		errors.Is(err, location.ErrTagTaken),
		errors.Is(err, location.ErrDuplicateTag),
		errors.Is(err, task.ErrAssigneeNotMember):
		return fiber.StatusConflict

	case errors.Is(err, group.ErrLastAdmin):
		return fiber.StatusUnprocessableEntity

	case errors.Is(err, group.ErrInvalidRole),
		errors.Is(err, location.ErrInvalidTagKind),
		errors.Is(err, task.ErrInvalidStatus),
		errors.Is(err, task.ErrInvalidWindow),
		errors.Is(err, task.ErrParentCycle):
		return fiber.StatusBadRequest

	case errors.Is(err, account.ErrInvalidCredential),
		errors.Is(err, session.ErrSessionNotFound):
		return fiber.StatusUnauthorized

	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		h.logger.Error("request failed", "error", err, "path", c.Path())
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (h *Handler) badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

// parseBody decodes and validates a JSON request body.
func (h *Handler) parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return errors.New("malformed request body")
	}
	if err := h.validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New("invalid field: " + verrs[0].Field())
		}
		return errors.New("invalid request body")
	}
	return nil
}

// paramUUID parses a uuid path parameter.
func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errors.New("invalid " + name)
	}
	return id, nil
}
