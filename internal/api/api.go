package api

import (
	"log/slog"

	"lifefence/internal/account"
	"lifefence/internal/group"
	"lifefence/internal/location"
	"lifefence/internal/middleware"
	"lifefence/internal/task"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Handler bundles the domain managers behind the HTTP surface.
type Handler struct {
	accounts   *account.Authenticator
	groups     *group.Manager
	locations  *location.Manager
	personal   *task.PersonalManager
	groupTasks *task.GroupManager
	actions    *task.ActionManager
	events     *task.EventManager
	sessions   middleware.TokenResolver
	validate   *validator.Validate
	logger     *slog.Logger
}

type HandlerParams struct {
	Accounts   *account.Authenticator
	Groups     *group.Manager
	Locations  *location.Manager
	Personal   *task.PersonalManager
	GroupTasks *task.GroupManager
	Actions    *task.ActionManager
	Events     *task.EventManager
	Sessions   middleware.TokenResolver
	Validate   *validator.Validate
	Logger     *slog.Logger
}

func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		accounts:   params.Accounts,
		groups:     params.Groups,
		locations:  params.Locations,
		personal:   params.Personal,
		groupTasks: params.GroupTasks,
		actions:    params.Actions,
		events:     params.Events,
		sessions:   params.Sessions,
		validate:   params.Validate,
		logger:     params.Logger,
	}
}

// RegisterRoutes mounts every route on the app. Everything except signup,
// login and health sits behind the bearer-token middleware.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Use(middleware.RequestLogger(h.logger))

	app.Get("/health", h.Health)
	app.Post("/signup", h.Signup)
	app.Post("/login", h.Login)

	authed := app.Group("", middleware.Authenticate(h.sessions))

	authed.Post("/logout", h.Logout)
	authed.Get("/me", h.Me)

	authed.Post("/group", h.CreateGroup)
	authed.Get("/group", h.ListGroups)
	authed.Get("/group/admin", h.ListAdminGroups)
	authed.Get("/group/:id", h.GetGroup)
	authed.Put("/group/:id", h.UpdateGroup)
	authed.Delete("/group/:id", h.DeleteGroup)
	authed.Post("/group/:id/member", h.AddGroupMember)
	authed.Delete("/group/:id/member/:user_id", h.RemoveGroupMember)
	authed.Get("/group/:id/events", h.ListGroupEvents)

	authed.Post("/task/personal", h.CreatePersonalTask)
	authed.Get("/task/personal", h.ListPersonalTasks)
	authed.Get("/task/personal/:id", h.GetPersonalTask)
	authed.Get("/task/personal/:id/subtasks", h.ListSubtasks)
	authed.Patch("/task/personal/:id", h.UpdatePersonalTask)
	authed.Post("/task/personal/:id/complete", h.CompletePersonalTask)

	authed.Post("/task/group", h.CreateGroupTask)
	authed.Get("/task/group", h.ListGroupTasks)
	authed.Get("/task/group/:id", h.GetGroupTask)
	authed.Put("/task/group/:id", h.UpdateGroupTask)
	authed.Put("/task/group/:id/status", h.SetGroupTaskStatus)
	authed.Delete("/task/group/:id", h.DeleteGroupTask)

	authed.Post("/location", h.CreateLocation)
	authed.Get("/location", h.ListLocations)
	authed.Post("/location/:id/tag", h.TagLocation)
	authed.Delete("/location/tag/:id", h.RemoveLocationTag)
	authed.Get("/location/tag/:kind", h.ListLocationsByTag)

	authed.Post("/event", h.CreateGroupEvent)
	authed.Delete("/event/:id", h.DeleteGroupEvent)

	authed.Post("/action", h.CreateTriggerAction)
	authed.Get("/action/active", h.ListActiveTriggerActions)
	authed.Post("/action/:id/fire", h.FireTriggerAction)
}
