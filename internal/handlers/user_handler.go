package handlers

import (
	"notebook/internal/middleware"
	"notebook/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// UserHandler handles HTTP requests for user profiles.
type UserHandler struct {
	service *services.UserService
	logger  zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the user routes. They expect AuthRequired to run
// first.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Get("/me", h.HandleGetMe)
	userRoutes.Patch("/me", h.HandleUpdateMe)
	userRoutes.Put("/me/password", h.HandleChangePassword)
	userRoutes.Delete("/me", h.HandleDeleteMe)
	userRoutes.Get("/:id", h.HandleGetUser)
}

// HandleListUsers lists users newest first. Accepts ?limit= and ?offset=.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext(), c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u.Values()))
	}
	return c.JSON(out)
}

func (h *UserHandler) HandleGetMe(c *fiber.Ctx) error {
	return h.getUser(c, middleware.UserID(c))
}

func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	return h.getUser(c, c.Params("id"))
}

func (h *UserHandler) getUser(c *fiber.Ctx, id string) error {
	user, err := h.service.GetUser(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(newUserResponse(user.Values()))
}

// HandleUpdateMe changes the caller's name and/or email.
func (h *UserHandler) HandleUpdateMe(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	user, err := h.service.UpdateProfile(c.UserContext(), middleware.UserID(c), req.Name, req.Email)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(newUserResponse(user.Values()))
}

func (h *UserHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.service.ChangePassword(c.UserContext(), middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleDeleteMe deletes the caller's account with all of its notes and tags.
func (h *UserHandler) HandleDeleteMe(c *fiber.Ctx) error {
	if err := h.service.DeleteUser(c.UserContext(), middleware.UserID(c)); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
