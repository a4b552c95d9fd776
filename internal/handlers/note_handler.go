package handlers

import (
	"notebook/internal/middleware"
	"notebook/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// NoteHandler handles HTTP requests for notes. Every route acts on the
// authenticated user's notes only.
type NoteHandler struct {
	service *services.NoteService
	logger  zerolog.Logger
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(service *services.NoteService, logger zerolog.Logger) *NoteHandler {
	return &NoteHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the note routes with the Fiber app.
func (h *NoteHandler) RegisterRoutes(router fiber.Router) {
	noteRoutes := router.Group("/notes")
	noteRoutes.Get("/", h.HandleGetNotes)
	noteRoutes.Post("/", h.HandleCreateNote)
	noteRoutes.Get("/:id", h.HandleGetNoteByID)
	noteRoutes.Put("/:id", h.HandleUpdateNote)
	noteRoutes.Delete("/:id", h.HandleDeleteNote)
	noteRoutes.Post("/:id/tags", h.HandleAddTag)
	noteRoutes.Delete("/:id/tags/:name", h.HandleRemoveTag)
}

// HandleGetNotes lists the caller's notes, newest first.
func (h *NoteHandler) HandleGetNotes(c *fiber.Ctx) error {
	notes, err := h.service.ListNotes(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, newNoteResponse(n))
	}
	return c.JSON(out)
}

func (h *NoteHandler) HandleGetNoteByID(c *fiber.Ctx) error {
	note, err := h.service.GetNote(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(newNoteResponse(note))
}

func (h *NoteHandler) HandleCreateNote(c *fiber.Ctx) error {
	var req NoteRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	note, err := h.service.CreateNote(c.UserContext(), middleware.UserID(c), services.NoteInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newNoteResponse(note))
}

// HandleUpdateNote replaces title and content. The tag set is replaced only
// when the body carries a "tags" array.
func (h *NoteHandler) HandleUpdateNote(c *fiber.Ctx) error {
	var req NoteRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	note, err := h.service.UpdateNote(c.UserContext(), middleware.UserID(c), c.Params("id"), services.NoteInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(newNoteResponse(note))
}

func (h *NoteHandler) HandleDeleteNote(c *fiber.Ctx) error {
	if err := h.service.DeleteNote(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *NoteHandler) HandleAddTag(c *fiber.Ctx) error {
	var req TagRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	note, err := h.service.AddTag(c.UserContext(), middleware.UserID(c), c.Params("id"), req.Name)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(newNoteResponse(note))
}

func (h *NoteHandler) HandleRemoveTag(c *fiber.Ctx) error {
	note, err := h.service.RemoveTag(c.UserContext(), middleware.UserID(c), c.Params("id"), c.Params("name"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(newNoteResponse(note))
}
