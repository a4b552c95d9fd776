package handlers

import (
	"errors"

	"notebook/internal/models"
	"notebook/internal/repositories"
	"notebook/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ErrorBody is the payload of every error response:
// {"error": {"code": ..., "message": ..., "fields": ...}}.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeError(c *fiber.Ctx, status int, body ErrorBody) error {
	return c.Status(status).JSON(errorResponse{Error: body})
}

// respondError maps service and repository errors onto HTTP statuses.
// Conflicts win over the transaction that reported them, so a lost signup
// race answers 409 like the email pre-check does.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var br *badRequest
	var ve *models.ValidationError
	switch {
	case errors.As(err, &br):
		return writeError(c, fiber.StatusBadRequest, br.body)
	case errors.As(err, &ve):
		return writeError(c, fiber.StatusBadRequest, ErrorBody{Code: "validation_failed", Message: ve.Error(), Fields: ve.Fields})
	case errors.Is(err, services.ErrInvalidCredentials):
		return writeError(c, fiber.StatusUnauthorized, ErrorBody{Code: "invalid_credentials", Message: "invalid credentials"})
	case errors.Is(err, repositories.ErrConflict):
		logger.Info().Err(err).Str("path", c.Path()).Msg("request conflicted with existing data")
		return writeError(c, fiber.StatusConflict, ErrorBody{Code: "conflict", Message: "resource already exists"})
	case errors.Is(err, repositories.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, ErrorBody{Code: "not_found", Message: "resource not found"})
	case errors.Is(err, repositories.ErrTransaction):
		logger.Error().Err(err).Str("path", c.Path()).Msg("transaction failed")
		return writeError(c, fiber.StatusInternalServerError, ErrorBody{Code: "transaction_failed", Message: "the operation could not be completed"})
	default:
		logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return writeError(c, fiber.StatusInternalServerError, ErrorBody{Code: "internal", Message: "internal server error"})
	}
}

// badRequest is a request rejected before it reached a service.
type badRequest struct {
	body ErrorBody
}

func (e *badRequest) Error() string { return e.body.Message }

// parseBody decodes and validates the JSON body into dst.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &badRequest{ErrorBody{Code: "invalid_body", Message: "Invalid request body"}}
	}
	return models.Validate("request", dst)
}

// errorHandler renders errors returned by fiber itself (unknown routes,
// bad methods) with the same envelope.
func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return writeError(c, fe.Code, ErrorBody{Code: codeFor(fe.Code), Message: fe.Message})
		}
		return respondError(c, logger, err)
	}
}

func codeFor(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusBadRequest:
		return "bad_request"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}
