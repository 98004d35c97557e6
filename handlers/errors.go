package handlers

import (
	"errors"

	"github.com/biosecret/go-todo/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler maps errors returned by handlers to a status code and a short
// JSON message. Anything unclassified is a 500 with a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		status, msg = fe.Code, fe.Message
	case errors.Is(err, services.ErrValidation):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrConflict):
		status, msg = fiber.StatusConflict, err.Error()
	case errors.Is(err, services.ErrAuth):
		status, msg = fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrNotFound):
		status, msg = fiber.StatusNotFound, err.Error()
	}

	if status >= fiber.StatusInternalServerError {
		log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(errorResponse{Error: msg})
}
