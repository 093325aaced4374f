package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/quietroom/quietroom-api/internal/apperr"
)

// fail maps a taxonomy error to its status code. Validation messages are
// echoed to the client; everything else gets the caller's generic message
// with the real cause logged server-side only.
func fail(c *fiber.Ctx, err error, generic string) error {
	status := apperr.Status(err)

	msg := generic
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Message
	}

	if status >= fiber.StatusInternalServerError {
		slog.Error(err.Error(), "path", c.Path())
	}

	return c.Status(status).JSON(fiber.Map{"error": msg})
}
