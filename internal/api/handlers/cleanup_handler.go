package handlers

import (
	"crypto/subtle"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/quietroom/quietroom-api/internal/repository"
)

// CleanupHandler exposes the expiry sweep to an external scheduler. When a
// secret is configured the caller must present it as a bearer token.
type CleanupHandler struct {
	sweeper repository.Sweeper
	secret  string
}

func NewCleanupHandler(sweeper repository.Sweeper, secret string) *CleanupHandler {
	return &CleanupHandler{sweeper: sweeper, secret: secret}
}

func (h *CleanupHandler) Cleanup(c *fiber.Ctx) error {
	if h.secret != "" {
		auth := c.Get(fiber.HeaderAuthorization)
		want := "Bearer " + h.secret
		if subtle.ConstantTimeCompare([]byte(auth), []byte(want)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
	}

	deleted, err := h.sweeper.SweepExpired(c.Context())
	if err != nil {
		return fail(c, err, "Cleanup failed.")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"deleted": deleted,
		"message": fmt.Sprintf("Burned %d expired posts.", deleted),
	})
}
