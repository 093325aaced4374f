package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/quietroom/quietroom-api/internal/apperr"
	"github.com/quietroom/quietroom-api/internal/models"
	"github.com/quietroom/quietroom-api/internal/repository"
	"github.com/quietroom/quietroom-api/internal/transfer"
)

type ReactionHandler struct {
	reactions repository.ReactionRepository
}

func NewReactionHandler(reactions repository.ReactionRepository) *ReactionHandler {
	return &ReactionHandler{reactions: reactions}
}

// React is best-effort from the client's point of view: the UI already
// incremented optimistically, so a failure here only costs one count.
func (h *ReactionHandler) React(c *fiber.Ctx) error {
	var payload transfer.SubmitReaction
	if err := c.BodyParser(&payload); err != nil {
		return fail(c, apperr.Validation("Invalid request body."), "")
	}

	kind, ok := models.ParseReaction(payload.Reaction)
	if !ok {
		return fail(c, apperr.Validation("Invalid reaction type."), "")
	}

	if err := h.reactions.Increment(c.Context(), c.Params("fileId"), kind); err != nil {
		return fail(c, err, "Failed to save reaction.")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
