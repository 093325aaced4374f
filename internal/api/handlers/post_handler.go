package handlers

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/quietroom/quietroom-api/internal/apperr"
	"github.com/quietroom/quietroom-api/internal/models"
	"github.com/quietroom/quietroom-api/internal/repository"
	"github.com/quietroom/quietroom-api/internal/transfer"
)

type PostHandler struct {
	posts repository.PostRepository
}

func NewPostHandler(posts repository.PostRepository) *PostHandler {
	return &PostHandler{posts: posts}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var payload transfer.SubmitPost
	if err := c.BodyParser(&payload); err != nil {
		return fail(c, apperr.Validation("Invalid request body."), "")
	}

	pc, err := validateSubmit(&payload)
	if err != nil {
		return fail(c, err, "")
	}

	fileID, err := h.posts.Create(c.Context(), pc)
	if err != nil {
		return fail(c, err, "Failed to save your words.")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"fileId":  fileID,
		"success": true,
	})
}

// validateSubmit runs every boundary check before any backend call is made.
func validateSubmit(payload *transfer.SubmitPost) (*transfer.PostCreation, error) {
	if len([]rune(strings.TrimSpace(payload.Body))) < 10 {
		return nil, apperr.Validation("Text must be at least 10 characters.")
	}
	if len([]rune(payload.Body)) > 10000 {
		return nil, apperr.Validation("Text must be under 10,000 characters.")
	}
	if payload.UserID == "" {
		return nil, apperr.Validation("Missing user ID.")
	}

	mood, ok := models.ParseMood(payload.Mood)
	if !ok {
		return nil, apperr.Validation("Invalid mood.")
	}

	return &transfer.PostCreation{
		Title:         payload.Title,
		Name:          payload.Name,
		Mood:          mood,
		Body:          payload.Body,
		UserID:        payload.UserID,
		IsPrivate:     payload.IsPrivate,
		AudioFileID:   payload.AudioFileID,
		BurnAfterDays: payload.BurnAfterDays,
	}, nil
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	opts := transfer.ListOptions{
		OrderBy:   c.Query("sort", "latest"),
		Mood:      c.Query("mood"),
		AudioOnly: c.Query("audioOnly") == "1",
		Limit:     c.QueryInt("limit", 50),
	}

	posts, err := h.posts.ListPublic(c.Context(), opts)
	if err != nil {
		// The browse experience stays non-blocking: an empty page, not
		// an error status.
		slog.Error(err.Error(), "path", c.Path())
		posts = []*models.PostPreview{}
	}
	if posts == nil {
		posts = []*models.PostPreview{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"posts": posts})
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.posts.Get(c.Context(), c.Params("fileId"))
	if err != nil {
		return fail(c, err, "Post not found.")
	}
	return c.Status(fiber.StatusOK).JSON(post)
}
