package handlers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/quietroom/quietroom-api/internal/apperr"
	"github.com/quietroom/quietroom-api/internal/repository"
)

const maxAudioBytes = 10 * 1024 * 1024

type AudioHandler struct {
	audio repository.AudioRepository
}

func NewAudioHandler(audio repository.AudioRepository) *AudioHandler {
	return &AudioHandler{audio: audio}
}

func (h *AudioHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("audio")
	userID := c.FormValue("userId")
	if err != nil || userID == "" {
		return fail(c, apperr.Validation("Missing audio or userId."), "")
	}

	if fileHeader.Size > maxAudioBytes {
		return fail(c, apperr.Validation("Audio must be under 10MB."), "")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return fail(c, err, "Failed to upload audio.")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fail(c, err, "Failed to upload audio.")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		// recorder uploads always declare a type; sniff only when the
		// client sent nothing useful
		if t, err := filetype.Match(data); err == nil && t != types.Unknown {
			mimeType = t.MIME.Value
		}
	}
	if !strings.HasPrefix(mimeType, "audio/") {
		return fail(c, apperr.Validation("File must be audio."), "")
	}

	fileID, err := h.audio.Upload(c.Context(), data, mimeType, userID)
	if err != nil {
		return fail(c, err, "Failed to upload audio.")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"fileId":  fileID,
		"success": true,
	})
}

func (h *AudioHandler) Stream(c *fiber.Ctx) error {
	fileID := c.Params("fileId")

	meta, err := h.audio.Stat(c.Context(), fileID)
	if err != nil {
		return fail(c, err, "Audio not found.")
	}

	contentType := meta.MIMEType
	if contentType == "" {
		contentType = "audio/webm"
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")

	if rangeHeader := c.Get(fiber.HeaderRange); rangeHeader != "" && h.audio.CanRange() && meta.Size > 0 {
		start, end, err := parseRange(rangeHeader, meta.Size)
		switch {
		case errors.Is(err, errUnsatisfiableRange):
			c.Set(fiber.HeaderContentRange, "bytes */*")
			return c.SendStatus(fiber.StatusRequestedRangeNotSatisfiable)
		case err == nil:
			rc, total, err := h.audio.OpenRange(c.Context(), fileID, start, end)
			if err != nil {
				return fail(c, err, "Audio not found.")
			}
			c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", start, end, total))
			c.Status(fiber.StatusPartialContent)
			return c.SendStream(rc, int(end-start+1))
		}
		// malformed Range header: ignore it and serve the whole object
	}

	rc, err := h.audio.Open(c.Context(), fileID)
	if err != nil {
		return fail(c, err, "Audio not found.")
	}
	if meta.Size > 0 {
		return c.SendStream(rc, int(meta.Size))
	}
	return c.SendStream(rc)
}

var (
	errMalformedRange     = errors.New("malformed range header")
	errUnsatisfiableRange = errors.New("unsatisfiable range")
)

// parseRange understands a single "bytes=start-end" range, including the
// open-ended and suffix forms. Multi-range requests are treated as malformed
// and served in full.
func parseRange(header string, size int64) (int64, int64, error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return 0, 0, errMalformedRange
	}

	rawStart, rawEnd, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, errMalformedRange
	}

	// suffix form: bytes=-N means the last N bytes
	if rawStart == "" {
		n, err := strconv.ParseInt(rawEnd, 10, 64)
		if err != nil {
			return 0, 0, errMalformedRange
		}
		if n <= 0 {
			return 0, 0, errUnsatisfiableRange
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, nil
	}

	start, err := strconv.ParseInt(rawStart, 10, 64)
	if err != nil {
		return 0, 0, errMalformedRange
	}

	end := size - 1
	if rawEnd != "" {
		end, err = strconv.ParseInt(rawEnd, 10, 64)
		if err != nil {
			return 0, 0, errMalformedRange
		}
		if end >= size {
			end = size - 1
		}
	}

	if start < 0 || start >= size || start > end {
		return 0, 0, errUnsatisfiableRange
	}
	return start, end, nil
}
