package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/gofiber/fiber/v2"

	"contentd/internal/domain"
)

// statusFor maps a resolution error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidScreen), errors.Is(err, domain.ErrInvalidLanguage):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// errorMessage resolves the user-facing message for err in lang. Store
// failures use fallbackKey; raw error text is never sent.
func (h *Handler) errorMessage(lang string, err error, fallbackKey string) string {
	switch domain.Code(err) {
	case "invalid_screen":
		return h.translator.T(lang, "api.invalid_screen", nil)
	case "invalid_language":
		return h.translator.T("", "api.invalid_language", nil)
	case "store_unavailable":
		return h.translator.T(lang, fallbackKey, nil)
	default:
		return h.translator.T(lang, "api.internal_error", nil)
	}
}

// sendRevalidated tags body with an ETag computed from data, the part of the
// payload that changes when content changes, and answers 304 when the client
// already holds that version.
func sendRevalidated(c *fiber.Ctx, body, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return c.JSON(body)
	}
	tag := fmt.Sprintf("%q", fmt.Sprintf("%016x", xxhash.Sum64(raw)))
	c.Set(fiber.HeaderETag, tag)
	if c.Get(fiber.HeaderIfNoneMatch) == tag {
		return c.SendStatus(fiber.StatusNotModified)
	}
	return c.JSON(body)
}
