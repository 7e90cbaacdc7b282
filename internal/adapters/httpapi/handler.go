package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"contentd/internal/ports/input"
	"contentd/internal/ports/output"
	"contentd/pkg/dropdown"
)

// Handler serves the read endpoints using the resolution use case.
type Handler struct {
	resolution input.ResolutionUseCase
	translator output.T
}

// NewHandler creates a Handler.
func NewHandler(resolution input.ResolutionUseCase, translator output.T) *Handler {
	return &Handler{
		resolution: resolution,
		translator: translator,
	}
}

// GetDropdowns handles GET /api/dropdowns/:screen/:language.
func (h *Handler) GetDropdowns(c *fiber.Ctx) error {
	screen, lang := c.Params("screen"), c.Params("language")
	resp, err := h.resolution.GetDropdowns(c.UserContext(), screen, lang)
	if err != nil {
		resp.Message = h.errorMessage(lang, err, "api.store_unavailable")
		return c.Status(statusFor(err)).JSON(resp)
	}
	return sendRevalidated(c, resp, resp.Structure)
}

// GetField handles GET /api/dropdowns/:screen/:language/:field.
func (h *Handler) GetField(c *fiber.Ctx) error {
	screen, lang, field := c.Params("screen"), c.Params("language"), c.Params("field")
	resp, err := h.resolution.GetField(c.UserContext(), screen, field, lang)
	if err != nil {
		resp.Message = h.errorMessage(lang, err, "api.store_unavailable")
		return c.Status(statusFor(err)).JSON(resp)
	}
	return sendRevalidated(c, resp, resp.FieldProps)
}

// GetContent handles GET /api/content/:screen/:language?type=.
func (h *Handler) GetContent(c *fiber.Ctx) error {
	screen, lang := c.Params("screen"), c.Params("language")
	resp, err := h.resolution.GetContent(c.UserContext(), screen, lang, c.Query("type"))
	if err != nil {
		resp.Message = h.errorMessage(lang, err, "api.content_unavailable")
		return c.Status(statusFor(err)).JSON(resp)
	}
	return sendRevalidated(c, resp, resp.Content)
}

// CacheStats handles GET /api/content/cache/stats.
func (h *Handler) CacheStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      dropdown.StatusSuccess,
		"cache_stats": h.resolution.CacheStats(),
	})
}

// ClearCache handles DELETE /api/content/cache/clear and POST /api/cache/clear.
func (h *Handler) ClearCache(c *fiber.Ctx) error {
	n := h.resolution.ClearCache()
	return c.JSON(fiber.Map{
		"status":       dropdown.StatusSuccess,
		"message":      h.translator.T(c.Query("lang"), "api.cache_cleared", nil),
		"keys_cleared": n,
	})
}

// Health handles GET /health.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
