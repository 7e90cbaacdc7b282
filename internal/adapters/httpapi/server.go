package httpapi

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"contentd/internal/ports/input"
	"contentd/internal/ports/output"
)

// Server is the HTTP adapter.
type Server struct {
	app     *fiber.App
	handler *Handler
	addr    string
	log     zerolog.Logger
}

// NewServer wires the handler into a fiber app.
func NewServer(addr string, resolution input.ResolutionUseCase, translator output.T, log zerolog.Logger) *Server {
	// Immutable: route params end up in cache keys that outlive the request.
	app := fiber.New(fiber.Config{
		AppName:               "contentd",
		DisableStartupMessage: true,
		Immutable:             true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
	})

	s := &Server{
		app:     app,
		handler: NewHandler(resolution, translator),
		addr:    addr,
		log:     log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(s.requestLogger)

	s.app.Get("/health", s.handler.Health)

	api := s.app.Group("/api")
	api.Get("/content/cache/stats", s.handler.CacheStats)
	api.Delete("/content/cache/clear", s.handler.ClearCache)
	api.Post("/cache/clear", s.handler.ClearCache)

	api.Get("/dropdowns/:screen/:language", cacheControl, s.handler.GetDropdowns)
	api.Get("/dropdowns/:screen/:language/:field", cacheControl, s.handler.GetField)
	api.Get("/content/:screen/:language", cacheControl, s.handler.GetContent)
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("🚀 Content API listening")
		errCh <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", s.addr, err)
		}
		return nil
	case <-ctx.Done():
		s.log.Info().Msg("🛑 Shutting down content API")
		return s.app.ShutdownWithTimeout(5 * time.Second)
	}
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("latency", time.Since(start)).
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Msg("request")
	return err
}

// cacheControl lets downstream caches keep successful reads but makes them
// revalidate against the ETag every time, so a server-side clear is visible
// on the next request.
func cacheControl(c *fiber.Ctx) error {
	err := c.Next()
	switch c.Response().StatusCode() {
	case fiber.StatusOK, fiber.StatusNotModified:
		c.Set(fiber.HeaderCacheControl, "no-cache")
	default:
		c.Set(fiber.HeaderCacheControl, "no-store")
	}
	return err
}
