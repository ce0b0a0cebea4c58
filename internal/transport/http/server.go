package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/config"
	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
	"github.com/Monce-AI/concierge.aws.monce.ai/internal/service/digest"
	"github.com/Monce-AI/concierge.aws.monce.ai/internal/service/ingest"
	"github.com/Monce-AI/concierge.aws.monce.ai/internal/service/memory"
	"github.com/Monce-AI/concierge.aws.monce.ai/pkg/log"
)

// Server is the thin HTTP adapter over the memory core. It does no data
// modeling of its own; every route delegates to a service.
type Server struct {
	cfg     *config.ServerConfig
	memory  *memory.Service
	ingest  *ingest.Service
	engine  *digest.Engine
	digests core.DigestRepository
	app     *fiber.App
}

func NewServer(
	cfg *config.ServerConfig,
	mem *memory.Service,
	ing *ingest.Service,
	engine *digest.Engine,
	digests core.DigestRepository,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		cfg:     cfg,
		memory:  mem,
		ingest:  ing,
		engine:  engine,
		digests: digests,
		app:     app,
	}

	app.Get("/health", s.handleHealth)
	app.Post("/remember", s.handleRemember)
	app.Post("/forget", s.handleForget)
	app.Get("/memories", s.handleMemories)
	app.Get("/memories/tag/:tag", s.handleMemoriesByTag)
	app.Get("/search", s.handleSearch)
	app.Get("/conversations", s.handleConversations)
	app.Get("/digests", s.handleDigests)
	app.Post("/digests/compute", s.handleComputeDigests)
	app.Post("/ingest", s.handleIngest)
	app.Get("/manifest", s.handleManifest)

	return s
}

// Start implements srv.Service; it blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("listen", s.cfg.ListenAddr()).Msg("starting API server")
	return s.app.Listen(s.cfg.ListenAddr())
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
