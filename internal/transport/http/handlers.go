package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

type rememberRequest struct {
	Text   string   `json:"text"`
	Source string   `json:"source,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

type rememberResponse struct {
	Remembered bool             `json:"remembered"`
	Entry      core.MemoryEntry `json:"entry"`
}

type forgetRequest struct {
	Query string `json:"query"`
}

type forgetResponse struct {
	Forgotten int    `json:"forgotten"`
	Query     string `json:"query"`
}

type ingestRequest struct {
	Extractions []core.Extraction `json:"extractions"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	memories, err := s.memory.MemoryCount(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "store unavailable"})
	}
	conversations, err := s.memory.ConversationCount(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "store unavailable"})
	}
	return c.JSON(fiber.Map{
		"status":        "ok",
		"service":       "concierge",
		"memories":      memories,
		"conversations": conversations,
	})
}

func (s *Server) handleRemember(c *fiber.Ctx) error {
	var req rememberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid body"})
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "empty text"})
	}

	entry, err := s.memory.Add(c.Context(), text, req.Source, req.Tags)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to store memory"})
	}
	return c.JSON(rememberResponse{Remembered: true, Entry: entry})
}

func (s *Server) handleForget(c *fiber.Ctx) error {
	var req forgetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid body"})
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "empty query"})
	}

	forgotten, err := s.memory.Forget(c.Context(), query)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to forget"})
	}
	return c.JSON(forgetResponse{Forgotten: forgotten, Query: query})
}

// handleMemories returns memories most recent first, paged.
func (s *Server) handleMemories(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 0 {
		limit = 0
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, err := s.memory.AllMemories(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to load memories"})
	}

	total := len(entries)
	reversed := make([]core.MemoryEntry, 0, total)
	for i := total - 1; i >= 0; i-- {
		reversed = append(reversed, entries[i])
	}
	if offset > len(reversed) {
		offset = len(reversed)
	}
	page := reversed[offset:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}

	return c.JSON(fiber.Map{
		"total":    total,
		"offset":   offset,
		"limit":    limit,
		"memories": page,
	})
}

func (s *Server) handleMemoriesByTag(c *fiber.Ctx) error {
	tag := c.Params("tag")
	limit := c.QueryInt("limit", 100)

	entries, err := s.memory.MemoriesByTag(c.Context(), tag, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to load memories"})
	}
	return c.JSON(fiber.Map{"tag": tag, "memories": entries})
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "q parameter required"})
	}
	limit := c.QueryInt("limit", 50)

	results, err := s.memory.Search(c.Context(), query, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "search failed"})
	}
	return c.JSON(fiber.Map{"query": query, "results": results})
}

func (s *Server) handleConversations(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)

	entries, err := s.memory.RecentConversations(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to load conversations"})
	}
	return c.JSON(fiber.Map{"conversations": entries})
}

func (s *Server) handleDigests(c *fiber.Ctx) error {
	digests, err := s.digests.LoadDigests(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to load digests"})
	}
	return c.JSON(fiber.Map{"digests": digests})
}

func (s *Server) handleComputeDigests(c *fiber.Ctx) error {
	digests, err := s.engine.Compute(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "digest computation failed"})
	}
	return c.JSON(fiber.Map{"computed": len(digests), "digests": digests})
}

func (s *Server) handleIngest(c *fiber.Ctx) error {
	var req ingestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid body"})
	}
	if len(req.Extractions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "no extractions"})
	}

	result, err := s.ingest.IngestExtractions(c.Context(), req.Extractions)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "ingest failed"})
	}
	return c.JSON(result)
}

func (s *Server) handleManifest(c *fiber.Ctx) error {
	manifest, err := s.memory.Manifest()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to read manifest"})
	}
	return c.JSON(fiber.Map{"manifest": manifest})
}
