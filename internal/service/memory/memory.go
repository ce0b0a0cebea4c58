package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
	"github.com/Monce-AI/concierge.aws.monce.ai/pkg/log"
)

// Service owns the memory and conversation collections and exposes the
// operations collaborators use: append, forget, retrieval and counts.
type Service struct {
	memories      core.MemoryRepository
	conversations core.ConversationRepository
	manifestPath  string
	now           func() time.Time
}

type Option func(*Service)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	memories core.MemoryRepository,
	conversations core.ConversationRepository,
	manifestPath string,
	opts ...Option,
) *Service {
	s := &Service{
		memories:      memories,
		conversations: conversations,
		manifestPath:  manifestPath,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends one entry with the current timestamp and returns it as stored.
// Callers adding many entries at once must go through the ingest service,
// which batches them into a single store write.
func (s *Service) Add(ctx context.Context, text, source string, tags []string) (core.MemoryEntry, error) {
	return s.AddEntry(ctx, core.MemoryEntry{Text: text, Source: source, Tags: tags})
}

// AddEntry appends one prepared entry, stamping it with the current time.
func (s *Service) AddEntry(ctx context.Context, entry core.MemoryEntry) (core.MemoryEntry, error) {
	entry.Timestamp = s.now().UTC()
	stored, err := s.memories.AppendMemories(ctx, []core.MemoryEntry{entry})
	if err != nil {
		return core.MemoryEntry{}, fmt.Errorf("failed to add memory: %w", err)
	}
	return stored[0], nil
}

// Forget removes every entry whose text contains query case-insensitively
// and returns the count removed.
func (s *Service) Forget(ctx context.Context, query string) (int, error) {
	forgotten, err := s.memories.Forget(ctx, query)
	if err != nil {
		return 0, err
	}
	log.FromCtx(ctx).Info().Str("query", query).Int("forgotten", forgotten).Msg("forgot memories")
	return forgotten, nil
}

// RecentMemories returns the n most recent entries in store order.
func (s *Service) RecentMemories(ctx context.Context, n int) ([]core.MemoryEntry, error) {
	entries, err := s.memories.LoadMemories(ctx)
	if err != nil {
		return nil, err
	}
	return lastN(entries, n), nil
}

// MemoriesByTag returns the most recent limit entries carrying tag, in store
// order. Membership is exact.
func (s *Service) MemoriesByTag(ctx context.Context, tag string, limit int) ([]core.MemoryEntry, error) {
	entries, err := s.memories.LoadMemories(ctx)
	if err != nil {
		return nil, err
	}
	var tagged []core.MemoryEntry
	for _, entry := range entries {
		if entry.HasTag(tag) {
			tagged = append(tagged, entry)
		}
	}
	return lastN(tagged, limit), nil
}

// AllMemories returns the full collection in store order.
func (s *Service) AllMemories(ctx context.Context) ([]core.MemoryEntry, error) {
	return s.memories.LoadMemories(ctx)
}

func (s *Service) SaveConversation(ctx context.Context, user, assistant string) error {
	return s.conversations.SaveConversation(ctx, user, assistant)
}

// RecentConversations returns the n most recent exchanges in store order.
func (s *Service) RecentConversations(ctx context.Context, n int) ([]core.ConversationEntry, error) {
	entries, err := s.conversations.LoadConversations(ctx)
	if err != nil {
		return nil, err
	}
	return lastN(entries, n), nil
}

func (s *Service) MemoryCount(ctx context.Context) (int, error) {
	entries, err := s.memories.LoadMemories(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (s *Service) ConversationCount(ctx context.Context) (int, error) {
	entries, err := s.conversations.LoadConversations(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Manifest returns the free-text manifest document, or a placeholder when
// none has been written yet.
func (s *Service) Manifest() (string, error) {
	data, err := os.ReadFile(s.manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "No manifest defined yet.", nil
		}
		return "", fmt.Errorf("failed to read manifest: %w", err)
	}
	return string(data), nil
}

func lastN[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[len(items)-n:]
}
