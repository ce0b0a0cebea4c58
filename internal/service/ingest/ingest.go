package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
	"github.com/Monce-AI/concierge.aws.monce.ai/pkg/log"
)

// Service turns typed extraction events into memory entries. Batches are
// deduplicated against already-stored extraction IDs and appended in a single
// store write, so ingesting N records costs one write, not N.
type Service struct {
	memories core.MemoryRepository
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(memories core.MemoryRepository, opts ...Option) *Service {
	s := &Service{memories: memories, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result reports what one ingest run did.
type Result struct {
	Ingested     int `json:"ingested"`
	Skipped      int `json:"skipped"`
	TotalFetched int `json:"total_fetched"`
}

// IngestExtractions stores one memory entry per extraction not seen before.
// Re-ingesting a batch of already-known IDs reports ingested=0, skipped=N.
func (s *Service) IngestExtractions(ctx context.Context, batch []core.Extraction) (Result, error) {
	existing, err := s.memories.LoadMemories(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load memories: %w", err)
	}

	seen := make(map[string]bool)
	for _, m := range existing {
		if !m.HasTag(core.TagExtraction) {
			continue
		}
		if id := extractionIDFromText(m.Text); id != "" {
			seen[id] = true
		}
	}

	var entries []core.MemoryEntry
	skipped := 0
	now := s.now().UTC()

	for _, ext := range batch {
		if ext.ID != "" && seen[ext.ID] {
			skipped++
			continue
		}
		seen[ext.ID] = true

		record := Record(ext)
		entry := core.MemoryEntry{
			Text:       fmt.Sprintf("ext_id=%s | %s", ext.ID, Summarize(ext)),
			Timestamp:  now,
			Source:     core.SourceMonceDB,
			Tags:       tagsFor(ext),
			Extraction: &record,
		}
		entries = append(entries, entry)
	}

	// Single write for the whole batch.
	if len(entries) > 0 {
		if _, err := s.memories.AppendMemories(ctx, entries); err != nil {
			return Result{}, fmt.Errorf("failed to append memories: %w", err)
		}
	}

	log.FromCtx(ctx).Info().
		Int("ingested", len(entries)).
		Int("skipped", skipped).
		Int("total_fetched", len(batch)).
		Msg("ingested extractions")

	return Result{Ingested: len(entries), Skipped: skipped, TotalFetched: len(batch)}, nil
}

// Summarize renders an extraction as the pipe-delimited summary collaborators
// and the digest decoder understand. It is a pure projection of the typed
// record, never the source of truth.
func Summarize(ext core.Extraction) string {
	var parts []string

	factory := factoryName(ext)
	if ext.TenantName != "" {
		parts = append(parts, fmt.Sprintf("[%s] (%s)", factory, ext.TenantName))
	} else {
		parts = append(parts, fmt.Sprintf("[%s]", factory))
	}

	parts = append(parts, "status="+statusOf(ext))

	if ext.Client != nil && ext.Client.Name != "" {
		client := ext.Client.Name
		if ext.Client.Number != "" {
			client += " #" + ext.Client.Number
		}
		parts = append(parts, fmt.Sprintf("client=%s (tier %s, %s)", client, ext.Client.Tier, ext.Client.Method))
	}

	if len(ext.Measurements) > 0 {
		parts = append(parts, fmt.Sprintf("%d line(s)", len(ext.Measurements)))

		if glasses := glassesOf(ext); len(glasses) > 0 {
			if len(glasses) > 3 {
				glasses = glasses[:3]
			}
			parts = append(parts, "glass: "+strings.Join(glasses, ", "))
		}
	}

	if ext.ProjectTitle != "" {
		title := ext.ProjectTitle
		if len(title) > 60 {
			title = title[:60]
		}
		parts = append(parts, fmt.Sprintf("project=%q", title))
	}

	if ext.MatchedRows > 0 {
		parts = append(parts, fmt.Sprintf("%d row(s) matched", ext.MatchedRows))
	}

	if ext.Confidence != nil {
		parts = append(parts, fmt.Sprintf("conf=%.0f%%", *ext.Confidence*100))
	}

	if len(ext.CreatedAt) >= 10 {
		parts = append(parts, "created="+ext.CreatedAt[:10])
	}

	return strings.Join(parts, " | ")
}

// Record builds the typed record persisted alongside the rendered text.
func Record(ext core.Extraction) core.ExtractionRecord {
	rec := core.ExtractionRecord{
		Factory:     factoryName(ext),
		Status:      statusOf(ext),
		Lines:       len(ext.Measurements),
		Glasses:     glassesOf(ext),
		Confidence:  ext.Confidence,
		MatchedRows: ext.MatchedRows,
	}
	if ext.Client != nil && ext.Client.Name != "" {
		rec.Client = ext.Client.Name
		if ext.Client.Number != "" {
			rec.Client += " #" + ext.Client.Number
		}
	}
	if len(ext.CreatedAt) >= 10 {
		rec.CreatedDate = ext.CreatedAt[:10]
	}
	return rec
}

func tagsFor(ext core.Extraction) []string {
	tags := []string{core.TagExtraction, statusOf(ext)}
	if ext.FactoryName != "" {
		tags = append(tags, ext.FactoryName)
	}
	return tags
}

func factoryName(ext core.Extraction) string {
	if ext.FactoryName != "" {
		return ext.FactoryName
	}
	if ext.FactoryID != 0 {
		return fmt.Sprintf("factory_%d", ext.FactoryID)
	}
	return "factory_?"
}

func statusOf(ext core.Extraction) string {
	if ext.Status == "" {
		return "unknown"
	}
	return ext.Status
}

func glassesOf(ext core.Extraction) []string {
	var glasses []string
	seen := make(map[string]bool)
	for _, m := range ext.Measurements {
		for _, g := range []string{m.Verre1, m.Verre2, m.Verre3} {
			if g != "" && !seen[g] {
				seen[g] = true
				glasses = append(glasses, g)
			}
		}
	}
	return glasses
}

func extractionIDFromText(text string) string {
	_, after, ok := strings.Cut(text, "ext_id=")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(after, " |"); i >= 0 {
		after = after[:i]
	}
	return strings.TrimSpace(after)
}
