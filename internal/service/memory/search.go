package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
)

const defaultSearchLimit = 50

// Search scores every memory against the whitespace-tokenized query: one
// point per token found as a substring of the lowercased text, two per token
// exactly equal to a lowercased tag. Zero-score entries are dropped, the rest
// are ordered by score descending with ties keeping store order.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]core.MemoryEntry, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	entries, err := s.memories.LoadMemories(ctx)
	if err != nil {
		return nil, err
	}

	tokens := strings.Fields(strings.ToLower(query))

	type scored struct {
		entry core.MemoryEntry
		score int
	}
	var matches []scored
	for _, entry := range entries {
		if score := scoreEntry(entry, tokens); score > 0 {
			matches = append(matches, scored{entry: entry, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	results := make([]core.MemoryEntry, len(matches))
	for i, m := range matches {
		results[i] = m.entry
	}
	return results, nil
}

func scoreEntry(entry core.MemoryEntry, tokens []string) int {
	text := strings.ToLower(entry.Text)
	tags := make(map[string]bool, len(entry.Tags))
	for _, t := range entry.Tags {
		tags[strings.ToLower(t)] = true
	}

	score := 0
	for _, token := range tokens {
		if strings.Contains(text, token) {
			score++
		}
		if tags[token] {
			score += 2 // tag match weights more
		}
	}
	return score
}
