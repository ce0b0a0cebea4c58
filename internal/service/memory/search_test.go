package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
)

func TestSearch_Scoring(t *testing.T) {
	svc, _ := newTestService(t, []core.MemoryEntry{
		{Text: "verified order for Dupont", Tags: []string{"extraction"}},          // text only: 1
		{Text: "rejected order", Tags: []string{"verified"}},                       // tag only: 2
		{Text: "verified again", Tags: []string{"verified"}},                       // text + tag: 3
		{Text: "nothing relevant here", Tags: []string{"note"}},                    // 0, dropped
		{Text: "VERIFIED uppercase text", Tags: []string{"Verified", "uppercase"}}, // case-insensitive: 3
	})

	results, err := svc.Search(context.Background(), "verified", 10)
	require.NoError(t, err)
	require.Len(t, results, 4)

	// Score descending, ties in store order.
	assert.Equal(t, "verified again", results[0].Text)
	assert.Equal(t, "VERIFIED uppercase text", results[1].Text)
	assert.Equal(t, "rejected order", results[2].Text)
	assert.Equal(t, "verified order for Dupont", results[3].Text)
}

func TestSearch_MultiToken(t *testing.T) {
	svc, _ := newTestService(t, []core.MemoryEntry{
		{Text: "Dupont ordered Planilux"},
		{Text: "Dupont ordered Securit"},
		{Text: "Martin ordered Planilux"},
	})

	results, err := svc.Search(context.Background(), "dupont planilux", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	// Both tokens match only the first entry.
	assert.Equal(t, "Dupont ordered Planilux", results[0].Text)
}

func TestSearch_TagNeverLowersScore(t *testing.T) {
	base := core.MemoryEntry{Text: "shipment delayed", Tags: []string{"logistics"}}
	tagged := base
	tagged.Tags = append([]string{"delayed"}, base.Tags...)

	before := scoreEntry(base, []string{"delayed"})
	after := scoreEntry(tagged, []string{"delayed"})
	assert.GreaterOrEqual(t, after, before)
	assert.Equal(t, before+2, after)
}

func TestSearch_Limit(t *testing.T) {
	var entries []core.MemoryEntry
	for i := 0; i < 60; i++ {
		entries = append(entries, core.MemoryEntry{Text: "glass order"})
	}
	svc, _ := newTestService(t, entries)

	results, err := svc.Search(context.Background(), "glass", 5)
	require.NoError(t, err)
	assert.Len(t, results, 5)

	// Zero limit falls back to the default.
	results, err = svc.Search(context.Background(), "glass", 0)
	require.NoError(t, err)
	assert.Len(t, results, defaultSearchLimit)
}

func TestSearch_NoMatches(t *testing.T) {
	svc, _ := newTestService(t, []core.MemoryEntry{
		{Text: "some entry"},
	})

	results, err := svc.Search(context.Background(), "absent", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
