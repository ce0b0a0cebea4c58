package digest

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
)

type fakeMemoryRepo struct {
	entries []core.MemoryEntry
}

func (f *fakeMemoryRepo) LoadMemories(ctx context.Context) ([]core.MemoryEntry, error) {
	return f.entries, nil
}

func (f *fakeMemoryRepo) SaveMemories(ctx context.Context, entries []core.MemoryEntry) error {
	f.entries = entries
	return nil
}

func (f *fakeMemoryRepo) AppendMemories(ctx context.Context, entries []core.MemoryEntry) ([]core.MemoryEntry, error) {
	f.entries = append(f.entries, entries...)
	return entries, nil
}

func (f *fakeMemoryRepo) Forget(ctx context.Context, query string) (int, error) {
	return 0, nil
}

type fakeDigestRepo struct {
	saves   int
	current []core.Digest
}

func (f *fakeDigestRepo) LoadDigests(ctx context.Context) ([]core.Digest, error) {
	return f.current, nil
}

func (f *fakeDigestRepo) SaveDigests(ctx context.Context, digests []core.Digest) error {
	f.saves++
	f.current = digests
	return nil
}

// fixedNow pins computations to a Wednesday so the week windows are
// 2024-05-08..now and 2024-05-01..2024-05-08.
var fixedNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(entries []core.MemoryEntry) (*Engine, *fakeDigestRepo) {
	digests := &fakeDigestRepo{}
	engine := NewEngine(&fakeMemoryRepo{entries: entries}, digests,
		WithClock(func() time.Time { return fixedNow }))
	return engine, digests
}

func extractionEntry(rec core.ExtractionRecord) core.MemoryEntry {
	return core.MemoryEntry{
		Text:       "ext",
		Source:     core.SourceMonceDB,
		Tags:       []string{core.TagExtraction},
		Extraction: &rec,
	}
}

func repeatEntries(n int, rec core.ExtractionRecord) []core.MemoryEntry {
	entries := make([]core.MemoryEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, extractionEntry(rec))
	}
	return entries
}

func findDigest(t *testing.T, digests []core.Digest, typ core.DigestType) core.Digest {
	t.Helper()
	for _, d := range digests {
		if d.Type == typ {
			return d
		}
	}
	t.Fatalf("no digest of type %q", typ)
	return core.Digest{}
}

func hasDigest(digests []core.Digest, typ core.DigestType) bool {
	for _, d := range digests {
		if d.Type == typ {
			return true
		}
	}
	return false
}

func TestCompute_VolumeSpikes(t *testing.T) {
	var entries []core.MemoryEntry
	// BETA: 3 prior week, 9 current week. Spike.
	entries = append(entries, repeatEntries(3, core.ExtractionRecord{
		Factory: "F1", Client: "BETA", Status: "verified", CreatedDate: "2024-05-03",
	})...)
	entries = append(entries, repeatEntries(9, core.ExtractionRecord{
		Factory: "F1", Client: "BETA", Status: "verified", CreatedDate: "2024-05-10",
	})...)
	// ACME: prev=2 is below the activity floor, so tripling is not a spike.
	entries = append(entries, repeatEntries(2, core.ExtractionRecord{
		Factory: "F1", Client: "ACME", Status: "verified", CreatedDate: "2024-05-04",
	})...)
	entries = append(entries, repeatEntries(6, core.ExtractionRecord{
		Factory: "F1", Client: "ACME", Status: "verified", CreatedDate: "2024-05-11",
	})...)

	engine, _ := newTestEngine(entries)
	digests, err := engine.Compute(context.Background())
	require.NoError(t, err)

	spike := findDigest(t, digests, core.DigestVolumeSpikes)
	var data VolumeChangesData
	require.NoError(t, json.Unmarshal(spike.Data, &data))
	require.Len(t, data.Changes, 1)
	assert.Equal(t, VolumeChange{Client: "BETA", Prev: 3, Curr: 9}, data.Changes[0])
	assert.Contains(t, spike.Text, "BETA (3→9, +200%)")
	assert.NotContains(t, spike.Text, "ACME")

	assert.False(t, hasDigest(digests, core.DigestVolumeDrops))
}

func TestCompute_VolumeDrops(t *testing.T) {
	var entries []core.MemoryEntry
	entries = append(entries, repeatEntries(10, core.ExtractionRecord{
		Factory: "F1", Client: "GAMMA", Status: "verified", CreatedDate: "2024-05-02",
	})...)
	entries = append(entries, repeatEntries(2, core.ExtractionRecord{
		Factory: "F1", Client: "GAMMA", Status: "verified", CreatedDate: "2024-05-12",
	})...)

	engine, _ := newTestEngine(entries)
	digests, err := engine.Compute(context.Background())
	require.NoError(t, err)

	drop := findDigest(t, digests, core.DigestVolumeDrops)
	var data VolumeChangesData
	require.NoError(t, json.Unmarshal(drop.Data, &data))
	require.Len(t, data.Changes, 1)
	assert.Equal(t, VolumeChange{Client: "GAMMA", Prev: 10, Curr: 2}, data.Changes[0])
	assert.Contains(t, drop.Text, "GAMMA (10→2, -80%)")

	// A client cannot spike and drop in the same run.
	assert.False(t, hasDigest(digests, core.DigestVolumeSpikes))
}

func TestCompute_Overall(t *testing.T) {
	entries := []core.MemoryEntry{
		extractionEntry(core.ExtractionRecord{Factory: "F1", Status: "verified", Lines: 3, CreatedDate: "2024-05-10"}),
		extractionEntry(core.ExtractionRecord{Factory: "F1", Status: "rejected", Lines: 2, CreatedDate: "2024-05-10"}),
		extractionEntry(core.ExtractionRecord{Factory: "F2", Status: "verified", Lines: 5, CreatedDate: "2024-05-11"}),
		{Text: "unrelated note", Tags: []string{"note"}},
	}

	engine, _ := newTestEngine(entries)
	digests, err := engine.Compute(context.Background())
	require.NoError(t, err)

	overall := findDigest(t, digests, core.DigestOverall)
	var data OverallData
	require.NoError(t, json.Unmarshal(overall.Data, &data))
	assert.Equal(t, 3, data.Total)
	assert.Equal(t, 10, data.TotalLines)
	assert.Equal(t, []KeyCount{{Key: "verified", Count: 2}, {Key: "rejected", Count: 1}}, data.Statuses)
	assert.Equal(t, []KeyCount{{Key: "F1", Count: 2}, {Key: "F2", Count: 1}}, data.Factories)
	assert.Contains(t, overall.Text, "3 extractions ingested")
}

func TestCompute_DecodeFallback(t *testing.T) {
	// Entries without a typed record are reconstructed from their text.
	entries := []core.MemoryEntry{
		{
			Text: "ext_id=1 | [FactoryA] | status=verified | client=Dupont (tier 1, exact) | created=2024-05-10",
			Tags: []string{core.TagExtraction, "verified", "FactoryA"},
		},
	}

	engine, _ := newTestEngine(entries)
	digests, err := engine.Compute(context.Background())
	require.NoError(t, err)

	overall := findDigest(t, digests, core.DigestOverall)
	assert.Contains(t, overall.Text, "FactoryA=1")

	weekly := findDigest(t, digests, core.DigestWeeklyClients)
	assert.Contains(t, weekly.Text, "Dupont (1)")
}

func TestCompute_NewClients(t *testing.T) {
	var entries []core.MemoryEntry
	// DELTA existed before the window, so it is not new.
	entries = append(entries, extractionEntry(core.ExtractionRecord{
		Factory: "F1", Client: "DELTA", Status: "verified", CreatedDate: "2024-04-20",
	}))
	entries = append(entries, extractionEntry(core.ExtractionRecord{
		Factory: "F1", Client: "DELTA", Status: "verified", CreatedDate: "2024-05-12",
	}))
	entries = append(entries, repeatEntries(2, core.ExtractionRecord{
		Factory: "F1", Client: "FRESH", Status: "verified", CreatedDate: "2024-05-13",
	})...)

	engine, _ := newTestEngine(entries)
	digests, err := engine.Compute(context.Background())
	require.NoError(t, err)

	newClients := findDigest(t, digests, core.DigestNewClients)
	var data NewClientsData
	require.NoError(t, json.Unmarshal(newClients.Data, &data))
	require.Len(t, data.Clients, 1)
	assert.Equal(t, KeyCount{Key: "FRESH", Count: 2}, data.Clients[0])
	assert.Contains(t, newClients.Text, "FRESH (2 orders)")
	assert.NotContains(t, newClients.Text, "DELTA")
}

func TestCompute_DatelessExcludedFromWindows(t *testing.T) {
	entries := []core.MemoryEntry{
		extractionEntry(core.ExtractionRecord{Factory: "F1", Client: "NODATE", Status: "verified"}),
	}

	engine, _ := newTestEngine(entries)
	digests, err := engine.Compute(context.Background())
	require.NoError(t, err)

	// Counted overall but absent from every dated section.
	overall := findDigest(t, digests, core.DigestOverall)
	assert.Contains(t, overall.Text, "1 extractions ingested")
	assert.False(t, hasDigest(digests, core.DigestDailyVolume))
	assert.False(t, hasDigest(digests, core.DigestWeeklyClients))
	assert.False(t, hasDigest(digests, core.DigestNewClients))
}

func TestCompute_LowConfidence(t *testing.T) {
	low := 0.55
	high := 0.92
	entries := []core.MemoryEntry{
		extractionEntry(core.ExtractionRecord{Factory: "F1", Client: "SHAKY", Confidence: &low, CreatedDate: "2024-05-10"}),
		extractionEntry(core.ExtractionRecord{Factory: "F1", Client: "SOLID", Confidence: &high, CreatedDate: "2024-05-10"}),
	}

	engine, _ := newTestEngine(entries)
	digests, err := engine.Compute(context.Background())
	require.NoError(t, err)

	lowConf := findDigest(t, digests, core.DigestLowConfidence)
	assert.Contains(t, lowConf.Text, "SHAKY (1)")
	assert.NotContains(t, lowConf.Text, "SOLID")
	assert.Contains(t, lowConf.Text, "F1 (1)")

	quality := findDigest(t, digests, core.DigestMatchingQuality)
	var data MatchingQualityData
	require.NoError(t, json.Unmarshal(quality.Data, &data))
	assert.Equal(t, 2, data.Scored)
	assert.InDelta(t, 0.735, data.AvgConfidence, 1e-9)
}

func TestCompute_Idempotent(t *testing.T) {
	var entries []core.MemoryEntry
	entries = append(entries, repeatEntries(4, core.ExtractionRecord{
		Factory: "F1", Client: "BETA", Status: "verified", Glasses: []string{"Planilux"}, CreatedDate: "2024-05-03",
	})...)
	entries = append(entries, repeatEntries(8, core.ExtractionRecord{
		Factory: "F2", Client: "BETA", Status: "extracted", Glasses: []string{"Securit"}, CreatedDate: "2024-05-10",
	})...)

	engine, repo := newTestEngine(entries)

	first, err := engine.Compute(context.Background())
	require.NoError(t, err)
	second, err := engine.Compute(context.Background())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, 2, repo.saves)
}

func TestCompute_EmptySetClearsStale(t *testing.T) {
	engine, repo := newTestEngine([]core.MemoryEntry{
		{Text: "plain note", Tags: []string{"note"}},
	})
	repo.current = []core.Digest{{Text: "stale", Type: core.DigestOverall}}

	digests, err := engine.Compute(context.Background())
	require.NoError(t, err)

	assert.Empty(t, digests)
	assert.Equal(t, 1, repo.saves)
	assert.Empty(t, repo.current)
}

func TestCompute_FactoryShifts(t *testing.T) {
	var entries []core.MemoryEntry
	// Prior week: F1 80%, F2 20%. Current week: F1 40%, F2 60%.
	entries = append(entries, repeatEntries(8, core.ExtractionRecord{Factory: "F1", Status: "verified", CreatedDate: "2024-05-02"})...)
	entries = append(entries, repeatEntries(2, core.ExtractionRecord{Factory: "F2", Status: "verified", CreatedDate: "2024-05-02"})...)
	entries = append(entries, repeatEntries(4, core.ExtractionRecord{Factory: "F1", Status: "verified", CreatedDate: "2024-05-12"})...)
	entries = append(entries, repeatEntries(6, core.ExtractionRecord{Factory: "F2", Status: "verified", CreatedDate: "2024-05-12"})...)

	engine, _ := newTestEngine(entries)
	digests, err := engine.Compute(context.Background())
	require.NoError(t, err)

	shifts := findDigest(t, digests, core.DigestFactoryShifts)
	assert.Contains(t, shifts.Text, "F1 (80%→40%)")
	assert.Contains(t, shifts.Text, "F2 (20%→60%)")
	// Both moved 40 points; first-seen order breaks the tie.
	require.True(t, strings.Index(shifts.Text, "F1") < strings.Index(shifts.Text, "F2"))
}
