package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
	"github.com/Monce-AI/concierge.aws.monce.ai/pkg/log"
)

const dateLayout = "2006-01-02"

// Engine recomputes the digest collection from the full extraction-tagged
// memory set. Every run is a full recompute followed by a whole-collection
// replace; an empty extraction set persists an empty set, clearing stale
// digests. Output depends only on the stored memories and the clock, so two
// runs over the same store with the same clock are byte-identical.
type Engine struct {
	memories core.MemoryRepository
	digests  core.DigestRepository
	now      func() time.Time
}

type Option func(*Engine)

// WithClock pins the computation instant.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(memories core.MemoryRepository, digests core.DigestRepository, opts ...Option) *Engine {
	e := &Engine{memories: memories, digests: digests, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute derives all digest types from the current memory set and replaces
// the persisted digest collection with the result.
func (e *Engine) Compute(ctx context.Context) ([]core.Digest, error) {
	entries, err := e.memories.LoadMemories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load memories: %w", err)
	}

	var records []core.ExtractionRecord
	for _, m := range entries {
		if !m.HasTag(core.TagExtraction) {
			continue
		}
		if m.Extraction != nil {
			records = append(records, *m.Extraction)
		} else {
			records = append(records, Decode(m))
		}
	}

	digests := build(records, e.now().UTC())

	if err := e.digests.SaveDigests(ctx, digests); err != nil {
		return nil, fmt.Errorf("failed to save digests: %w", err)
	}

	log.FromCtx(ctx).Info().
		Int("extractions", len(records)).
		Int("digests", len(digests)).
		Msg("computed digests")

	return digests, nil
}

func build(records []core.ExtractionRecord, now time.Time) []core.Digest {
	if len(records) == 0 {
		return nil
	}

	weekAgo := now.AddDate(0, 0, -7).Format(dateLayout)
	twoWeeksAgo := now.AddDate(0, 0, -14).Format(dateLayout)

	var digests []core.Digest
	add := func(typ core.DigestType, factory, text string, data any) {
		raw, _ := json.Marshal(data)
		digests = append(digests, core.Digest{
			Text:      text,
			Type:      typ,
			Factory:   factory,
			Timestamp: now,
			Data:      json.RawMessage(raw),
		})
	}

	// 1. Overall summary
	statuses := newCounter()
	factories := newCounter()
	totalLines := 0
	for _, r := range records {
		statuses.add(statusOf(r))
		factories.add(factoryOf(r))
		totalLines += r.Lines
	}
	add(core.DigestOverall, "", fmt.Sprintf(
		"[DIGEST] Overall: %d extractions ingested | Status: %s | Factories: %s | Total measurement lines: %d",
		len(records), renderCounts(statuses.pairs()), renderCounts(factories.pairs()), totalLines),
		OverallData{Total: len(records), Statuses: statuses.pairs(), Factories: factories.pairs(), TotalLines: totalLines})

	// 2. Top clients per factory
	var factoryOrder []string
	factoryClients := make(map[string]*counter)
	for _, r := range records {
		if r.Client == "" {
			continue
		}
		f := factoryOf(r)
		c, ok := factoryClients[f]
		if !ok {
			c = newCounter()
			factoryClients[f] = c
			factoryOrder = append(factoryOrder, f)
		}
		c.add(r.Client)
	}
	for _, f := range factoryOrder {
		clients := factoryClients[f]
		top := clients.top(15)
		add(core.DigestTopClients, f, fmt.Sprintf(
			"[DIGEST] Top clients [%s]: %s | Total unique clients: %d",
			f, renderRanked(top), clients.len()),
			TopClientsData{Factory: f, Clients: top, UniqueClients: clients.len()})
	}

	// 3. Daily volume trends
	daily := newCounter()
	for _, r := range records {
		if r.CreatedDate != "" {
			daily.add(r.CreatedDate)
		}
	}
	if daily.len() > 0 {
		days := daily.pairs()
		sort.SliceStable(days, func(i, j int) bool { return days[i].Key < days[j].Key })
		if len(days) > 14 {
			days = days[len(days)-14:]
		}
		var lines []string
		for _, d := range days {
			lines = append(lines, fmt.Sprintf("%s: %d", d.Key, d.Count))
		}
		add(core.DigestDailyVolume,
			"", "[DIGEST] Daily extraction volume (last 14d): "+strings.Join(lines, ", "),
			DailyVolumeData{Days: days})
	}

	// 4. Glass type frequency
	glasses := newCounter()
	for _, r := range records {
		for _, g := range r.Glasses {
			glasses.add(g)
		}
	}
	if glasses.len() > 0 {
		top := glasses.top(20)
		add(core.DigestGlassTypes, "", "[DIGEST] Top glass types: "+renderRanked(top),
			GlassTypesData{Glasses: top})
	}

	// 5. Matching quality
	matched := 0
	var confs []float64
	for _, r := range records {
		if r.MatchedRows > 0 {
			matched++
		}
		if r.Confidence != nil {
			confs = append(confs, *r.Confidence)
		}
	}
	avgConf := 0.0
	for _, c := range confs {
		avgConf += c
	}
	if len(confs) > 0 {
		avgConf /= float64(len(confs))
	}
	matchedPct := float64(matched) / float64(len(records)) * 100
	add(core.DigestMatchingQuality, "", fmt.Sprintf(
		"[DIGEST] Matching quality: %d/%d extractions matched (%.1f%%) | Avg confidence: %.1f%% (across %d scored extractions)",
		matched, len(records), matchedPct, avgConf*100, len(confs)),
		MatchingQualityData{Total: len(records), Matched: matched, MatchedPct: matchedPct, AvgConfidence: avgConf, Scored: len(confs)})

	// 6. Weekly client rankings (last 7 days)
	weeklyClients := newCounter()
	weeklyCount := 0
	for _, r := range records {
		if r.CreatedDate != "" && r.CreatedDate >= weekAgo {
			weeklyCount++
			if r.Client != "" {
				weeklyClients.add(r.Client)
			}
		}
	}
	if weeklyClients.len() > 0 {
		top := weeklyClients.top(15)
		add(core.DigestWeeklyClients, "", fmt.Sprintf(
			"[DIGEST] This week's top clients (since %s): %s | Total extractions this week: %d",
			weekAgo, renderRanked(top), weeklyCount),
			WeeklyClientsData{Since: weekAgo, Clients: top, Total: weeklyCount})
	}

	// 7. New/emerging clients (first seen in the last 7 days)
	oldClients := newStringSet()
	recentClients := newCounter()
	for _, r := range records {
		if r.Client == "" || r.CreatedDate == "" {
			continue
		}
		if r.CreatedDate < weekAgo {
			oldClients.add(r.Client)
		} else {
			recentClients.add(r.Client)
		}
	}
	var emerging []KeyCount
	for _, kc := range recentClients.pairs() {
		if !oldClients.has(kc.Key) {
			emerging = append(emerging, kc)
		}
	}
	if len(emerging) > 0 {
		newTotal := len(emerging)
		sort.SliceStable(emerging, func(i, j int) bool { return emerging[i].Count > emerging[j].Count })
		if len(emerging) > 15 {
			emerging = emerging[:15]
		}
		var lines []string
		for _, kc := range emerging {
			lines = append(lines, fmt.Sprintf("%s (%d orders)", kc.Key, kc.Count))
		}
		add(core.DigestNewClients, "", fmt.Sprintf(
			"[INTELLIGENCE] New clients this week (not seen before %s): %s | %d new clients total",
			weekAgo, strings.Join(lines, ", "), newTotal),
			NewClientsData{Since: weekAgo, Clients: emerging, NewTotal: newTotal})
	}

	// 8/9. Client volume anomalies (week-over-week spikes and drops)
	prevWeek := newCounter()
	currWeek := newCounter()
	for _, r := range records {
		if r.Client == "" || r.CreatedDate == "" {
			continue
		}
		switch {
		case r.CreatedDate >= twoWeeksAgo && r.CreatedDate < weekAgo:
			prevWeek.add(r.Client)
		case r.CreatedDate >= weekAgo:
			currWeek.add(r.Client)
		}
	}
	var spikes, drops []VolumeChange
	for _, client := range unionKeys(prevWeek, currWeek) {
		prev := prevWeek.get(client)
		curr := currWeek.get(client)
		if prev >= 3 && curr >= prev*2 {
			spikes = append(spikes, VolumeChange{Client: client, Prev: prev, Curr: curr})
		} else if prev >= 3 && float64(curr) <= float64(prev)*0.3 {
			drops = append(drops, VolumeChange{Client: client, Prev: prev, Curr: curr})
		}
	}
	if len(spikes) > 0 {
		sort.SliceStable(spikes, func(i, j int) bool { return spikes[i].Curr > spikes[j].Curr })
		if len(spikes) > 10 {
			spikes = spikes[:10]
		}
		var lines []string
		for _, v := range spikes {
			gain := (float64(v.Curr)/float64(v.Prev) - 1) * 100
			lines = append(lines, fmt.Sprintf("%s (%d→%d, +%.0f%%)", v.Client, v.Prev, v.Curr, gain))
		}
		add(core.DigestVolumeSpikes,
			"", "[INTELLIGENCE] Volume spikes (2x+ week-over-week): "+strings.Join(lines, ", "),
			VolumeChangesData{Changes: spikes})
	}
	if len(drops) > 0 {
		sort.SliceStable(drops, func(i, j int) bool { return drops[i].Prev > drops[j].Prev })
		if len(drops) > 10 {
			drops = drops[:10]
		}
		var lines []string
		for _, v := range drops {
			loss := (1 - float64(v.Curr)/float64(v.Prev)) * 100
			lines = append(lines, fmt.Sprintf("%s (%d→%d, -%.0f%%)", v.Client, v.Prev, v.Curr, loss))
		}
		add(core.DigestVolumeDrops,
			"", "[INTELLIGENCE] Volume drops (70%+ decline week-over-week): "+strings.Join(lines, ", "),
			VolumeChangesData{Changes: drops})
	}

	// 10. New glass types appearing this week
	oldGlasses := newStringSet()
	recentGlasses := newCounter()
	for _, r := range records {
		if r.CreatedDate == "" {
			continue
		}
		for _, g := range r.Glasses {
			if r.CreatedDate < weekAgo {
				oldGlasses.add(g)
			} else {
				recentGlasses.add(g)
			}
		}
	}
	var emergingGlass []KeyCount
	for _, kc := range recentGlasses.pairs() {
		if !oldGlasses.has(kc.Key) {
			emergingGlass = append(emergingGlass, kc)
		}
	}
	if len(emergingGlass) > 0 {
		sort.SliceStable(emergingGlass, func(i, j int) bool { return emergingGlass[i].Count > emergingGlass[j].Count })
		if len(emergingGlass) > 10 {
			emergingGlass = emergingGlass[:10]
		}
		var lines []string
		for _, kc := range emergingGlass {
			lines = append(lines, fmt.Sprintf("%s (%dx)", kc.Key, kc.Count))
		}
		add(core.DigestNewGlassTypes,
			"", "[INTELLIGENCE] New glass types this week (not seen before): "+strings.Join(lines, ", "),
			NewGlassTypesData{Glasses: emergingGlass})
	}

	// 11. Client product diversification
	var newOrder []string
	oldByClient := make(map[string]*stringSet)
	newByClient := make(map[string]*stringSet)
	for _, r := range records {
		if r.Client == "" || r.CreatedDate == "" {
			continue
		}
		target := oldByClient
		if r.CreatedDate >= weekAgo {
			target = newByClient
			if _, ok := newByClient[r.Client]; !ok {
				newOrder = append(newOrder, r.Client)
			}
		}
		set, ok := target[r.Client]
		if !ok {
			set = newStringSet()
			target[r.Client] = set
		}
		for _, g := range r.Glasses {
			set.add(g)
		}
	}
	var diversifying []DiversifyingClient
	for _, client := range newOrder {
		old, ok := oldByClient[client]
		if !ok {
			continue
		}
		if newTypes := newByClient[client].diff(old); len(newTypes) > 0 {
			diversifying = append(diversifying, DiversifyingClient{Client: client, NewTypes: newTypes})
		}
	}
	if len(diversifying) > 0 {
		total := len(diversifying)
		sort.SliceStable(diversifying, func(i, j int) bool {
			return len(diversifying[i].NewTypes) > len(diversifying[j].NewTypes)
		})
		if len(diversifying) > 10 {
			diversifying = diversifying[:10]
		}
		var lines []string
		for _, d := range diversifying {
			examples := d.NewTypes
			if len(examples) > 3 {
				examples = examples[:3]
			}
			lines = append(lines, fmt.Sprintf("%s (+%s)", d.Client, strings.Join(examples, ", ")))
		}
		add(core.DigestDiversification, "", fmt.Sprintf(
			"[INTELLIGENCE] Clients ordering new product types this week: %s | %d clients diversifying",
			strings.Join(lines, ", "), total),
			DiversificationData{Clients: diversifying, Total: total})
	}

	// 12. Low-confidence hotspots
	lowClients := newCounter()
	lowFactories := newCounter()
	for _, r := range records {
		if r.Confidence == nil || *r.Confidence >= 0.7 {
			continue
		}
		if r.Client != "" {
			lowClients.add(r.Client)
		}
		if r.Factory != "" {
			lowFactories.add(r.Factory)
		}
	}
	if lowClients.len() > 0 || lowFactories.len() > 0 {
		var parts []string
		if lowClients.len() > 0 {
			parts = append(parts, "clients: "+renderRanked(lowClients.top(10)))
		}
		if lowFactories.len() > 0 {
			parts = append(parts, "factories: "+renderRanked(lowFactories.top(10)))
		}
		add(core.DigestLowConfidence, "", fmt.Sprintf(
			"[INTELLIGENCE] Low-confidence matches (<70%%): %s | These may need synonym additions on Snake",
			strings.Join(parts, " | ")),
			LowConfidenceData{Clients: lowClients.top(10), Factories: lowFactories.top(10)})
	}

	// 13. Factory activity distribution shift
	prevFactory := newCounter()
	currFactory := newCounter()
	for _, r := range records {
		if r.CreatedDate == "" {
			continue
		}
		switch {
		case r.CreatedDate >= twoWeeksAgo && r.CreatedDate < weekAgo:
			prevFactory.add(factoryOf(r))
		case r.CreatedDate >= weekAgo:
			currFactory.add(factoryOf(r))
		}
	}
	prevTotal := prevFactory.sum()
	if prevTotal == 0 {
		prevTotal = 1
	}
	currTotal := currFactory.sum()
	if currTotal == 0 {
		currTotal = 1
	}
	var shifts []FactoryShift
	for _, f := range unionKeys(prevFactory, currFactory) {
		prevPct := float64(prevFactory.get(f)) / float64(prevTotal) * 100
		currPct := float64(currFactory.get(f)) / float64(currTotal) * 100
		if math.Abs(currPct-prevPct) > 5 {
			shifts = append(shifts, FactoryShift{Factory: f, PrevPct: prevPct, CurrPct: currPct})
		}
	}
	if len(shifts) > 0 {
		sort.SliceStable(shifts, func(i, j int) bool {
			return math.Abs(shifts[i].CurrPct-shifts[i].PrevPct) > math.Abs(shifts[j].CurrPct-shifts[j].PrevPct)
		})
		var lines []string
		for _, s := range shifts {
			lines = append(lines, fmt.Sprintf("%s (%.0f%%→%.0f%%)", s.Factory, s.PrevPct, s.CurrPct))
		}
		add(core.DigestFactoryShifts,
			"", "[INTELLIGENCE] Factory volume share shifts (>5pt change): "+strings.Join(lines, ", "),
			FactoryShiftsData{Shifts: shifts})
	}

	return digests
}

func statusOf(r core.ExtractionRecord) string {
	if r.Status == "" {
		return "unknown"
	}
	return r.Status
}

func factoryOf(r core.ExtractionRecord) string {
	if r.Factory == "" {
		return "unknown"
	}
	return r.Factory
}

// unionKeys merges key sets preserving first-seen order across both counters.
func unionKeys(a, b *counter) []string {
	keys := make([]string, 0, len(a.keys)+len(b.keys))
	keys = append(keys, a.keys...)
	for _, k := range b.keys {
		if !a.has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func renderCounts(pairs []KeyCount) string {
	var parts []string
	for _, kc := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%d", kc.Key, kc.Count))
	}
	return strings.Join(parts, ", ")
}

func renderRanked(pairs []KeyCount) string {
	var parts []string
	for _, kc := range pairs {
		parts = append(parts, fmt.Sprintf("%s (%d)", kc.Key, kc.Count))
	}
	return strings.Join(parts, ", ")
}
