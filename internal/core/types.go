package core

import (
	"encoding/json"
	"time"
)

// Known memory sources.
const (
	SourceMonceDB = "monce_db"
	SourceEmail   = "email"
	SourceSnake   = "snake"
)

// TagExtraction marks memories produced by the extraction ingest.
const TagExtraction = "extraction"

// ReservedTags are status words that never identify a factory when the
// factory has to be recovered from an entry's tags.
var ReservedTags = map[string]bool{
	"extraction": true,
	"verified":   true,
	"extracted":  true,
	"rejected":   true,
	"unknown":    true,
}

// MemoryEntry is one immutable record of the append-only memory log.
// Entries are never mutated or reordered after append; the only allowed
// mutation of the collection is a whole-collection rewrite (forget).
type MemoryEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source,omitempty"`
	Tags      []string  `json:"tags,omitempty"`

	// Extraction carries the typed record for extraction-sourced entries.
	// Text remains a rendered projection of it; entries created before the
	// typed contract existed carry only Text and are decoded on demand.
	Extraction *ExtractionRecord `json:"extraction,omitempty"`
}

// HasTag reports exact tag membership.
func (m MemoryEntry) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ConversationEntry is one user/assistant exchange. The persisted collection
// keeps only the most recent entries, oldest evicted first.
type ConversationEntry struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	Timestamp time.Time `json:"timestamp"`
}

// DigestType enumerates the aggregate summaries produced by the digest engine.
type DigestType string

const (
	DigestOverall         DigestType = "overall"
	DigestTopClients      DigestType = "top_clients"
	DigestDailyVolume     DigestType = "daily_volume"
	DigestGlassTypes      DigestType = "glass_types"
	DigestMatchingQuality DigestType = "matching_quality"
	DigestWeeklyClients   DigestType = "weekly_clients"
	DigestNewClients      DigestType = "new_clients"
	DigestVolumeSpikes    DigestType = "volume_spikes"
	DigestVolumeDrops     DigestType = "volume_drops"
	DigestNewGlassTypes   DigestType = "new_glass_types"
	DigestDiversification DigestType = "product_diversification"
	DigestLowConfidence   DigestType = "low_confidence_hotspots"
	DigestFactoryShifts   DigestType = "factory_shifts"
)

// Digest is one derived aggregate summary. Text is a human-readable rendering
// of Data, the type-tagged structured payload. The digest collection is
// replaced wholesale on every computation, never merged.
type Digest struct {
	Text      string          `json:"text"`
	Type      DigestType      `json:"type"`
	Factory   string          `json:"factory,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ExtractionRecord is the typed form of one extraction event. It is persisted
// on ingested entries and reconstructed best-effort from Text for entries
// that predate the typed contract. Absent fields stay zero; Confidence is a
// pointer so absence is distinguishable from 0.
type ExtractionRecord struct {
	Factory     string   `json:"factory,omitempty"`
	Client      string   `json:"client,omitempty"`
	Status      string   `json:"status,omitempty"`
	Lines       int      `json:"lines,omitempty"`
	Glasses     []string `json:"glasses,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	CreatedDate string   `json:"created_date,omitempty"` // YYYY-MM-DD
	MatchedRows int      `json:"matched_rows,omitempty"`
}

// ClientMatch identifies the client matched to an extraction and how the
// match was made.
type ClientMatch struct {
	Name   string `json:"nom"`
	Number string `json:"numero_client,omitempty"`
	Tier   string `json:"tier,omitempty"`
	Method string `json:"method,omitempty"`
}

// Measurement is one measurement line of an extracted order. Orders carry up
// to three glass references per line.
type Measurement struct {
	Verre1 string `json:"verre1,omitempty"`
	Verre2 string `json:"verre2,omitempty"`
	Verre3 string `json:"verre3,omitempty"`
}

// Extraction is a raw extraction event as fetched from monce_db, the typed
// input of the ingest service.
type Extraction struct {
	ID           string        `json:"id"`
	FactoryID    int           `json:"factory_id,omitempty"`
	FactoryName  string        `json:"factory_name,omitempty"`
	TenantName   string        `json:"tenant_name,omitempty"`
	Status       string        `json:"status,omitempty"`
	Client       *ClientMatch  `json:"client_matching,omitempty"`
	Measurements []Measurement `json:"measurements,omitempty"`
	ProjectTitle string        `json:"project_title,omitempty"`
	MatchedRows  int           `json:"matched_rows,omitempty"`
	Confidence   *float64      `json:"confidence,omitempty"`
	CreatedAt    string        `json:"created_at,omitempty"`
}
