package digest

import (
	"testing"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
)

func TestDecode_FullRecord(t *testing.T) {
	t.Parallel()
	entry := core.MemoryEntry{
		Text: `ext_id=42 | [FactoryA] status=verified | client=Dupont (tier 1, exact) | 3 line(s) | glass: Planilux, Securit | conf=92% | created=2024-05-01`,
		Tags: []string{"extraction"},
	}

	rec := Decode(entry)

	if rec.Factory != "FactoryA" {
		t.Errorf("factory = %q, want FactoryA", rec.Factory)
	}
	if rec.Status != "verified" {
		t.Errorf("status = %q, want verified", rec.Status)
	}
	if rec.Client != "Dupont" {
		t.Errorf("client = %q, want Dupont", rec.Client)
	}
	if rec.Lines != 3 {
		t.Errorf("lines = %d, want 3", rec.Lines)
	}
	if len(rec.Glasses) != 2 || rec.Glasses[0] != "Planilux" || rec.Glasses[1] != "Securit" {
		t.Errorf("glasses = %v", rec.Glasses)
	}
	if rec.Confidence == nil || *rec.Confidence != 0.92 {
		t.Errorf("confidence = %v, want 0.92", rec.Confidence)
	}
	if rec.CreatedDate != "2024-05-01" {
		t.Errorf("created_date = %q, want 2024-05-01", rec.CreatedDate)
	}
}

func TestDecode_SeparateSegments(t *testing.T) {
	t.Parallel()
	entry := core.MemoryEntry{
		Text: `ext_id=7 | [FactoryB] | status=extracted | client=Martin #123 (tier 2, sat) | 5 line(s) | 4 row(s) matched | conf=61% | created=2024-05-02T09:30:00Z`,
		Tags: []string{"extraction", "extracted", "FactoryB"},
	}

	rec := Decode(entry)

	if rec.Factory != "FactoryB" {
		t.Errorf("factory = %q, want FactoryB", rec.Factory)
	}
	if rec.Status != "extracted" {
		t.Errorf("status = %q, want extracted", rec.Status)
	}
	if rec.Client != "Martin #123" {
		t.Errorf("client = %q, want %q", rec.Client, "Martin #123")
	}
	if rec.MatchedRows != 4 {
		t.Errorf("matched_rows = %d, want 4", rec.MatchedRows)
	}
	if rec.Confidence == nil || *rec.Confidence != 0.61 {
		t.Errorf("confidence = %v, want 0.61", rec.Confidence)
	}
	// Only the date portion survives.
	if rec.CreatedDate != "2024-05-02" {
		t.Errorf("created_date = %q, want 2024-05-02", rec.CreatedDate)
	}
}

func TestDecode_TenantIgnored(t *testing.T) {
	t.Parallel()
	entry := core.MemoryEntry{
		Text: `ext_id=9 | [FactoryC] (TenantX) | status=verified`,
		Tags: []string{"extraction"},
	}

	rec := Decode(entry)
	if rec.Factory != "FactoryC" {
		t.Errorf("factory = %q, want FactoryC", rec.Factory)
	}
}

func TestDecode_FactoryFromTags(t *testing.T) {
	t.Parallel()
	entry := core.MemoryEntry{
		Text: `ext_id=11 | status=rejected`,
		Tags: []string{"extraction", "rejected", "FactoryD"},
	}

	rec := Decode(entry)
	if rec.Factory != "FactoryD" {
		t.Errorf("factory = %q, want FactoryD", rec.Factory)
	}
}

func TestDecode_NoFactoryAnywhere(t *testing.T) {
	t.Parallel()
	entry := core.MemoryEntry{
		Text: `status=unknown`,
		Tags: []string{"extraction", "unknown"},
	}

	rec := Decode(entry)
	if rec.Factory != "" {
		t.Errorf("factory = %q, want empty", rec.Factory)
	}
}

func TestDecode_MalformedNumbersSkipped(t *testing.T) {
	t.Parallel()
	entry := core.MemoryEntry{
		Text: `[F] | many line(s) | conf=high% | some row(s) matched`,
		Tags: []string{"extraction"},
	}

	rec := Decode(entry)
	if rec.Lines != 0 {
		t.Errorf("lines = %d, want 0", rec.Lines)
	}
	if rec.Confidence != nil {
		t.Errorf("confidence = %v, want nil", rec.Confidence)
	}
	if rec.MatchedRows != 0 {
		t.Errorf("matched_rows = %d, want 0", rec.MatchedRows)
	}
}

func TestDecode_UnknownSegmentsIgnored(t *testing.T) {
	t.Parallel()
	entry := core.MemoryEntry{
		Text: `[F] | project="Villa rénovation" | totally new segment | status=verified`,
		Tags: []string{"extraction"},
	}

	rec := Decode(entry)
	if rec.Factory != "F" {
		t.Errorf("factory = %q, want F", rec.Factory)
	}
	if rec.Status != "verified" {
		t.Errorf("status = %q, want verified", rec.Status)
	}
}
