package digest

import (
	"strconv"
	"strings"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
)

// Decode reconstructs the typed record from an entry's pipe-delimited summary
// text. It is a lossy, best-effort inverse of the ingest rendering: unknown
// segments are ignored and unparsable numbers leave the field absent, so
// decoding never fails. Entries carrying a typed record do not need it.
func Decode(entry core.MemoryEntry) core.ExtractionRecord {
	var rec core.ExtractionRecord

	for _, seg := range strings.Split(entry.Text, "|") {
		applySegment(&rec, strings.TrimSpace(seg))
	}

	// No factory segment: fall back to the first tag that is not a status word.
	if rec.Factory == "" {
		for _, t := range entry.Tags {
			if !core.ReservedTags[t] {
				rec.Factory = t
				break
			}
		}
	}

	return rec
}

func applySegment(rec *core.ExtractionRecord, seg string) {
	switch {
	case strings.HasPrefix(seg, "client="):
		v := strings.TrimPrefix(seg, "client=")
		if i := strings.Index(v, "("); i >= 0 {
			v = v[:i]
		}
		rec.Client = strings.TrimSpace(v)

	case strings.HasPrefix(seg, "["):
		name, rest, ok := strings.Cut(seg[1:], "]")
		if !ok {
			return
		}
		rec.Factory = strings.TrimSpace(name)
		// Trailing "(Tenant)" is ignored; anything else is reparsed so a
		// bracketed prefix does not swallow the rest of the segment.
		if rest = strings.TrimSpace(rest); rest != "" && !strings.HasPrefix(rest, "(") {
			applySegment(rec, rest)
		}

	case strings.HasPrefix(seg, "status="):
		rec.Status = strings.TrimSpace(strings.TrimPrefix(seg, "status="))

	case strings.Contains(seg, "line(s)"):
		if n, err := strconv.Atoi(firstField(seg)); err == nil {
			rec.Lines = n
		}

	case strings.HasPrefix(seg, "glass:"):
		for _, g := range strings.Split(strings.TrimPrefix(seg, "glass:"), ",") {
			if g = strings.TrimSpace(g); g != "" {
				rec.Glasses = append(rec.Glasses, g)
			}
		}

	case strings.HasPrefix(seg, "conf="):
		v := strings.TrimSuffix(strings.TrimPrefix(seg, "conf="), "%")
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			conf := p / 100
			rec.Confidence = &conf
		}

	case strings.HasPrefix(seg, "created="):
		v := strings.TrimSpace(strings.TrimPrefix(seg, "created="))
		if len(v) > 10 {
			v = v[:10] // date portion only
		}
		rec.CreatedDate = v

	case strings.Contains(seg, "row(s) matched"):
		if n, err := strconv.Atoi(firstField(seg)); err == nil {
			rec.MatchedRows = n
		}
	}
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
