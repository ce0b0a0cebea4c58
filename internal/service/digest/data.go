package digest

// Structured digest payloads, one tagged variant per digest type. The
// rendered Text on a core.Digest is always a pure projection of one of these.

type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type OverallData struct {
	Total      int        `json:"total"`
	Statuses   []KeyCount `json:"statuses"`
	Factories  []KeyCount `json:"factories"`
	TotalLines int        `json:"total_lines"`
}

type TopClientsData struct {
	Factory       string     `json:"factory"`
	Clients       []KeyCount `json:"clients"`
	UniqueClients int        `json:"unique_clients"`
}

type DailyVolumeData struct {
	Days []KeyCount `json:"days"`
}

type GlassTypesData struct {
	Glasses []KeyCount `json:"glasses"`
}

type MatchingQualityData struct {
	Total         int     `json:"total"`
	Matched       int     `json:"matched"`
	MatchedPct    float64 `json:"matched_pct"`
	AvgConfidence float64 `json:"avg_confidence"`
	Scored        int     `json:"scored"`
}

type WeeklyClientsData struct {
	Since   string     `json:"since"`
	Clients []KeyCount `json:"clients"`
	Total   int        `json:"total"`
}

type NewClientsData struct {
	Since    string     `json:"since"`
	Clients  []KeyCount `json:"clients"`
	NewTotal int        `json:"new_total"`
}

type VolumeChange struct {
	Client string `json:"client"`
	Prev   int    `json:"prev"`
	Curr   int    `json:"curr"`
}

type VolumeChangesData struct {
	Changes []VolumeChange `json:"changes"`
}

type NewGlassTypesData struct {
	Glasses []KeyCount `json:"glasses"`
}

type DiversifyingClient struct {
	Client   string   `json:"client"`
	NewTypes []string `json:"new_types"`
}

type DiversificationData struct {
	Clients []DiversifyingClient `json:"clients"`
	Total   int                  `json:"total"`
}

type LowConfidenceData struct {
	Clients   []KeyCount `json:"clients,omitempty"`
	Factories []KeyCount `json:"factories,omitempty"`
}

type FactoryShift struct {
	Factory string  `json:"factory"`
	PrevPct float64 `json:"prev_pct"`
	CurrPct float64 `json:"curr_pct"`
}

type FactoryShiftsData struct {
	Shifts []FactoryShift `json:"shifts"`
}
