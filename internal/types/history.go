package types

// HistoryStats summarizes the record log and candidate store.
type HistoryStats struct {
	Captures         int            `json:"captures"`
	Discoveries      int            `json:"discoveries"`
	UniqueTools      int            `json:"uniqueTools"`
	StoredCandidates int            `json:"storedCandidates"`
	FreshDiscoveries int            `json:"freshDiscoveries"`
	MethodTypeCounts map[string]int `json:"methodTypeCounts,omitempty"`
	RecordBackend    string         `json:"recordBackend"`
}
