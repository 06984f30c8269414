package entities

import (
	"encoding/json"
)

// MatchStrategy selects the SimilarityMatcher implementation.
type MatchStrategy string

const (
	MatchStrategySemantic MatchStrategy = "semantic"
	MatchStrategyFuzzy    MatchStrategy = "fuzzy"
)

// IsValid checks if the strategy value is one of the defined constants.
func (s MatchStrategy) IsValid() bool {
	switch s {
	case MatchStrategySemantic, MatchStrategyFuzzy:
		return true
	}
	return false
}

// MatchMethod records which stage resolved a correspondence entry.
type MatchMethod string

const (
	MatchMethodSemantic        MatchMethod = "semantic"
	MatchMethodFuzzy           MatchMethod = "fuzzy"
	MatchMethodFallbackPrefix  MatchMethod = "fallback-prefix"
	MatchMethodFallbackGeneric MatchMethod = "fallback-generic"
	MatchMethodNone            MatchMethod = "none"
)

// MethodForStrategy maps a matcher strategy to the method tag of its direct hits.
func MethodForStrategy(s MatchStrategy) MatchMethod {
	if s == MatchStrategyFuzzy {
		return MatchMethodFuzzy
	}
	return MatchMethodSemantic
}

// ServiceCandidate is a matched service with its similarity score.
type ServiceCandidate struct {
	Service string  `json:"service"`
	Score   float64 `json:"score"`
}

// Matched-on values for CorrespondenceEntry.MatchedOn.
const (
	MatchedOnSpecialty = "specialty"
	MatchedOnCategory  = "category"
)

// CorrespondenceEntry maps a clinical outcome to ranked services.
// Candidates are sorted by descending score and hold at most top_k items;
// Method is MatchMethodNone exactly when Candidates is empty.
type CorrespondenceEntry struct {
	Case       CaseIdentity       `json:"case"`
	Urgency    TriageLevel        `json:"urgency"`
	Specialty  string             `json:"specialty"`
	Candidates []ServiceCandidate `json:"candidates"`
	Method     MatchMethod        `json:"method"`
	MatchedOn  string             `json:"matched_on,omitempty"`
}

// Services returns the candidate service names in rank order.
func (e CorrespondenceEntry) Services() []string {
	out := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		out[i] = c.Service
	}
	return out
}

// Scores returns the candidate scores in rank order.
func (e CorrespondenceEntry) Scores() []float64 {
	out := make([]float64, len(e.Candidates))
	for i, c := range e.Candidates {
		out[i] = c.Score
	}
	return out
}

// HasMatch reports whether any stage produced a service.
func (e CorrespondenceEntry) HasMatch() bool {
	return e.Method != MatchMethodNone && len(e.Candidates) > 0
}

// TableParams is the parameter triple a correspondence table is built for.
type TableParams struct {
	Threshold float64       `json:"threshold"`
	TopK      int           `json:"top_k"`
	Method    MatchStrategy `json:"method"`
}

// CorrespondenceKey indexes the table.
type CorrespondenceKey struct {
	Urgency   TriageLevel
	Specialty string
}

type categoryKey struct {
	Category  string
	Urgency   TriageLevel
	Specialty string
}

// CorrespondenceTable maps (urgency, specialty) to a CorrespondenceEntry.
// Entries for special categories are additionally indexed by category.
// A table is immutable once built.
type CorrespondenceTable struct {
	Params TableParams
	// Strategy is the matcher actually used, which differs from
	// Params.Method when the semantic backend was unavailable.
	Strategy        MatchStrategy
	Snapshot        string
	Entries         []CorrespondenceEntry
	CategoryEntries []CorrespondenceEntry

	index         map[CorrespondenceKey]int
	categoryIndex map[categoryKey]int
}

// NewCorrespondenceTable creates an empty table.
func NewCorrespondenceTable(params TableParams, strategy MatchStrategy, snapshot string) *CorrespondenceTable {
	return &CorrespondenceTable{
		Params:        params,
		Strategy:      strategy,
		Snapshot:      snapshot,
		Entries:       []CorrespondenceEntry{},
		index:         make(map[CorrespondenceKey]int),
		categoryIndex: make(map[categoryKey]int),
	}
}

// Add stores entry under its (urgency, specialty) key unless the key is
// already present; the first entry for a key wins. Entries resolved from the
// case category are also stored under (category, urgency, specialty).
// Add reports whether the (urgency, specialty) entry was new.
func (t *CorrespondenceTable) Add(entry CorrespondenceEntry) bool {
	if entry.MatchedOn == MatchedOnCategory {
		ck := categoryKey{Category: entry.Case.Category, Urgency: entry.Urgency, Specialty: entry.Specialty}
		if _, exists := t.categoryIndex[ck]; !exists {
			t.categoryIndex[ck] = len(t.CategoryEntries)
			t.CategoryEntries = append(t.CategoryEntries, entry)
		}
	}

	key := CorrespondenceKey{Urgency: entry.Urgency, Specialty: entry.Specialty}
	if _, exists := t.index[key]; exists {
		return false
	}
	t.index[key] = len(t.Entries)
	t.Entries = append(t.Entries, entry)
	return true
}

// Lookup returns the entry for (urgency, specialty).
func (t *CorrespondenceTable) Lookup(urgency TriageLevel, specialty string) (CorrespondenceEntry, bool) {
	i, ok := t.index[CorrespondenceKey{Urgency: urgency, Specialty: specialty}]
	if !ok {
		return CorrespondenceEntry{}, false
	}
	return t.Entries[i], true
}

// LookupCategory prefers an entry resolved from the case category and falls
// back to the (urgency, specialty) entry.
func (t *CorrespondenceTable) LookupCategory(category string, urgency TriageLevel, specialty string) (CorrespondenceEntry, bool) {
	if category != "" {
		if i, ok := t.categoryIndex[categoryKey{Category: category, Urgency: urgency, Specialty: specialty}]; ok {
			return t.CategoryEntries[i], true
		}
	}
	return t.Lookup(urgency, specialty)
}

// Len returns the number of (urgency, specialty) entries.
func (t *CorrespondenceTable) Len() int {
	return len(t.Entries)
}

type correspondenceTableJSON struct {
	Params          TableParams           `json:"params"`
	Strategy        MatchStrategy         `json:"strategy"`
	Snapshot        string                `json:"snapshot"`
	Entries         []CorrespondenceEntry `json:"entries"`
	CategoryEntries []CorrespondenceEntry `json:"category_entries,omitempty"`
}

// MarshalJSON encodes the table in entry order.
func (t *CorrespondenceTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(correspondenceTableJSON{
		Params:          t.Params,
		Strategy:        t.Strategy,
		Snapshot:        t.Snapshot,
		Entries:         t.Entries,
		CategoryEntries: t.CategoryEntries,
	})
}

// UnmarshalJSON decodes a table and rebuilds its indexes.
func (t *CorrespondenceTable) UnmarshalJSON(data []byte) error {
	var raw correspondenceTableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = *NewCorrespondenceTable(raw.Params, raw.Strategy, raw.Snapshot)
	for _, e := range raw.Entries {
		key := CorrespondenceKey{Urgency: e.Urgency, Specialty: e.Specialty}
		if _, exists := t.index[key]; !exists {
			t.index[key] = len(t.Entries)
			t.Entries = append(t.Entries, e)
		}
	}
	for _, e := range raw.CategoryEntries {
		ck := categoryKey{Category: e.Case.Category, Urgency: e.Urgency, Specialty: e.Specialty}
		if _, exists := t.categoryIndex[ck]; !exists {
			t.categoryIndex[ck] = len(t.CategoryEntries)
			t.CategoryEntries = append(t.CategoryEntries, e)
		}
	}
	return nil
}
