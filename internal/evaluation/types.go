package evaluation

import "time"

// Difficulty labels how hard a golden case is expected to be.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid checks if the difficulty is one of the defined constants. An empty
// difficulty is accepted.
func (d Difficulty) IsValid() bool {
	switch d {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// GoldenCase is a labeled triage outcome with the services a correct table
// should return for it.
type GoldenCase struct {
	ID               string     `json:"id" yaml:"id"`
	Category         string     `json:"category,omitempty" yaml:"category,omitempty"`
	Urgency          string     `json:"urgency" yaml:"urgency"`
	Specialty        string     `json:"specialty" yaml:"specialty"`
	ExpectedServices []string   `json:"expected_services" yaml:"expected_services"`
	Difficulty       Difficulty `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
}

// EvalResult holds the evaluation outcome for a single case.
type EvalResult struct {
	CaseID    string        `json:"case_id"`
	Urgency   string        `json:"urgency"`
	Specialty string        `json:"specialty"`
	Method    string        `json:"method"`
	Recall    float64       `json:"recall"`
	MRR       float64       `json:"mrr"`
	Retrieved []string      `json:"retrieved"`
	Latency   time.Duration `json:"latency"`
	Err       string        `json:"error,omitempty"`
}

// EvalSummary holds aggregate metrics across all golden cases.
type EvalSummary struct {
	K             int                        `json:"k"`
	TotalCases    int                        `json:"total_cases"`
	AvgRecall     float64                    `json:"avg_recall"`
	AvgMRR        float64                    `json:"avg_mrr"`
	AvgLatency    time.Duration              `json:"avg_latency"`
	CasesWithHits int                        `json:"cases_with_hits"`
	NoMatchCases  int                        `json:"no_match_cases"`
	Errors        int                        `json:"errors"`
	ByUrgency     map[string]*UrgencySummary `json:"by_urgency"`
	ByMethod      map[string]int             `json:"by_method"`
	Results       []EvalResult               `json:"results"`
}

// HitRate is the share of cases with at least one retrieved service.
func (s *EvalSummary) HitRate() float64 {
	if s.TotalCases == 0 {
		return 0
	}
	return float64(s.CasesWithHits) / float64(s.TotalCases)
}

// UrgencySummary holds metrics grouped by triage level.
type UrgencySummary struct {
	Count     int     `json:"count"`
	AvgRecall float64 `json:"avg_recall"`
	AvgMRR    float64 `json:"avg_mrr"`
}
