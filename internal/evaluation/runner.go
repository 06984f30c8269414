package evaluation

import (
	"context"
	"time"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/pkg/utils"
)

// ServiceResolver builds correspondence tables and resolves outcomes on them.
type ServiceResolver interface {
	BuildTable(ctx context.Context, params entities.TableParams) (*entities.CorrespondenceTable, error)
	GetRecommendedServices(ctx context.Context, table *entities.CorrespondenceTable, category string, urgency entities.TriageLevel, specialty string) (entities.CorrespondenceEntry, error)
}

// Runner runs evaluation across a set of golden cases.
type Runner struct {
	resolver ServiceResolver
}

func NewRunner(resolver ServiceResolver) *Runner {
	return &Runner{resolver: resolver}
}

// Run builds the table for params once and scores every case against it,
// with K equal to params.TopK. A case that fails to resolve is counted and
// scored zero; only a failed table build aborts the run.
func (r *Runner) Run(ctx context.Context, params entities.TableParams, cases []GoldenCase) (*EvalSummary, error) {
	table, err := r.resolver.BuildTable(ctx, params)
	if err != nil {
		return nil, err
	}

	summary := &EvalSummary{
		K:          params.TopK,
		TotalCases: len(cases),
		ByUrgency:  make(map[string]*UrgencySummary),
		ByMethod:   make(map[string]int),
		Results:    make([]EvalResult, 0, len(cases)),
	}

	for _, gc := range cases {
		summary.Results = append(summary.Results, r.evaluate(ctx, table, params.TopK, gc))
	}
	for _, res := range summary.Results {
		r.updateSummary(summary, res)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) evaluate(ctx context.Context, table *entities.CorrespondenceTable, k int, gc GoldenCase) EvalResult {
	res := EvalResult{CaseID: gc.ID, Specialty: gc.Specialty, Urgency: gc.Urgency}

	urgency, err := entities.ParseTriageLevel(gc.Urgency)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Urgency = urgency.String()

	start := time.Now()
	entry, err := r.resolver.GetRecommendedServices(ctx, table, gc.Category, urgency, gc.Specialty)
	res.Latency = time.Since(start)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	expected := make([]string, len(gc.ExpectedServices))
	for i, s := range gc.ExpectedServices {
		expected[i] = utils.NormalizeIdentifier(s)
	}

	res.Method = string(entry.Method)
	res.Retrieved = entry.Services()
	res.Recall = RecallAtK(expected, res.Retrieved, k)
	res.MRR = MRRAtK(expected, res.Retrieved, k)
	return res
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	if res.Err != "" {
		s.Errors++
	}
	s.AvgRecall += res.Recall
	s.AvgMRR += res.MRR
	s.AvgLatency += res.Latency
	if len(res.Retrieved) > 0 {
		s.CasesWithHits++
	} else if res.Err == "" {
		s.NoMatchCases++
	}
	if res.Method != "" {
		s.ByMethod[res.Method]++
	}

	if _, ok := s.ByUrgency[res.Urgency]; !ok {
		s.ByUrgency[res.Urgency] = &UrgencySummary{}
	}
	us := s.ByUrgency[res.Urgency]
	us.Count++
	us.AvgRecall += res.Recall
	us.AvgMRR += res.MRR
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalCases > 0 {
		n := float64(s.TotalCases)
		s.AvgRecall /= n
		s.AvgMRR /= n
		s.AvgLatency /= time.Duration(s.TotalCases)
	}

	for _, us := range s.ByUrgency {
		if us.Count > 0 {
			n := float64(us.Count)
			us.AvgRecall /= n
			us.AvgMRR /= n
		}
	}
}
