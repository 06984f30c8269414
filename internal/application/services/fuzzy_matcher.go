package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/pkg/utils"
)

// FuzzyMatcher scores terms by the better of token-sort and token-set
// Levenshtein similarity, so "dermatologia" fully matches
// "consulta_dermatologia_telemedicina".
type FuzzyMatcher struct{}

// NewFuzzyMatcher creates a new fuzzy matcher
func NewFuzzyMatcher() *FuzzyMatcher {
	return &FuzzyMatcher{}
}

// Strategy implements SimilarityMatcher.
func (m *FuzzyMatcher) Strategy() entities.MatchStrategy {
	return entities.MatchStrategyFuzzy
}

// Match implements SimilarityMatcher.
func (m *FuzzyMatcher) Match(_ context.Context, query string, vocabulary []string, threshold float64, topK int) ([]entities.ServiceCandidate, error) {
	q := utils.NormalizeIdentifier(query)
	if q == "" || len(vocabulary) == 0 {
		return []entities.ServiceCandidate{}, nil
	}

	scores := make(map[string]float64, len(vocabulary))
	for _, term := range vocabulary {
		scores[term] = math.Max(TokenSortSimilarity(q, term), TokenSetSimilarity(q, term))
	}
	return rankCandidates(scores, threshold, topK), nil
}

// TokenSortSimilarity returns 1 - d/n where d is the Levenshtein distance
// between the inputs with their word tokens sorted and n the rune length of
// the longer one. Word order therefore does not matter.
func TokenSortSimilarity(a, b string) float64 {
	return editSimilarity(sortedTokens(a), sortedTokens(b))
}

// TokenSetSimilarity compares the shared tokens of a and b with each side's
// full token set and keeps the best score. When the tokens of one input are
// a subset of the other's the result is 1.
func TokenSetSimilarity(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var shared, onlyA, onlyB []string
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared = append(shared, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(shared, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := editSimilarity(withA, withB)
	if base != "" {
		best = math.Max(best, editSimilarity(base, withA))
		best = math.Max(best, editSimilarity(base, withB))
	}
	return best
}

func editSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range utils.Tokens(strings.ToLower(s)) {
		set[t] = struct{}{}
	}
	return set
}

func sortedTokens(s string) string {
	tokens := utils.Tokens(strings.ToLower(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
