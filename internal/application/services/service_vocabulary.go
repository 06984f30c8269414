package services

import (
	"sort"
	"strings"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
)

// ServiceVocabulary is the set of distinct services offered by cleaned
// providers, kept in ascending order so every consumer iterates it the same
// way.
type ServiceVocabulary struct {
	terms []string
	set   map[string]struct{}
}

// NewServiceVocabulary collects the distinct services of providers.
func NewServiceVocabulary(providers []entities.Provider) *ServiceVocabulary {
	set := make(map[string]struct{})
	for _, p := range providers {
		if p.Service == "" {
			continue
		}
		set[p.Service] = struct{}{}
	}
	return newVocabulary(set)
}

// NewServiceVocabularyFromTerms builds a vocabulary from service names.
func NewServiceVocabularyFromTerms(terms []string) *ServiceVocabulary {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return newVocabulary(set)
}

func newVocabulary(set map[string]struct{}) *ServiceVocabulary {
	terms := make([]string, 0, len(set))
	for t := range set {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return &ServiceVocabulary{terms: terms, set: set}
}

// Terms returns a copy of the services in ascending order.
func (v *ServiceVocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Len returns the number of distinct services.
func (v *ServiceVocabulary) Len() int {
	return len(v.terms)
}

// Contains reports whether a service is offered by some provider.
func (v *ServiceVocabulary) Contains(service string) bool {
	_, ok := v.set[service]
	return ok
}

// WithPrefixes returns the services starting with any of prefixes, in
// ascending order. No prefixes means the whole vocabulary.
func (v *ServiceVocabulary) WithPrefixes(prefixes []string) []string {
	if len(prefixes) == 0 {
		return v.Terms()
	}
	out := make([]string, 0, len(v.terms))
	for _, t := range v.terms {
		for _, p := range prefixes {
			if strings.HasPrefix(t, p) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
