package analyzer

import (
	"strings"

	"github.com/FranksOps/ducksearch/internal/serp"
)

// TermMatch reports how often a term appears across a result set.
type TermMatch struct {
	Term    string        `json:"term"`
	Count   int           `json:"count"`
	Results []serp.Result `json:"results"`
}

// MatchTerms scans result titles and descriptions for each term,
// case-insensitively, and returns one TermMatch per term that occurred at
// least once. Count sums occurrences over all results; Results lists the
// records the term appeared in, preserving their order.
func MatchTerms(results []serp.Result, terms []string) []TermMatch {
	if len(results) == 0 || len(terms) == 0 {
		return nil
	}

	// Pre-lowercase each result's searchable text once
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = strings.ToLower(r.Title + " " + r.Description)
	}

	matches := make([]TermMatch, 0, len(terms))
	for _, term := range terms {
		lowerTerm := strings.ToLower(term)
		if lowerTerm == "" {
			continue
		}

		m := TermMatch{Term: term}
		for i, text := range texts {
			n := strings.Count(text, lowerTerm)
			if n == 0 {
				continue
			}
			m.Count += n
			m.Results = append(m.Results, results[i])
		}
		if m.Count > 0 {
			matches = append(matches, m)
		}
	}
	return matches
}

// FilterByTerms keeps only results whose title or description contains at
// least one of the terms, case-insensitively. An empty term list keeps
// everything.
func FilterByTerms(results []serp.Result, terms []string) []serp.Result {
	if len(terms) == 0 {
		return results
	}

	lowerTerms := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(t); t != "" {
			lowerTerms = append(lowerTerms, t)
		}
	}
	if len(lowerTerms) == 0 {
		return results
	}

	var kept []serp.Result
	for _, r := range results {
		text := strings.ToLower(r.Title + " " + r.Description)
		for _, t := range lowerTerms {
			if strings.Contains(text, t) {
				kept = append(kept, r)
				break
			}
		}
	}
	return kept
}
