// Package geography derives the authoritative district-to-state mapping.
package geography

import (
	"go.uber.org/zap"

	"github.com/sells-group/civic-pulse/internal/model"
)

// Resolve computes one state per district by majority vote over normalized
// enrolment records, the most reliable source for geography. Ties break to
// the first-encountered state, so resolution is deterministic for a fixed
// record order.
//
// Districts sharing a name across two states collapse into whichever state
// wins the vote. Disambiguating them needs state-scoped keys the upstream
// lookup strategy does not have; this is a known accuracy limitation.
func Resolve(enrolment *model.Dataset) map[string]string {
	type vote struct {
		counts map[string]int
		order  []string // states in first-seen order, for tie-breaking
	}

	votes := make(map[string]*vote)
	for _, r := range enrolment.Records {
		v, ok := votes[r.District]
		if !ok {
			v = &vote{counts: make(map[string]int)}
			votes[r.District] = v
		}
		if _, seen := v.counts[r.State]; !seen {
			v.order = append(v.order, r.State)
		}
		v.counts[r.State]++
	}

	resolved := make(map[string]string, len(votes))
	conflicts := 0
	for district, v := range votes {
		best := v.order[0]
		for _, state := range v.order {
			if v.counts[state] > v.counts[best] {
				best = state
			}
		}
		if len(v.order) > 1 {
			conflicts++
		}
		resolved[district] = best
	}

	zap.L().Info("resolved district geography",
		zap.Int("districts", len(resolved)),
		zap.Int("multi_state_conflicts", conflicts),
	)
	return resolved
}
