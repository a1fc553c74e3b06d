// Package compile joins metrics to geography and emits the three output
// tables.
package compile

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/civic-pulse/internal/aggregate"
	"github.com/sells-group/civic-pulse/internal/metrics"
	"github.com/sells-group/civic-pulse/internal/model"
)

// Districts builds the district metrics table. The CLCS z-score is
// benchmarked over the full unfiltered district distribution before the
// geography join; districts with no resolvable state are then dropped
// (dropUnmappedGeography policy) since a metric without a state cannot be
// reported upward. Numeric fields missing because a district appears in only
// some categories are filled with zero (fillMissingNumericWithZero policy).
func Districts(vol *aggregate.Volumes, comp *metrics.Compliance, geo map[string]string) []model.DistrictMetrics {
	zscores := metrics.ZScores(comp.Share)

	names := districtUnion(vol, comp)

	rows := make([]model.DistrictMetrics, 0, len(names))
	dropped := 0
	for _, district := range names {
		state, ok := geo[district]
		if !ok {
			dropped++
			continue // dropUnmappedGeography
		}

		// Map lookups zero-fill structurally absent values.
		totalVolume := vol.Total[district]
		pins := vol.ActivePincodes[district]

		rows = append(rows, model.DistrictMetrics{
			District:           district,
			State:              state,
			TotalVolume:        totalVolume,
			ActivePincodes:     pins,
			SPSScore:           metrics.SPS(totalVolume, pins),
			ChildUpdates517:    comp.ChildUpdates[district],
			TotalChildActivity: comp.TotalChildActivity[district],
			ComplianceShare:    comp.Share[district],
			CLCSZScore:         zscores[district],
		})
	}

	if dropped > 0 {
		zap.L().Info("dropped districts with no resolvable state", zap.Int("districts", dropped))
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].District < rows[j].District })
	return rows
}

// districtUnion lists every district seen in any aggregate, sorted.
func districtUnion(vol *aggregate.Volumes, comp *metrics.Compliance) []string {
	set := make(map[string]bool)
	for d := range vol.Total {
		set[d] = true
	}
	for d := range vol.ActivePincodes {
		set[d] = true
	}
	for d := range comp.TotalChildActivity {
		set[d] = true
	}

	names := make([]string, 0, len(set))
	for d := range set {
		names = append(names, d)
	}
	sort.Strings(names)
	return names
}

// States rolls district metrics up to state level. All raw countable fields
// are summed and the scores recomputed from those sums exactly as at
// district level; district ratios are never averaged. The state z-score is
// benchmarked independently over the state ratio distribution and is not
// comparable with district z-scores.
func States(districts []model.DistrictMetrics) []model.StateMetrics {
	byState := make(map[string]*model.StateMetrics)
	for _, d := range districts {
		s, ok := byState[d.State]
		if !ok {
			s = &model.StateMetrics{State: d.State}
			byState[d.State] = s
		}
		s.TotalVolume += d.TotalVolume
		s.ActivePincodes += d.ActivePincodes
		s.ChildUpdates517 += d.ChildUpdates517
		s.TotalChildActivity += d.TotalChildActivity
		s.NumDistricts++
	}

	shares := make(map[string]float64, len(byState))
	for state, s := range byState {
		s.SPSScore = metrics.SPS(s.TotalVolume, s.ActivePincodes)
		s.ComplianceShare = metrics.ComplianceShare(s.ChildUpdates517, s.TotalChildActivity)
		shares[state] = s.ComplianceShare
	}
	zscores := metrics.ZScores(shares)

	rows := make([]model.StateMetrics, 0, len(byState))
	for state, s := range byState {
		s.CLCSZScore = zscores[state]
		rows = append(rows, *s)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].State < rows[j].State })
	return rows
}
