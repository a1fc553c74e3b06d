// Package metrics computes the pipeline's three analytic pillars: the
// Service Pressure Score, the Child Lifecycle Compliance ratio with z-score
// benchmarking, and the monthly demand trend with seasonal tagging.
package metrics

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/civic-pulse/internal/aggregate"
	"github.com/sells-group/civic-pulse/internal/model"
)

// SPS is transaction volume per active service point. The denominator is
// floored at one so a district with no recorded pincodes still gets a
// defined (if extreme) score.
func SPS(totalVolume, activePincodes int64) float64 {
	return float64(totalVolume) / float64(floorOne(activePincodes))
}

// ComplianceShare is the share of child-related activity that is a biometric
// update rather than a first enrolment. The denominator floor can push the
// ratio above 1 for near-zero-denominator districts; the bound is not
// enforced.
func ComplianceShare(childUpdates, totalChildActivity int64) float64 {
	return float64(childUpdates) / float64(floorOne(totalChildActivity))
}

func floorOne(n int64) int64 {
	if n < 1 {
		return 1
	}
	return n
}

// Compliance holds the per-district child-activity aggregates.
type Compliance struct {
	ChildUpdates       map[string]int64   // biometric updates, ages 5-17
	TotalChildActivity map[string]int64   // updates + enrolments ages 0-5 and 5-17
	Share              map[string]float64 // zero-safe ratio
}

// ComputeCompliance aggregates child activity from the biometric and
// enrolment datasets. Every district appearing in either dataset gets a row;
// missing sides contribute zero.
func ComputeCompliance(bio, enrol *model.Dataset) *Compliance {
	updates := aggregate.ColumnSum(bio, model.ColBioChild)
	enrol05 := aggregate.ColumnSum(enrol, model.ColEnrolAge0_5)
	enrol517 := aggregate.ColumnSum(enrol, model.ColEnrolAge517)

	total := make(map[string]int64)
	for d, v := range updates {
		total[d] += v
	}
	for d, v := range enrol05 {
		total[d] += v
	}
	for d, v := range enrol517 {
		total[d] += v
	}

	share := make(map[string]float64, len(total))
	for d, t := range total {
		share[d] = ComplianceShare(updates[d], t)
	}

	return &Compliance{ChildUpdates: updates, TotalChildActivity: total, Share: share}
}

// ZScores benchmarks each value against the population mean and standard
// deviation of the full set. When the distribution has zero variance the
// z-score is undefined; every score is reported as 0 and a warning is
// logged rather than dividing by zero.
func ZScores(values map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	if len(values) == 0 {
		return out
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(values)))

	if std == 0 {
		zap.L().Warn("z-score distribution has zero variance, reporting zeros",
			zap.Int("values", len(values)),
			zap.Float64("mean", mean),
		)
		for k := range values {
			out[k] = 0
		}
		return out
	}

	for k, v := range values {
		out[k] = (v - mean) / std
	}
	return out
}
