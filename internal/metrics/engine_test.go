package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/civic-pulse/internal/model"
)

func TestSPS(t *testing.T) {
	assert.Equal(t, 50.0, SPS(100, 2))
	assert.Equal(t, 100.0, SPS(100, 1))
	// Zero active pincodes must not divide by zero.
	assert.Equal(t, 100.0, SPS(100, 0))
	assert.Equal(t, 0.0, SPS(0, 0))
}

func TestComplianceShare_ZeroDenominator(t *testing.T) {
	// A district with zero total child activity yields 0/1 = 0, not a fault.
	assert.Equal(t, 0.0, ComplianceShare(0, 0))
	// The floor can push the ratio outside [0,1] near zero; not enforced.
	assert.Equal(t, 5.0, ComplianceShare(5, 0))
}

func TestComputeCompliance(t *testing.T) {
	bio := &model.Dataset{Category: model.CategoryBiometric, Records: []model.Record{
		{District: "Angul", Counts: map[string]int64{"bio_age_5_17": 30, "bio_age_17_": 99}},
	}}
	enrol := &model.Dataset{Category: model.CategoryEnrolment, Records: []model.Record{
		{District: "Angul", Counts: map[string]int64{"age_0_5": 50, "age_5_17": 20, "age_18_greater": 77}},
		{District: "Cuttack", Counts: map[string]int64{"age_0_5": 10, "age_5_17": 0, "age_18_greater": 5}},
	}}

	c := ComputeCompliance(bio, enrol)

	// numerator = 30, denominator = 30 + 50 + 20 = 100
	assert.Equal(t, int64(30), c.ChildUpdates["Angul"])
	assert.Equal(t, int64(100), c.TotalChildActivity["Angul"])
	assert.InDelta(t, 0.3, c.Share["Angul"], 1e-12)

	// Cuttack has enrolments but no updates.
	assert.Equal(t, int64(0), c.ChildUpdates["Cuttack"])
	assert.Equal(t, int64(10), c.TotalChildActivity["Cuttack"])
	assert.InDelta(t, 0.0, c.Share["Cuttack"], 1e-12)

	// Adult columns must not leak into child activity.
	assert.NotContains(t, []int64{129, 206}, c.TotalChildActivity["Angul"])
}

func TestZScores_PopulationMoments(t *testing.T) {
	z := ZScores(map[string]float64{"a": 0.2, "b": 0.4, "c": 0.6})

	// mean 0.4, population std sqrt(0.08/3)
	std := math.Sqrt(0.08 / 3)
	assert.InDelta(t, -0.2/std, z["a"], 1e-9)
	assert.InDelta(t, 0, z["b"], 1e-9)
	assert.InDelta(t, 0.2/std, z["c"], 1e-9)

	// The z distribution itself has mean 0 and std 1.
	var sum float64
	for _, v := range z {
		sum += v
	}
	mean := sum / float64(len(z))
	assert.InDelta(t, 0, mean, 1e-9)

	var sq float64
	for _, v := range z {
		sq += (v - mean) * (v - mean)
	}
	assert.InDelta(t, 1, math.Sqrt(sq/float64(len(z))), 1e-9)
}

func TestZScores_ZeroVariance(t *testing.T) {
	z := ZScores(map[string]float64{"a": 0.5, "b": 0.5})
	require.Len(t, z, 2)
	assert.Equal(t, 0.0, z["a"])
	assert.Equal(t, 0.0, z["b"])
}

func TestZScores_Empty(t *testing.T) {
	assert.Empty(t, ZScores(nil))
}
