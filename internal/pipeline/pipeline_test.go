package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/civic-pulse/internal/config"
	"github.com/sells-group/civic-pulse/internal/model"
	"github.com/sells-group/civic-pulse/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	for _, dir := range []string{"bio", "demo", "enrol"} {
		require.NoError(t, os.Mkdir(filepath.Join(base, dir), 0o755))
	}
	return &config.Config{
		Input: config.InputConfig{
			BaseDir:        base,
			BiometricDir:   "bio",
			DemographicDir: "demo",
			EnrolmentDir:   "enrol",
			DateLayout:     "02-01-2006",
			Parallelism:    2,
		},
	}
}

func writeShard(t *testing.T, cfg *config.Config, dir, name, content string) {
	t.Helper()
	path := filepath.Join(cfg.Input.BaseDir, dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeFixtures seeds one CSV shard per category covering two districts. The
// Angul rows deliberately carry dirty labels ("orissa", "Angul ", "anugul")
// that normalization must fold into a single district.
func writeFixtures(t *testing.T, cfg *config.Config) {
	t.Helper()
	writeShard(t, cfg, "enrol", "shard_0.csv",
		"date,state,district,pincode,age_0_5,age_5_17,age_18_greater\n"+
			"01-03-2025,orissa,Angul ,759122,10,20,30\n"+
			"05-03-2025,Odisha,anugul,759100,5,10,15\n"+
			"01-03-2025,Odisha,Cuttack,753001,4,6,10\n")
	writeShard(t, cfg, "bio", "shard_0.csv",
		"date,state,district,pincode,bio_age_5_17,bio_age_17_\n"+
			"01-03-2025,Odisha,Angul,759122,8,12\n"+
			"01-03-2025,Odisha,Cuttack,753001,2,3\n")
	writeShard(t, cfg, "demo", "shard_0.csv",
		"date,state,district,pincode,demo_age_5_17,demo_age_17_\n"+
			"10-07-2025,Odisha,Angul,759122,3,4\n"+
			"10-07-2025,Odisha,Cuttack,753001,1,1\n")
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	writeFixtures(t, cfg)

	result, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	// Districts: the three dirty Angul spellings collapse into one row.
	require.Len(t, result.Districts, 2)

	angul := result.Districts[0]
	assert.Equal(t, "Angul", angul.District)
	assert.Equal(t, "Odisha", angul.State)
	assert.Equal(t, int64(117), angul.TotalVolume) // 90 enrol + 20 bio + 7 demo
	assert.Equal(t, int64(2), angul.ActivePincodes)
	assert.InDelta(t, 58.5, angul.SPSScore, 1e-9)
	assert.Equal(t, int64(8), angul.ChildUpdates517)
	assert.Equal(t, int64(53), angul.TotalChildActivity)
	assert.InDelta(t, 8.0/53.0, angul.ComplianceShare, 1e-9)

	cuttack := result.Districts[1]
	assert.Equal(t, "Cuttack", cuttack.District)
	assert.Equal(t, int64(27), cuttack.TotalVolume)
	assert.Equal(t, int64(1), cuttack.ActivePincodes)
	assert.InDelta(t, 27.0, cuttack.SPSScore, 1e-9)
	assert.InDelta(t, 2.0/12.0, cuttack.ComplianceShare, 1e-9)

	// Two-point population: the lower share scores -1, the higher +1.
	assert.InDelta(t, -1.0, angul.CLCSZScore, 1e-9)
	assert.InDelta(t, 1.0, cuttack.CLCSZScore, 1e-9)

	// State rollup recomputes scores from summed raw fields.
	require.Len(t, result.States, 1)
	odisha := result.States[0]
	assert.Equal(t, "Odisha", odisha.State)
	assert.Equal(t, int64(144), odisha.TotalVolume)
	assert.Equal(t, int64(3), odisha.ActivePincodes)
	assert.Equal(t, int64(10), odisha.ChildUpdates517)
	assert.Equal(t, int64(65), odisha.TotalChildActivity)
	assert.Equal(t, int64(2), odisha.NumDistricts)
	assert.InDelta(t, 48.0, odisha.SPSScore, 1e-9)
	assert.InDelta(t, 10.0/65.0, odisha.ComplianceShare, 1e-9)
	assert.Zero(t, odisha.CLCSZScore) // single state, zero variance

	// Trends: sorted by district then month, seasonally tagged.
	require.Len(t, result.Trends, 4)
	assert.Equal(t, model.TrendPoint{District: "Angul", Month: "2025-03", Volume: 110, SeasonType: "Financial Year End"}, result.Trends[0])
	assert.Equal(t, model.TrendPoint{District: "Angul", Month: "2025-07", Volume: 7, SeasonType: "School Rush"}, result.Trends[1])
	assert.Equal(t, model.TrendPoint{District: "Cuttack", Month: "2025-03", Volume: 25, SeasonType: "Financial Year End"}, result.Trends[2])
	assert.Equal(t, model.TrendPoint{District: "Cuttack", Month: "2025-07", Volume: 2, SeasonType: "School Rush"}, result.Trends[3])
}

func TestRun_MissingCategoryIsFatal(t *testing.T) {
	cfg := testConfig(t)
	// Only enrolment shards; the biometric directory stays empty.
	writeShard(t, cfg, "enrol", "shard_0.csv",
		"date,state,district,pincode,age_0_5,age_5_17,age_18_greater\n"+
			"01-03-2025,Odisha,Angul,759122,1,2,3\n")

	result, err := New(cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "biometric")
}

func TestRun_AllGarbageCategoryIsFatal(t *testing.T) {
	cfg := testConfig(t)
	writeFixtures(t, cfg)

	// The biometric shard loads fine but every row normalizes away: no state
	// label maps onto the canonical taxonomy. The category has zero usable
	// records and the run must abort, not report zeroed biometric volumes.
	writeShard(t, cfg, "bio", "shard_0.csv",
		"date,state,district,pincode,bio_age_5_17,bio_age_17_\n"+
			"01-03-2025,100000,Angul,759122,8,12\n"+
			"01-03-2025,state,Cuttack,753001,2,3\n")

	result, err := New(cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "no usable records")
	assert.Contains(t, err.Error(), "biometric")
}

func TestRun_PersistsToStore(t *testing.T) {
	cfg := testConfig(t)
	writeFixtures(t, cfg)

	ctx := context.Background()
	st, err := store.New(ctx, config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "civic.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	result, err := New(cfg, st).Run(ctx)
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)

	saved, err := st.LatestResult(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Districts, saved.Districts)
	assert.Equal(t, result.States, saved.States)
	assert.Equal(t, result.Trends, saved.Trends)
}
