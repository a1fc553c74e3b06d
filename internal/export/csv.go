// Package export writes the three result tables as delimited files.
package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/civic-pulse/internal/model"
)

// Output table headers. Column names and order are the downstream contract;
// reporting and charting collaborators read nothing else.
var (
	districtHeader = []string{
		"district", "state", "total_volume", "active_pincodes", "sps_score",
		"child_updates_5_17", "total_child_activity", "compliance_share", "clcs_zscore",
	}
	stateHeader = []string{
		"state", "total_volume", "active_pincodes", "child_updates_5_17",
		"total_child_activity", "num_districts", "sps_score", "compliance_share", "clcs_zscore",
	}
	trendHeader = []string{"district", "month", "volume", "season_type"}
)

// WriteAll writes the three tables into dir under the given file names.
// Files are written only after the whole result is computed; a failed run
// leaves no partial tables behind.
func WriteAll(result *model.Result, dir, districtFile, stateFile, trendsFile string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir %s", dir)
	}

	if err := writeDistricts(filepath.Join(dir, districtFile), result.Districts); err != nil {
		return err
	}
	if err := writeStates(filepath.Join(dir, stateFile), result.States); err != nil {
		return err
	}
	if err := writeTrends(filepath.Join(dir, trendsFile), result.Trends); err != nil {
		return err
	}

	zap.L().Info("result tables written",
		zap.String("dir", dir),
		zap.Int("districts", len(result.Districts)),
		zap.Int("states", len(result.States)),
		zap.Int("trend_points", len(result.Trends)),
	)
	return nil
}

func writeDistricts(path string, rows []model.DistrictMetrics) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, districtHeader)
	for _, r := range rows {
		records = append(records, []string{
			r.District,
			r.State,
			formatInt(r.TotalVolume),
			formatInt(r.ActivePincodes),
			formatFloat(r.SPSScore),
			formatInt(r.ChildUpdates517),
			formatInt(r.TotalChildActivity),
			formatFloat(r.ComplianceShare),
			formatFloat(r.CLCSZScore),
		})
	}
	return writeCSV(path, records)
}

func writeStates(path string, rows []model.StateMetrics) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, stateHeader)
	for _, r := range rows {
		records = append(records, []string{
			r.State,
			formatInt(r.TotalVolume),
			formatInt(r.ActivePincodes),
			formatInt(r.ChildUpdates517),
			formatInt(r.TotalChildActivity),
			formatInt(r.NumDistricts),
			formatFloat(r.SPSScore),
			formatFloat(r.ComplianceShare),
			formatFloat(r.CLCSZScore),
		})
	}
	return writeCSV(path, records)
}

func writeTrends(path string, rows []model.TrendPoint) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, trendHeader)
	for _, r := range rows {
		records = append(records, []string{
			r.District,
			r.Month,
			formatInt(r.Volume),
			r.SeasonType,
		})
	}
	return writeCSV(path, records)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "export: flush %s", path)
	}
	return nil
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
