package metrics

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/civic-pulse/internal/model"
)

// Season tags.
const (
	SeasonSchoolRush       = "School Rush"
	SeasonYearEnd          = "Year End"
	SeasonFinancialYearEnd = "Financial Year End"
	SeasonNormal           = "Normal"
)

// SeasonType classifies a calendar month. Total over months 1-12.
func SeasonType(month time.Month) string {
	switch month {
	case time.June, time.July, time.August:
		return SeasonSchoolRush
	case time.December:
		return SeasonYearEnd
	case time.March, time.April:
		return SeasonFinancialYearEnd
	default:
		return SeasonNormal
	}
}

// monthKey is the year-month output form.
const monthKey = "2006-01"

// MonthlyTrend buckets activity volume by (district, calendar month) across
// all three datasets and attaches the seasonal tag. Records whose date does
// not parse under the fixed layout are excluded from bucketing only; their
// volume still counts toward the district totals computed by the aggregator.
func MonthlyTrend(dateLayout string, datasets ...*model.Dataset) []model.TrendPoint {
	type bucket struct {
		district string
		month    time.Time
	}

	volumes := make(map[bucket]int64)
	skipped := 0

	for _, ds := range datasets {
		cols := model.VolumeColumns[ds.Category]
		for _, r := range ds.Records {
			t, err := time.Parse(dateLayout, r.Date)
			if err != nil {
				skipped++
				continue
			}
			var v int64
			for _, col := range cols {
				v += r.Counts[col]
			}
			b := bucket{
				district: r.District,
				month:    time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC),
			}
			volumes[b] += v
		}
	}

	if skipped > 0 {
		zap.L().Debug("excluded rows with unparseable dates from monthly trend",
			zap.Int("rows", skipped),
		)
	}

	points := make([]model.TrendPoint, 0, len(volumes))
	for b, v := range volumes {
		points = append(points, model.TrendPoint{
			District:   b.district,
			Month:      b.month.Format(monthKey),
			Volume:     v,
			SeasonType: SeasonType(b.month.Month()),
		})
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].District != points[j].District {
			return points[i].District < points[j].District
		}
		return points[i].Month < points[j].Month
	})
	return points
}
