// Package aggregate sums activity volumes and counts active service points
// per district.
package aggregate

import (
	"github.com/sells-group/civic-pulse/internal/model"
)

// Volumes holds per-district aggregates across all three categories.
type Volumes struct {
	// Total is the zero-fill sum of the three per-category volumes: a
	// district missing from one category contributes zero there, not null.
	Total map[string]int64
	// PerCategory keeps the individual category sums for auditing.
	PerCategory map[model.Category]map[string]int64
	// ActivePincodes counts distinct pincodes per district across the union
	// of all three categories; a pincode spanning categories counts once.
	ActivePincodes map[string]int64
}

// CategoryVolume sums a category's age-band count columns per district.
func CategoryVolume(ds *model.Dataset) map[string]int64 {
	cols := model.VolumeColumns[ds.Category]
	out := make(map[string]int64)
	for _, r := range ds.Records {
		var v int64
		for _, col := range cols {
			v += r.Counts[col]
		}
		out[r.District] += v
	}
	return out
}

// ColumnSum sums a single count column per district.
func ColumnSum(ds *model.Dataset, column string) map[string]int64 {
	out := make(map[string]int64)
	for _, r := range ds.Records {
		out[r.District] += r.Counts[column]
	}
	return out
}

// Combine computes total volumes and the active-pincode union over the three
// normalized datasets.
func Combine(bio, demo, enrol *model.Dataset) *Volumes {
	perCategory := map[model.Category]map[string]int64{
		model.CategoryBiometric:   CategoryVolume(bio),
		model.CategoryDemographic: CategoryVolume(demo),
		model.CategoryEnrolment:   CategoryVolume(enrol),
	}

	total := make(map[string]int64)
	for _, vols := range perCategory {
		for district, v := range vols {
			total[district] += v
		}
	}

	return &Volumes{
		Total:          total,
		PerCategory:    perCategory,
		ActivePincodes: activePincodes(bio, demo, enrol),
	}
}

// activePincodes counts distinct (district, pincode) pairs across categories.
func activePincodes(datasets ...*model.Dataset) map[string]int64 {
	seen := make(map[string]map[string]bool)
	for _, ds := range datasets {
		for _, r := range ds.Records {
			if r.Pincode == "" {
				continue
			}
			pins, ok := seen[r.District]
			if !ok {
				pins = make(map[string]bool)
				seen[r.District] = pins
			}
			pins[r.Pincode] = true
		}
	}

	out := make(map[string]int64, len(seen))
	for district, pins := range seen {
		out[district] = int64(len(pins))
	}
	return out
}
