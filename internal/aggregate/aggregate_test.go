package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/civic-pulse/internal/model"
)

func bioRec(district, pincode string, age517, age17 int64) model.Record {
	return model.Record{District: district, Pincode: pincode, Counts: map[string]int64{
		"bio_age_5_17": age517, "bio_age_17_": age17,
	}}
}

func demoRec(district, pincode string, age517, age17 int64) model.Record {
	return model.Record{District: district, Pincode: pincode, Counts: map[string]int64{
		"demo_age_5_17": age517, "demo_age_17_": age17,
	}}
}

func enrolRec(district, pincode string, age05, age517, age18 int64) model.Record {
	return model.Record{District: district, Pincode: pincode, Counts: map[string]int64{
		"age_0_5": age05, "age_5_17": age517, "age_18_greater": age18,
	}}
}

func ds(cat model.Category, records ...model.Record) *model.Dataset {
	return &model.Dataset{Category: cat, Records: records}
}

func TestCategoryVolume_SumsAgeBands(t *testing.T) {
	vol := CategoryVolume(ds(model.CategoryEnrolment,
		enrolRec("Angul", "751001", 10, 5, 2),
		enrolRec("Angul", "751002", 1, 1, 1),
		enrolRec("Cuttack", "753001", 3, 0, 0),
	))

	assert.Equal(t, int64(20), vol["Angul"])
	assert.Equal(t, int64(3), vol["Cuttack"])
}

func TestCombine_TotalIsZeroFilledSum(t *testing.T) {
	bio := ds(model.CategoryBiometric, bioRec("Angul", "751001", 4, 6))
	demo := ds(model.CategoryDemographic, demoRec("Cuttack", "753001", 2, 3))
	enrol := ds(model.CategoryEnrolment, enrolRec("Angul", "751002", 1, 1, 1))

	v := Combine(bio, demo, enrol)

	// Angul appears in biometric and enrolment only; demographic contributes zero.
	assert.Equal(t, int64(13), v.Total["Angul"])
	assert.Equal(t, int64(5), v.Total["Cuttack"])

	// Per-district total equals the sum of the three category volumes.
	for district, total := range v.Total {
		var sum int64
		for _, cat := range model.Categories {
			sum += v.PerCategory[cat][district]
		}
		assert.Equal(t, sum, total, "district %s", district)
	}
}

func TestCombine_ActivePincodesUnion(t *testing.T) {
	// 751001 appears in two categories; it must count once.
	bio := ds(model.CategoryBiometric, bioRec("Angul", "751001", 1, 0))
	demo := ds(model.CategoryDemographic, demoRec("Angul", "751001", 1, 0))
	enrol := ds(model.CategoryEnrolment, enrolRec("Angul", "751002", 1, 0, 0))

	v := Combine(bio, demo, enrol)
	assert.Equal(t, int64(2), v.ActivePincodes["Angul"])
}

func TestCombine_EmptyPincodeIgnored(t *testing.T) {
	enrol := ds(model.CategoryEnrolment, enrolRec("Angul", "", 1, 0, 0))
	v := Combine(ds(model.CategoryBiometric), ds(model.CategoryDemographic), enrol)

	_, present := v.ActivePincodes["Angul"]
	assert.False(t, present)
	assert.Equal(t, int64(1), v.Total["Angul"])
}

func TestColumnSum(t *testing.T) {
	sums := ColumnSum(ds(model.CategoryEnrolment,
		enrolRec("Angul", "751001", 10, 5, 2),
		enrolRec("Angul", "751002", 4, 1, 9),
	), "age_0_5")

	require.Len(t, sums, 1)
	assert.Equal(t, int64(14), sums["Angul"])
}
