package geography

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/civic-pulse/internal/model"
)

func enrolment(records ...model.Record) *model.Dataset {
	return &model.Dataset{Category: model.CategoryEnrolment, Records: records}
}

func rec(state, district string) model.Record {
	return model.Record{State: state, District: district}
}

func TestResolve_MajorityVote(t *testing.T) {
	geo := Resolve(enrolment(
		rec("Telangana", "Adilabad"),
		rec("Telangana", "Adilabad"),
		rec("Maharashtra", "Adilabad"),
	))

	assert.Equal(t, "Telangana", geo["Adilabad"])
}

func TestResolve_TieBreaksToFirstEncountered(t *testing.T) {
	geo := Resolve(enrolment(
		rec("Chhattisgarh", "Bijapur"),
		rec("Karnataka", "Bijapur"),
	))

	assert.Equal(t, "Chhattisgarh", geo["Bijapur"])
}

func TestResolve_SingleObservation(t *testing.T) {
	geo := Resolve(enrolment(rec("Odisha", "Angul")))
	assert.Equal(t, "Odisha", geo["Angul"])
}

func TestResolve_OneStatePerDistrict(t *testing.T) {
	geo := Resolve(enrolment(
		rec("Odisha", "Angul"),
		rec("Odisha", "Cuttack"),
		rec("Kerala", "Idukki"),
		rec("Odisha", "Angul"),
	))

	assert.Len(t, geo, 3)
	assert.Equal(t, "Odisha", geo["Angul"])
	assert.Equal(t, "Odisha", geo["Cuttack"])
	assert.Equal(t, "Kerala", geo["Idukki"])
}

func TestResolve_Empty(t *testing.T) {
	geo := Resolve(enrolment())
	assert.Empty(t, geo)
}
