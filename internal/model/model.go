// Package model defines the record and table types shared across pipeline stages.
package model

// Category identifies one activity dataset.
type Category string

const (
	CategoryBiometric   Category = "biometric"
	CategoryDemographic Category = "demographic"
	CategoryEnrolment   Category = "enrolment"
)

// Categories lists all required categories in canonical order.
var Categories = []Category{CategoryBiometric, CategoryDemographic, CategoryEnrolment}

// VolumeColumns maps each category to the age-band count columns that make up
// its transaction volume. Column names are the cleaned (trimmed, lower-cased)
// header names from the source shards.
var VolumeColumns = map[Category][]string{
	CategoryBiometric:   {"bio_age_5_17", "bio_age_17_"},
	CategoryDemographic: {"demo_age_5_17", "demo_age_17_"},
	CategoryEnrolment:   {"age_0_5", "age_5_17", "age_18_greater"},
}

// Child-activity columns used by the compliance score.
const (
	ColBioChild    = "bio_age_5_17"
	ColEnrolAge0_5 = "age_0_5"
	ColEnrolAge517 = "age_5_17"
)

// Record is one activity row as loaded from a shard. Date is kept as raw text
// until monthly bucketing; counts are keyed by cleaned column name.
type Record struct {
	Date     string
	State    string
	District string
	Pincode  string
	Counts   map[string]int64
}

// Dataset is the merged, unordered record table for one category.
type Dataset struct {
	Category Category
	Records  []Record
}

// DistrictMetrics is one row of the district output table.
type DistrictMetrics struct {
	District           string  `json:"district"`
	State              string  `json:"state"`
	TotalVolume        int64   `json:"total_volume"`
	ActivePincodes     int64   `json:"active_pincodes"`
	SPSScore           float64 `json:"sps_score"`
	ChildUpdates517    int64   `json:"child_updates_5_17"`
	TotalChildActivity int64   `json:"total_child_activity"`
	ComplianceShare    float64 `json:"compliance_share"`
	CLCSZScore         float64 `json:"clcs_zscore"`
}

// StateMetrics is one row of the state output table. Score fields are always
// recomputed from the summed raw fields, never averaged from district ratios.
type StateMetrics struct {
	State              string  `json:"state"`
	TotalVolume        int64   `json:"total_volume"`
	ActivePincodes     int64   `json:"active_pincodes"`
	ChildUpdates517    int64   `json:"child_updates_5_17"`
	TotalChildActivity int64   `json:"total_child_activity"`
	NumDistricts       int64   `json:"num_districts"`
	SPSScore           float64 `json:"sps_score"`
	ComplianceShare    float64 `json:"compliance_share"`
	CLCSZScore         float64 `json:"clcs_zscore"`
}

// TrendPoint is one row of the monthly trend table. Month is year-month in
// "2006-01" form.
type TrendPoint struct {
	District   string `json:"district"`
	Month      string `json:"month"`
	Volume     int64  `json:"volume"`
	SeasonType string `json:"season_type"`
}

// Result bundles the three output tables produced by one pipeline run.
type Result struct {
	Districts []DistrictMetrics `json:"districts"`
	States    []StateMetrics    `json:"states"`
	Trends    []TrendPoint      `json:"trends"`
}

// Run records one pipeline execution.
type Run struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Districts int    `json:"districts"`
	States    int    `json:"states"`
	Trends    int    `json:"trends"`
	CreatedAt string `json:"created_at"`
}

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)
