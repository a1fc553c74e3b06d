// Package normalize canonicalizes free-text state and district labels.
//
// Normalization runs two independent passes, state then district. The state
// pass drops rows whose label cannot be mapped onto the official 36-member
// State/UT taxonomy; the district pass repairs historical renames and
// misspellings, title-cases unknown values, and drops garbage rows. Both
// passes return new slices and never mutate their input. Running the
// normalizer over already-normalized records is a no-op.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/civic-pulse/internal/model"
)

var (
	multiSpace = regexp.MustCompile(`\s{2,}`)
	allDigits  = regexp.MustCompile(`^\d+$`)

	titleCaser = cases.Title(language.English)
)

// Normalize runs the state pass then the district pass over a dataset.
// State-invalid rows are dropped before district cleanup.
func Normalize(ds *model.Dataset) (*model.Dataset, error) {
	t, err := loadTables()
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("category", string(ds.Category)))

	states := normalizeStates(ds.Records, t)
	districts := normalizeDistricts(states, t)

	log.Info("normalized records",
		zap.Int("in", len(ds.Records)),
		zap.Int("after_state_pass", len(states)),
		zap.Int("out", len(districts)),
	)

	return &model.Dataset{Category: ds.Category, Records: districts}, nil
}

// foldLabel case-folds and trims a label for alias lookup.
func foldLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeStates maps each state label onto the canonical taxonomy. Rows
// whose folded label has no alias entry are garbage and are dropped, never
// defaulted (dropUnmappedState policy).
func normalizeStates(records []model.Record, t aliasTables) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		canonical, ok := t.States[foldLabel(r.State)]
		if !ok {
			continue // dropUnmappedState
		}
		r.State = canonical
		out = append(out, r)
	}
	return out
}

// normalizeDistricts cleans district labels: collapse whitespace, strip
// periods, resolve aliases, title-case retained unknowns, then drop garbage
// values (dropGarbageDistrict policy).
func normalizeDistricts(records []model.Record, t aliasTables) []model.Record {
	garbage := t.garbageSet()

	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		cleaned := cleanDistrictLabel(r.District)
		if cleaned == "" {
			continue
		}

		if canonical, ok := t.Districts[foldLabel(cleaned)]; ok {
			cleaned = canonical
		} else {
			cleaned = titleCaser.String(cleaned)
		}

		if !validDistrict(cleaned, garbage) {
			continue // dropGarbageDistrict
		}

		r.District = cleaned
		out = append(out, r)
	}
	return out
}

// cleanDistrictLabel trims, collapses internal whitespace, and strips periods.
func cleanDistrictLabel(s string) string {
	s = strings.TrimSpace(s)
	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, ".", "") // W.Godavari -> WGodavari
	return s
}

// validDistrict rejects purely numeric values, values shorter than three
// characters, values with no alphabetic character, and the fixed garbage set.
func validDistrict(s string, garbage map[string]bool) bool {
	if len([]rune(s)) <= 2 {
		return false
	}
	if allDigits.MatchString(s) {
		return false
	}
	if !containsLetter(s) {
		return false
	}
	if garbage[foldLabel(s)] {
		return false
	}
	return true
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
