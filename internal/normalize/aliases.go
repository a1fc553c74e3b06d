package normalize

import (
	_ "embed"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var aliasesYAML []byte

// aliasTables holds the versioned canonical-label lookup tables.
type aliasTables struct {
	Version          int               `yaml:"version"`
	States           map[string]string `yaml:"states"`
	Districts        map[string]string `yaml:"districts"`
	GarbageDistricts []string          `yaml:"garbage_districts"`
}

var (
	tablesOnce sync.Once
	tables     aliasTables
	tablesErr  error
)

// loadTables parses the embedded alias tables once per process.
func loadTables() (aliasTables, error) {
	tablesOnce.Do(func() {
		if err := yaml.Unmarshal(aliasesYAML, &tables); err != nil {
			tablesErr = eris.Wrap(err, "normalize: parse alias tables")
		}
	})
	return tables, tablesErr
}

// garbageSet returns the fixed garbage district tokens as a folded lookup set.
func (t aliasTables) garbageSet() map[string]bool {
	set := make(map[string]bool, len(t.GarbageDistricts))
	for _, g := range t.GarbageDistricts {
		set[foldLabel(g)] = true
	}
	return set
}
