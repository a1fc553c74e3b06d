package loader

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/civic-pulse/internal/model"
)

// wellKnownColumns are the non-count columns every category shares.
var wellKnownColumns = map[string]bool{
	"date":     true,
	"state":    true,
	"district": true,
	"pincode":  true,
}

// columnIndex maps cleaned header names to row positions.
type columnIndex struct {
	date     int
	state    int
	district int
	pincode  int
	counts   map[string]int // count column name -> position
}

func newColumnIndex(header []string) columnIndex {
	idx := columnIndex{date: -1, state: -1, district: -1, pincode: -1, counts: map[string]int{}}
	for i, name := range header {
		switch name {
		case "date":
			idx.date = i
		case "state":
			idx.state = i
		case "district":
			idx.district = i
		case "pincode":
			idx.pincode = i
		default:
			if name != "" {
				idx.counts[name] = i
			}
		}
	}
	return idx
}

func (c columnIndex) validate() error {
	for name, pos := range map[string]int{"state": c.state, "district": c.district, "pincode": c.pincode} {
		if pos < 0 {
			return eris.Errorf("missing required column %q", name)
		}
	}
	return nil
}

// record converts one data row. Count cells that fail integer parsing count
// as zero rather than dropping the row.
func (c columnIndex) record(row []string) model.Record {
	counts := make(map[string]int64, len(c.counts))
	for name, pos := range c.counts {
		counts[name] = parseCount(cell(row, pos))
	}
	return model.Record{
		Date:     cell(row, c.date),
		State:    cell(row, c.state),
		District: cell(row, c.district),
		Pincode:  strings.TrimSpace(cell(row, c.pincode)),
		Counts:   counts,
	}
}

func cell(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return row[pos]
}

func parseCount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// readCSV reads all rows from a CSV shard.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // allow variable fields
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read csv %s", path)
	}
	return rows, nil
}

// readXLSX reads all rows from the first sheet of an XLSX shard.
func readXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("loader: xlsx %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
