// Package loader discovers and merges shard files for one activity category.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/civic-pulse/internal/model"
)

// ErrNoShards is returned when a category directory contains no shard files.
var ErrNoShards = eris.New("loader: no shards found")

// Load reads every CSV/XLSX shard under dir and returns the merged dataset.
// Shards are parsed concurrently but merged in lexicographic file-name order,
// so repeated runs over the same input are identical. A shard that fails to
// parse is logged and skipped; the remaining shards are still merged.
func Load(ctx context.Context, dir string, category model.Category, parallelism int) (*model.Dataset, error) {
	files, err := discoverShards(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, eris.Wrapf(ErrNoShards, "category %s in %s", category, dir)
	}

	log := zap.L().With(zap.String("category", string(category)))
	log.Info("loading shards", zap.Int("files", len(files)))

	if parallelism < 1 {
		parallelism = 1
	}

	// Parse in parallel, keep results indexed by file position so the merge
	// order is the sorted file order, not completion order.
	results := make([][]model.Record, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			records, parseErr := parseShard(path)
			if parseErr != nil {
				log.Warn("skipping unreadable shard",
					zap.String("file", filepath.Base(path)),
					zap.Error(parseErr),
				)
				return nil
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrapf(err, "loader: load %s", category)
	}

	var merged []model.Record
	for _, records := range results {
		merged = append(merged, records...)
	}

	log.Info("shards merged", zap.Int("rows", len(merged)))
	return &model.Dataset{Category: category, Records: merged}, nil
}

// discoverShards lists CSV and XLSX files in dir, sorted by name.
func discoverShards(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "loader: read dir %s", dir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".csv" || ext == ".xlsx" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// parseShard reads one shard into records. The first row is the header;
// header names are trimmed and lower-cased before column mapping.
func parseShard(path string) ([]model.Record, error) {
	var rows [][]string
	var err error

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err = readXLSX(path)
	} else {
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil // header only or empty
	}

	header := cleanHeader(rows[0])
	cols := newColumnIndex(header)
	if err := cols.validate(); err != nil {
		return nil, eris.Wrapf(err, "loader: %s", filepath.Base(path))
	}

	records := make([]model.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, cols.record(row))
	}
	return records, nil
}

// cleanHeader trims and lower-cases column names.
func cleanHeader(header []string) []string {
	cleaned := make([]string, len(header))
	for i, h := range header {
		cleaned[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return cleaned
}
