package dsprep

// Label ID rewriting for per-image annotation CSVs.

import (
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
)

// UpdateLabelsOptions configure an UpdateLabels run.
type UpdateLabelsOptions struct {
	Root     string // Dataset root.
	Category string // Category directory name. Defaults to DefaultCategory.
}

// UpdateLabelsResult summarises an UpdateLabels run.
type UpdateLabelsResult struct {
	FilesUpdated int
	Report       Report
}

// UpdateLabels rewrites the label column of every annotation CSV under
// <root>/<category>/csv/ from free-text class names to numeric label IDs
// resolved against labelmap.json.
//
// The resolver is seeded from the labelmap and, when present, from the
// original flat CSVs, whose rows retain class-name spellings the per-image
// files may have lost. Labels that are already numeric are left untouched, so
// a second run is a no-op. Unresolvable labels keep their text and are
// recorded in the report; a file with no resolved label is not rewritten.
func UpdateLabels(opts UpdateLabelsOptions) (*UpdateLabelsResult, error) {
	if opts.Category == "" {
		opts.Category = DefaultCategory
	}
	categoryRoot := filepath.Join(opts.Root, opts.Category)
	csvDir := filepath.Join(categoryRoot, "csv")

	labelMap, err := LoadLabelMap(filepath.Join(categoryRoot, "labelmap.json"))
	if err != nil {
		return nil, err
	}

	resolver := NewLabelResolver(labelMap)
	flatPaths := []string{}
	for _, name := range []string{"train_labels.csv", "test_labels.csv"} {
		if path := filepath.Join(opts.Root, name); fileExists(path) {
			flatPaths = append(flatPaths, path)
		}
	}
	if len(flatPaths) > 0 {
		spellings, err := DistinctClasses(flatPaths...)
		if err != nil {
			return nil, err
		}
		resolver.RegisterSpellings(labelMap, spellings)
	}

	csvFiles, err := filesByExtInDir(csvDir, ".csv")
	if err != nil {
		return nil, err
	}

	result := &UpdateLabelsResult{}
	for _, path := range csvFiles {
		rows, err := readCSVRows(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read file %q: %v", path, err)
		}
		if len(rows) < 2 {
			continue
		}

		updated := false
		for _, row := range rows[1:] {
			if len(row) < 6 {
				continue
			}
			label := strings.TrimSpace(row[5])
			if label == "" || isNumeric(label) {
				continue // Already an ID, or nothing to resolve.
			}

			id, ok := resolver.Resolve(label)
			if !ok {
				result.Report.skip(fmt.Sprintf("%s label %q", filepath.Base(path), label),
					"no matching label ID")
				continue
			}
			row[5] = strconv.Itoa(id)
			result.Report.accept()
			updated = true
		}

		if updated {
			if err := writeCSVRows(path, rows); err != nil {
				return nil, err
			}
			result.FilesUpdated++
		}
	}

	log.Printf("Updated %d CSV files", result.FilesUpdated)
	return result, nil
}
