package dsprep

// Dataset split functionality.
//
// A split is a plain text file with one image stem per line, stored under
// <category>/sets/<name>.txt.

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// The split names written by the reorganizer.
const (
	SplitTrain    = "train"
	SplitVal      = "val"
	SplitTest     = "test"
	SplitTrainVal = "train_val"
	SplitAll      = "all"
)

// ReadSplit reads the stem list of a split file. Blank lines are ignored. A
// missing file yields an empty list, not an error.
func ReadSplit(path string) ([]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	stems := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			stems = append(stems, line)
		}
	}
	return stems, nil
}

// WriteSplit writes the stems to a split file in sorted order.
func WriteSplit(path string, stems []string) error {
	return writeLines(path, sortedStems(stems))
}

// CarveValSplit deterministically partitions the train stems: val is the
// first 20% of the sorted list, train is the remainder. The two are disjoint
// and their union is the input set.
func CarveValSplit(trainStems []string) (train, val []string) {
	all := sortedStems(trainStems)
	valSize := len(all) / 5
	return all[valSize:], all[:valSize]
}

// mergeStems returns the sorted union of two stem lists.
func mergeStems(a, b []string) []string {
	return sortedStems(append(append([]string{}, a...), b...))
}

// sortedStems copies, deduplicates and sorts a stem list.
func sortedStems(stems []string) []string {
	seen := make(map[string]bool, len(stems))
	out := make([]string, 0, len(stems))
	for _, s := range stems {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// splitStems returns the sorted image stems to export for a split, falling
// back to a full scan of the images directory when the split file is absent
// or empty.
func splitStems(categoryRoot, split string) ([]string, error) {
	stems, err := ReadSplit(filepath.Join(categoryRoot, "sets", split+".txt"))
	if err != nil {
		return nil, err
	}

	if len(stems) == 0 {
		files, err := filesByExtInDir(filepath.Join(categoryRoot, "images"), "")
		if err != nil {
			return nil, err
		}
		for _, path := range files {
			if hasImageExt(path) {
				stems = append(stems, stem(path))
			}
		}
	}

	return sortedStems(stems), nil
}
