package dsprep

// Flat source CSV functionality (train_labels.csv / test_labels.csv).

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// FlatRecord is one bounding box row from a flat source CSV.
type FlatRecord struct {
	Filename string
	Class    string
	XMin     float64
	YMin     float64
	XMax     float64
	YMax     float64
}

// Box converts the (xmin,ymin,xmax,ymax) corners to an (x,y,width,height) box
// carrying the free-text class name as its label.
func (rec FlatRecord) Box() BoundingBox {
	return BoundingBox{
		X:      rec.XMin,
		Y:      rec.YMin,
		Width:  rec.XMax - rec.XMin,
		Height: rec.YMax - rec.YMin,
		Label:  rec.Class,
	}
}

// flatColumns are the required header columns of a flat source CSV.
var flatColumns = []string{"filename", "class", "xmin", "ymin", "xmax", "ymax"}

// ReadFlatCSV parses a flat source CSV. Column order is taken from the header
// row. Rows with an empty filename, an empty or numeric class, or unparsable
// coordinates are dropped and recorded in the report.
func ReadFlatCSV(path string, report *Report) (records []FlatRecord, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file %q: %v", path, err)
	}
	defer closeWithErrCheck(file, &err)

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read the header of %q: %v", path, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range flatColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q in %q", name, path)
		}
	}

	field := func(row []string, name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for rowNum := 2; ; rowNum++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		ref := fmt.Sprintf("%s row %d", path, rowNum)
		if err != nil {
			report.skip(ref, err.Error())
			continue
		}

		rec := FlatRecord{
			Filename: field(row, "filename"),
			Class:    field(row, "class"),
		}
		if rec.Filename == "" || rec.Class == "" || isNumeric(rec.Class) {
			report.skip(ref, "missing filename or class")
			continue
		}

		coords := []*float64{&rec.XMin, &rec.YMin, &rec.XMax, &rec.YMax}
		parseErr := false
		for i, name := range []string{"xmin", "ymin", "xmax", "ymax"} {
			v, err := strconv.ParseFloat(field(row, name), 64)
			if err != nil {
				report.skip(ref, fmt.Sprintf("bad %s value: %v", name, err))
				parseErr = true
				break
			}
			*coords[i] = v
		}
		if parseErr {
			continue
		}

		report.accept()
		records = append(records, rec)
	}

	return records, nil
}

// classNames returns the sorted distinct class spellings across the record sets.
func classNames(recordSets ...[]FlatRecord) []string {
	seen := make(map[string]bool)
	for _, records := range recordSets {
		for _, rec := range records {
			seen[rec.Class] = true
		}
	}

	classes := make([]string, 0, len(seen))
	for class := range seen {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	return classes
}

// DistinctClasses returns the sorted set of distinct non-numeric class-name
// spellings found across the given flat CSVs. Row skips stay local to the
// call; callers that need them parse the files themselves.
func DistinctClasses(paths ...string) ([]string, error) {
	sets := make([][]FlatRecord, 0, len(paths))
	for _, path := range paths {
		var report Report
		records, err := ReadFlatCSV(path, &report)
		if err != nil {
			return nil, err
		}
		sets = append(sets, records)
	}
	return classNames(sets...), nil
}
