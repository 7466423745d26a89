package dsprep

// Per-image annotation CSV functionality.

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// BoundingBox is an (x,y,width,height) box in pixels with a top-left origin.
// Label is either a free-text class name or a numeric label ID string.
type BoundingBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Label  string
}

// Area is Width*Height.
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// Scale scales the box coordinates and dimensions by factor.
func (b BoundingBox) Scale(factor float64) BoundingBox {
	b.X *= factor
	b.Y *= factor
	b.Width *= factor
	b.Height *= factor
	return b
}

// imageCSVHeader is the header row of a per-image annotation CSV.
var imageCSVHeader = []string{"#item", "x", "y", "width", "height", "label"}

// WriteImageCSV writes one annotation CSV for an image stem.
func WriteImageCSV(path string, boxes []BoundingBox) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot write file %q: %v", path, err)
	}
	defer closeWithErrCheck(file, &err)

	w := csv.NewWriter(file)
	if err := w.Write(imageCSVHeader); err != nil {
		return err
	}
	for i, b := range boxes {
		row := []string{
			strconv.Itoa(i),
			formatFloat(b.X),
			formatFloat(b.Y),
			formatFloat(b.Width),
			formatFloat(b.Height),
			b.Label,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()

	return w.Error()
}

// ReadImageCSV parses a per-image annotation CSV. A missing file yields zero
// boxes, not an error. Numeric fields are parsed leniently: an absent column
// counts as zero, an unparsable value drops the row into the report.
func ReadImageCSV(path string, report *Report) (boxes []BoundingBox, err error) {
	rows, err := readCSVRows(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for rowNum, row := range rows[1:] {
		ref := fmt.Sprintf("%s row %d", path, rowNum+2)

		box := BoundingBox{}
		fields := []struct {
			name string
			dst  *float64
		}{
			{"x", &box.X},
			{"y", &box.Y},
			{"width", &box.Width},
			{"height", &box.Height},
		}
		parseErr := false
		for _, f := range fields {
			i, ok := col[f.name]
			if !ok || i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue // Missing fields default to zero.
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				report.skip(ref, fmt.Sprintf("bad %s value: %v", f.name, err))
				parseErr = true
				break
			}
			*f.dst = v
		}
		if parseErr {
			continue
		}

		if i, ok := col["label"]; ok && i < len(row) {
			box.Label = strings.TrimSpace(row[i])
		}

		report.accept()
		boxes = append(boxes, box)
	}

	return boxes, nil
}

// readCSVRows reads all rows of a CSV file, the header included.
func readCSVRows(path string) (rows [][]string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer closeWithErrCheck(file, &err)

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// writeCSVRows writes all rows to a CSV file, replacing its contents.
func writeCSVRows(path string, rows [][]string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot write file %q: %v", path, err)
	}
	defer closeWithErrCheck(file, &err)

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

// formatFloat renders a coordinate with the shortest exact representation.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
