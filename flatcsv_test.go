package dsprep

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoxConversionRoundTrip(t *testing.T) {
	rec := FlatRecord{Filename: "a.jpg", Class: "rust_leaf",
		XMin: 10, YMin: 20, XMax: 50, YMax: 80}

	box := rec.Box()
	require.Equal(t, 10.0, box.X)
	require.Equal(t, 20.0, box.Y)
	require.Equal(t, 40.0, box.Width)
	require.Equal(t, 60.0, box.Height)

	// Re-deriving the corners must reproduce the original.
	require.Equal(t, rec.XMax, box.X+box.Width)
	require.Equal(t, rec.YMax, box.Y+box.Height)
}

func TestReadFlatCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train_labels.csv")
	// Header-keyed, not positional: extra columns and reordered fields.
	writeTestFile(t, path,
		"width,height,filename,class,xmin,ymin,xmax,ymax\n"+
			"640,480,a.jpg,Tomato leaf,10,20,50,80\n"+
			"640,480,a.jpg,Bell_pepper leaf,5,5,15,25\n"+
			"640,480,b.jpg,Tomato leaf,abc,0,1,1\n"+ // Bad coordinate.
			"640,480,c.jpg,42,0,0,1,1\n"+ // Numeric class.
			"640,480,,Tomato leaf,0,0,1,1\n") // Missing filename.

	var report Report
	records, err := ReadFlatCSV(path, &report)
	require.NoError(t, err)

	require.Len(t, records, 2)
	require.Equal(t, 2, report.Accepted)
	require.Len(t, report.Skipped, 3)
	require.Equal(t, FlatRecord{Filename: "a.jpg", Class: "Tomato leaf",
		XMin: 10, YMin: 20, XMax: 50, YMax: 80}, records[0])
}

func TestReadFlatCSVMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train_labels.csv")
	writeTestFile(t, path, "filename,class\na.jpg,Tomato leaf\n")

	var report Report
	_, err := ReadFlatCSV(path, &report)
	require.Error(t, err)
}

func TestDistinctClasses(t *testing.T) {
	dir := t.TempDir()
	trainCSV := filepath.Join(dir, "train_labels.csv")
	testCSV := filepath.Join(dir, "test_labels.csv")
	writeTestFile(t, trainCSV,
		"filename,class,xmin,ymin,xmax,ymax\n"+
			"a.jpg,Tomato leaf,0,0,1,1\n"+
			"b.jpg,Apple Scab Leaf,0,0,1,1\n")
	writeTestFile(t, testCSV,
		"filename,class,xmin,ymin,xmax,ymax\n"+
			"c.jpg,Tomato leaf,0,0,1,1\n"+
			"d.jpg,Bell_pepper leaf,0,0,1,1\n")

	classes, err := DistinctClasses(trainCSV, testCSV)
	require.NoError(t, err)
	require.Equal(t, []string{"Apple Scab Leaf", "Bell_pepper leaf", "Tomato leaf"}, classes)
}
