package dsprep

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFlatLayout builds a flat PlantDoc-style dataset root with three images
// and annotation rows covering the common cases.
func writeFlatLayout(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeTestImage(t, filepath.Join(root, "TRAIN", "leaf1.jpg"), 64, 48)
	writeTestImage(t, filepath.Join(root, "TRAIN", "leaf2.png"), 32, 32)
	writeTestImage(t, filepath.Join(root, "TEST", "leaf3.jpg"), 40, 30)

	writeTestFile(t, filepath.Join(root, "train_labels.csv"),
		"filename,width,height,class,xmin,ymin,xmax,ymax\n"+
			"leaf1.jpg,64,48,Tomato leaf,10,20,50,40\n"+
			"leaf1.jpg,64,48,Bell_pepper leaf,5,5,15,25\n"+
			"leaf2.png,32,32,Apple Scab Leaf,1,2,3,4\n"+
			"missing.jpg,64,48,Tomato leaf,0,0,1,1\n")
	writeTestFile(t, filepath.Join(root, "test_labels.csv"),
		"filename,width,height,class,xmin,ymin,xmax,ymax\n"+
			"leaf3.jpg,40,30,Tomato leaf,2,2,10,12\n")

	return root
}

func TestReorganize(t *testing.T) {
	root := writeFlatLayout(t)

	result, err := Reorganize(ReorganizeOptions{Root: root})
	require.NoError(t, err)

	require.Equal(t, 3, result.Classes)
	require.Equal(t, 3, result.ImagesCopied)
	require.Equal(t, 3, result.CSVFiles)

	categoryRoot := filepath.Join(root, DefaultCategory)

	// Labelmap: background plus the classes in lexicographic order.
	lm, err := LoadLabelMap(filepath.Join(categoryRoot, "labelmap.json"))
	require.NoError(t, err)
	require.Len(t, lm, 4)
	require.Equal(t, "background", lm[0].ObjectName)
	require.Equal(t, "apple_scab_leaf", lm[1].ObjectName)
	require.Equal(t, "bell_pepper_leaf", lm[2].ObjectName)
	require.Equal(t, "tomato_leaf", lm[3].ObjectName)

	// Images unified under images/.
	for _, name := range []string{"leaf1.jpg", "leaf2.png", "leaf3.jpg"} {
		require.True(t, fileExists(filepath.Join(categoryRoot, "images", name)), name)
	}

	// Per-image CSVs carry converted boxes with free-text labels.
	var report Report
	boxes, err := ReadImageCSV(filepath.Join(categoryRoot, "csv", "leaf1.csv"), &report)
	require.NoError(t, err)
	require.Equal(t, []BoundingBox{
		{X: 10, Y: 20, Width: 40, Height: 20, Label: "Tomato leaf"},
		{X: 5, Y: 5, Width: 10, Height: 20, Label: "Bell_pepper leaf"},
	}, boxes)

	// Splits: val carved from train, test separate, all covers everything.
	train, err := ReadSplit(filepath.Join(categoryRoot, "sets", "train.txt"))
	require.NoError(t, err)
	val, err := ReadSplit(filepath.Join(categoryRoot, "sets", "val.txt"))
	require.NoError(t, err)
	trainVal, err := ReadSplit(filepath.Join(categoryRoot, "sets", "train_val.txt"))
	require.NoError(t, err)
	all, err := ReadSplit(filepath.Join(categoryRoot, "sets", "all.txt"))
	require.NoError(t, err)

	require.Equal(t, []string{"leaf1", "leaf2"}, trainVal)
	require.Equal(t, mergeStems(train, val), trainVal)
	require.Equal(t, []string{"leaf1", "leaf2", "leaf3"}, all)

	// The row for the unresolvable image was dropped with a record.
	found := false
	for _, s := range result.Report.Skipped {
		if s.Ref == "missing.jpg" {
			found = true
		}
	}
	require.True(t, found, "expected a skip for missing.jpg")
}

func TestReorganizeIsIdempotent(t *testing.T) {
	root := writeFlatLayout(t)

	_, err := Reorganize(ReorganizeOptions{Root: root})
	require.NoError(t, err)
	first := readTestFile(t, filepath.Join(root, DefaultCategory, "csv", "leaf1.csv"))

	// A second run overwrites with identical content; existing images are
	// left untouched.
	result, err := Reorganize(ReorganizeOptions{Root: root})
	require.NoError(t, err)
	require.Equal(t, 0, result.ImagesCopied)
	require.Equal(t, first, readTestFile(t, filepath.Join(root, DefaultCategory, "csv", "leaf1.csv")))
}

// writeResizeLayout builds a root with a single 100x200 train image and one
// annotation row.
func writeResizeLayout(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTestImage(t, filepath.Join(root, "TRAIN", "big.jpg"), 100, 200)
	require.NoError(t, mkdirAll(filepath.Join(root, "TEST")))

	writeTestFile(t, filepath.Join(root, "train_labels.csv"),
		"filename,width,height,class,xmin,ymin,xmax,ymax\n"+
			"big.jpg,100,200,Tomato leaf,10,20,50,80\n")
	writeTestFile(t, filepath.Join(root, "test_labels.csv"),
		"filename,width,height,class,xmin,ymin,xmax,ymax\n")

	return root
}

// requireResizedLayout asserts the resized image and its scaled boxes.
func requireResizedLayout(t *testing.T, root string) {
	t.Helper()

	// The longer side shrinks to 50, so everything scales by 0.25.
	imgPath := filepath.Join(root, DefaultCategory, "images", "big.jpg")
	cfg, _, err := decodeImageConfig(imgPath)
	require.NoError(t, err)
	require.Equal(t, 25, cfg.Width)
	require.Equal(t, 50, cfg.Height)

	var report Report
	boxes, err := ReadImageCSV(filepath.Join(root, DefaultCategory, "csv", "big.csv"), &report)
	require.NoError(t, err)
	require.Equal(t, []BoundingBox{
		{X: 2.5, Y: 5, Width: 10, Height: 15, Label: "Tomato leaf"},
	}, boxes)
}

func TestReorganizeResize(t *testing.T) {
	root := writeResizeLayout(t)

	_, err := Reorganize(ReorganizeOptions{Root: root, Encoding: "jpg", LongerSide: 50})
	require.NoError(t, err)

	requireResizedLayout(t, root)
}

func TestReorganizeResizeRerun(t *testing.T) {
	root := writeResizeLayout(t)
	opts := ReorganizeOptions{Root: root, Encoding: "jpg", LongerSide: 50}

	_, err := Reorganize(opts)
	require.NoError(t, err)

	// A rerun keeps the already-resized image and must rewrite the CSVs with
	// the same scaled coordinates, not the original ones.
	result, err := Reorganize(opts)
	require.NoError(t, err)
	require.Equal(t, 0, result.ImagesCopied)

	requireResizedLayout(t, root)
}

func TestReorganizeReportsRowSkipOnce(t *testing.T) {
	root := writeResizeLayout(t)
	writeTestFile(t, filepath.Join(root, "train_labels.csv"),
		"filename,width,height,class,xmin,ymin,xmax,ymax\n"+
			"big.jpg,100,200,Tomato leaf,10,20,50,80\n"+
			"big.jpg,100,200,Tomato leaf,bad,20,50,80\n")

	result, err := Reorganize(ReorganizeOptions{Root: root})
	require.NoError(t, err)

	// The malformed row surfaces in the caller's report exactly once.
	skips := 0
	for _, s := range result.Report.Skipped {
		if s.Ref == filepath.Join(root, "train_labels.csv")+" row 3" {
			skips++
		}
	}
	require.Equal(t, 1, skips)
	require.Equal(t, 1, result.Report.Accepted)
}
