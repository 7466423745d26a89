package dsprep

// Shared test fixtures.

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTestImage writes a w*h image to path, encoded per the file extension.
func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	switch filepath.Ext(path) {
	case ".png":
		require.NoError(t, png.Encode(f, img))
	default:
		require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 90}))
	}
}

// writeTestFile writes a text file, creating parent directories as needed.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
}

// readTestFile reads a file into a string.
func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// writeRustLeafLayout builds a minimal standard layout with one class
// (rust_leaf, ID 1), one 100x200 image a.jpg with a single box, and a train
// split listing it. Returns the dataset root.
func writeRustLeafLayout(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	categoryRoot := filepath.Join(root, DefaultCategory)

	lm := LabelMap{
		{ObjectID: 0, LabelID: 0, KeyboardShortcut: "0", ObjectName: "background"},
		{ObjectID: 1, LabelID: 1, KeyboardShortcut: "1", ObjectName: "rust_leaf"},
	}
	require.NoError(t, os.MkdirAll(categoryRoot, 0755))
	require.NoError(t, WriteLabelMap(filepath.Join(categoryRoot, "labelmap.json"), lm))

	writeTestImage(t, filepath.Join(categoryRoot, "images", "a.jpg"), 100, 200)
	writeTestFile(t, filepath.Join(categoryRoot, "csv", "a.csv"),
		"#item,x,y,width,height,label\n0,5,5,10,10,rust_leaf\n")
	writeTestFile(t, filepath.Join(categoryRoot, "sets", "train.txt"), "a\n")

	return root
}
