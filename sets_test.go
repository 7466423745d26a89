package dsprep

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCarveValSplit(t *testing.T) {
	stems := []string{"e", "a", "c", "b", "d", "f"}
	train, val := CarveValSplit(stems)

	// 20% of 6, rounded down.
	require.Equal(t, []string{"a"}, val)
	require.Equal(t, []string{"b", "c", "d", "e", "f"}, train)
}

func TestCarveValSplitInvariants(t *testing.T) {
	for _, n := range []int{0, 1, 4, 5, 10, 23} {
		stems := make([]string, n)
		for i := range stems {
			stems[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
		}

		train, val := CarveValSplit(stems)

		// train and val are disjoint and their union is the input set.
		seen := make(map[string]bool)
		for _, s := range val {
			seen[s] = true
		}
		for _, s := range train {
			require.False(t, seen[s], "stem %q in both train and val", s)
		}
		require.Equal(t, sortedStems(stems), mergeStems(train, val), "n=%d", n)
		require.Equal(t, len(sortedStems(stems))/5, len(val), "n=%d", n)
	}
}

func TestReadSplitIgnoresBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.txt")
	writeTestFile(t, path, "a\n\n  b  \n\nc\n")

	stems, err := ReadSplit(path)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, stems)
}

func TestReadSplitMissingFile(t *testing.T) {
	stems, err := ReadSplit(filepath.Join(t.TempDir(), "nope.txt"))
	require.NoError(t, err)
	require.Empty(t, stems)
}

func TestSplitStemsFallbackScan(t *testing.T) {
	categoryRoot := t.TempDir()
	writeTestImage(t, filepath.Join(categoryRoot, "images", "b.jpg"), 8, 8)
	writeTestImage(t, filepath.Join(categoryRoot, "images", "a.png"), 8, 8)
	writeTestFile(t, filepath.Join(categoryRoot, "images", "notes.txt"), "not an image")

	// No sets/train.txt: fall back to scanning images/.
	stems, err := splitStems(categoryRoot, SplitTrain)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, stems)

	// An existing split file takes precedence.
	writeTestFile(t, filepath.Join(categoryRoot, "sets", "train.txt"), "b\n")
	stems, err = splitStems(categoryRoot, SplitTrain)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, stems)
}
