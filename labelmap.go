package dsprep

// Labelmap registry functionality.

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"sort"
	"strconv"
	"strings"
)

// BackgroundID is the reserved object_id for the synthetic background entry.
const BackgroundID = 0

// LabelMapEntry is a single class entry in a labelmap.json registry.
type LabelMapEntry struct {
	ObjectID         int    `json:"object_id"`
	LabelID          int    `json:"label_id"`
	KeyboardShortcut string `json:"keyboard_shortcut"`
	ObjectName       string `json:"object_name"`
}

// LabelMap is the ordered class registry for a dataset. The first entry is
// the background entry with object_id 0; real classes follow with IDs 1..N.
type LabelMap []LabelMapEntry

// NewLabelMap builds a registry from the distinct source class names. IDs are
// assigned in lexicographic order of the names; object names are stored in
// their canonical lowercase underscore form.
func NewLabelMap(classNames []string) LabelMap {
	names := make([]string, len(classNames))
	copy(names, classNames)
	sort.Strings(names)

	lm := make(LabelMap, 0, len(names)+1)
	lm = append(lm, LabelMapEntry{
		ObjectID:         BackgroundID,
		LabelID:          0,
		KeyboardShortcut: "0",
		ObjectName:       "background",
	})
	for i, name := range names {
		id := i + 1
		lm = append(lm, LabelMapEntry{
			ObjectID:         id,
			LabelID:          id,
			KeyboardShortcut: strconv.Itoa(id),
			ObjectName:       CanonicalName(name),
		})
	}

	return lm
}

// CanonicalName lowercases a class name and joins its words with underscores.
func CanonicalName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

// LoadLabelMap reads and parses the labelmap registry from the file at path.
func LoadLabelMap(path string) (LabelMap, error) {
	enc, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lm LabelMap
	if err := json.Unmarshal(enc, &lm); err != nil {
		return nil, fmt.Errorf("failed to parse labelmap from %q: %v", path, err)
	}

	return lm, nil
}

// WriteLabelMap writes the registry to the file at path.
func WriteLabelMap(path string, lm LabelMap) error {
	enc, err := json.MarshalIndent(lm, "", "  ")
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(path, enc, 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %v", path, err)
	}
	return nil
}

// Categories returns the non-background entries in registry order.
func (lm LabelMap) Categories() []LabelMapEntry {
	categories := make([]LabelMapEntry, 0, len(lm))
	for _, e := range lm {
		if e.ObjectID == BackgroundID {
			continue
		}
		categories = append(categories, e)
	}
	return categories
}

// NameByID returns the canonical object name for a label ID.
func (lm LabelMap) NameByID(id int) (string, bool) {
	for _, e := range lm {
		if e.ObjectID != BackgroundID && e.LabelID == id {
			return e.ObjectName, true
		}
	}
	return "", false
}
