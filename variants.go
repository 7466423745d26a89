package dsprep

// Class-name normalisation and label ID resolution.

import (
	"strconv"
	"strings"
)

// LabelResolver maps free-text class names to numeric label IDs via an index
// of known spelling variants, built once per run from a labelmap registry.
//
// Variant collisions between classes resolve to the class that registered the
// spelling first. The registry is registered in labelmap order, so canonical
// names always beat spellings added later.
type LabelResolver struct {
	index   map[string]int
	ordered []string // Variants in registration order, for case-insensitive scans.
}

// NewLabelResolver builds a resolver from the non-background entries of lm.
func NewLabelResolver(lm LabelMap) *LabelResolver {
	r := &LabelResolver{index: make(map[string]int)}
	for _, e := range lm {
		if e.ObjectID == BackgroundID {
			continue
		}
		for _, v := range nameVariants(e.ObjectName) {
			r.Register(v, e.LabelID)
		}
	}
	return r
}

// nameVariants generates the known spelling variants for a canonical
// lowercase underscore name: the underscore form, the space form, title-cased
// versions of both, a sentence-case form, and for names ending in "_leaf" the
// same spellings with "leaf" reattached as a separate word.
func nameVariants(name string) []string {
	spaced := strings.ReplaceAll(name, "_", " ")
	variants := []string{
		name,
		spaced,
		titleWords(spaced, " "),
		titleWords(name, "_"),
		sentenceCase(spaced),
	}

	if base := strings.TrimSuffix(name, "_leaf"); base != name {
		spacedBase := strings.ReplaceAll(base, "_", " ")
		variants = append(variants,
			spacedBase+" leaf",
			titleWords(spacedBase, " ")+" leaf",
			titleWords(base, "_")+" leaf",
		)
	}

	return variants
}

// titleWords uppercases the first letter of every sep-separated word.
func titleWords(s, sep string) string {
	words := strings.Split(s, sep)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, sep)
}

// sentenceCase uppercases the first letter of s.
func sentenceCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Register adds a variant spelling for the given label ID. The first
// registration of a spelling wins; later collisions are ignored.
func (r *LabelResolver) Register(variant string, id int) {
	if _, ok := r.index[variant]; ok {
		return
	}
	r.index[variant] = id
	r.ordered = append(r.ordered, variant)
}

// RegisterSpellings registers raw class-name spellings, matching each
// spelling to a registry entry by its canonical form. Spellings with no
// matching entry are ignored; they surface later as unresolvable labels.
func (r *LabelResolver) RegisterSpellings(lm LabelMap, spellings []string) {
	byName := make(map[string]int, len(lm))
	for _, e := range lm {
		if e.ObjectID != BackgroundID {
			byName[e.ObjectName] = e.LabelID
		}
	}
	for _, s := range spellings {
		if id, ok := byName[CanonicalName(s)]; ok {
			r.Register(s, id)
		}
	}
}

// Resolve maps a label to its numeric ID.
//
// Purely numeric labels resolve to their own value. Otherwise resolution
// tries an exact variant match, then the canonical lowercase underscore form,
// then a case-insensitive scan over all variants in registration order.
func (r *LabelResolver) Resolve(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0, false
	}

	if isNumeric(label) {
		id, err := strconv.Atoi(label)
		if err != nil {
			return 0, false
		}
		return id, true
	}

	if id, ok := r.index[label]; ok {
		return id, true
	}
	if id, ok := r.index[CanonicalName(label)]; ok {
		return id, true
	}

	lower := strings.ToLower(label)
	for _, v := range r.ordered {
		if strings.ToLower(v) == lower {
			return r.index[v], true
		}
	}

	return 0, false
}

// isNumeric reports whether s consists solely of ASCII digits.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
