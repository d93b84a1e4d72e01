package shape

import (
	"sort"

	"golang.org/x/text/unicode/norm"
)

// Equal reports whether a and b are the same document value, the way
// __deepEquals treats two rows as duplicates: structural equality over
// maps/lists/scalars, with strings compared after NFC normalization so two
// bindings that differ only in Unicode composition (a common artifact of
// round-tripping through different triple stores) still compare equal.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, ok := bv[k]
			if !ok || !Equal(v, bval) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		return equalUnordered(av, bv)
	case string:
		bv, ok := b.(string)
		return ok && norm.NFC.String(av) == norm.NFC.String(bv)
	default:
		return a == b
	}
}

// equalUnordered compares two lists as multisets: row order across
// SPARQL result merges is not significant, only membership and count.
func equalUnordered(a, b []any) bool {
	used := make([]bool, len(b))
	for _, av := range a {
		found := false
		for i, bv := range b {
			if used[i] {
				continue
			}
			if Equal(av, bv) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// sortedKeys returns m's keys in sorted order, for deterministic map
// iteration; kept here since it's the natural companion to Equal's map
// comparison. Nothing in this package calls it.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
