package shape

// idKeys names the keys treated as a node identifier when deciding whether
// two objects denote the same anchored node during a merge, since a fitted
// row (see shape.go's Fit) never carries the prototype's own "$anchor" key
// name — only its value, stored under one of these conventional keys.
var idKeys = []string{"id", "@id"}

// MergeInto folds src into dst in place, mirroring __mergeObject /
// spec.md §4.5's mergeInto: scalars that disagree promote to a list rather
// than letting the first row silently win, nested objects merge
// recursively (by shared id when both sides carry one), and nested lists
// merge element-by-element by shared id, falling back to content-equality
// dedup for list entries with no id.
func MergeInto(dst, src map[string]any) {
	for key, addVal := range src {
		if key == "$anchor" {
			continue
		}
		baseVal, present := dst[key]
		if !present {
			dst[key] = addVal
			continue
		}
		dst[key] = mergeField(baseVal, addVal)
	}
}

// mergeField merges one field's value from two rows, following spec.md
// §4.5 rule-by-rule: list-base merges element-wise, equal values are a
// no-op, two objects sharing an id recurse, and anything else still in
// conflict is promoted to a two-element list.
func mergeField(base, add any) any {
	if addList, ok := add.([]any); ok {
		result := base
		for _, elem := range addList {
			result = mergeField(result, elem)
		}
		return result
	}

	if baseList, ok := base.([]any); ok {
		return mergeIntoList(baseList, add)
	}

	if Equal(base, add) {
		return base
	}

	if baseObj, ok := base.(map[string]any); ok {
		if addObj, ok := add.(map[string]any); ok {
			if id := nodeID(baseObj); id != nil && Equal(id, nodeID(addObj)) {
				MergeInto(baseObj, addObj)
				return baseObj
			}
		}
	}

	return []any{base, add}
}

// mergeIntoList folds one new value into an existing list field: an
// id-bearing object merges into its matching list member (or appends if
// none matches), anything else appends unless a content-equal entry is
// already present.
func mergeIntoList(list []any, add any) []any {
	addObj, isObj := add.(map[string]any)
	if !isObj {
		if !containsEqual(list, add) {
			list = append(list, add)
		}
		return list
	}

	id := nodeID(addObj)
	if id == nil {
		if !containsEqual(list, add) {
			list = append(list, add)
		}
		return list
	}

	for _, existing := range list {
		if existingObj, ok := existing.(map[string]any); ok {
			if eid := nodeID(existingObj); eid != nil && Equal(eid, id) {
				MergeInto(existingObj, addObj)
				return list
			}
		}
	}
	return append(list, add)
}

func nodeID(obj map[string]any) any {
	for _, k := range idKeys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}

func containsEqual(list []any, v any) bool {
	for _, item := range list {
		if Equal(item, v) {
			return true
		}
	}
	return false
}
