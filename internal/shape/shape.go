// Package shape implements the Result Shaper: given a solved prototype tree
// (the output of internal/walk) and one SPARQL result row, it produces the
// JSON value for that row, then the Anchor/Merge Engine folds rows sharing
// an anchor variable into a single nested document.
package shape

import (
	"log/slog"
	"strings"

	"github.com/graphproto/protoql/internal/coerce"
	"github.com/graphproto/protoql/internal/proto"
)

// Row is one SPARQL solution: resolved variable name (without leading "?")
// to its bound term, exactly as a SPARQL JSON results row arrives.
type Row map[string]coerce.Binding

// vocabIDKeys are the property-object keys treated as the node identifier
// leaf, the same set the Walker uses to find an anchor.
var vocabIDKeys = map[string]bool{"id": true, "@id": true}

// Fit renders one row against proto, producing the value this row
// contributes to the output document. It returns ok=false when the
// subtree's own anchor variable is unbound in this row — the original's
// "$anchor key present but value absent ⇒ drop the whole optional block"
// rule — so the caller omits rather than merges an empty stub. defaultHide
// is the langTag default taken from config.Options ("hide"); a leaf's own
// langTag:show/hide suffix, if present, always overrides it.
func Fit(obj *proto.Object, row Row, voc coerce.Vocabulary, defaultHide bool) (any, bool) {
	out := make(map[string]any)
	anchorKey, _ := obj.Get("$anchor")
	anchorKeyStr, _ := anchorKey.(string)

	for _, key := range obj.Keys() {
		if key == "$anchor" || key == "$asList" {
			continue
		}
		val, _ := obj.Get(key)
		switch v := val.(type) {
		case *proto.Object:
			nested, ok := Fit(v, row, voc, defaultHide)
			if !ok {
				continue
			}
			if m, _ := nested.(map[string]any); len(m) == 1 && m["@type"] != nil {
				continue // only the block's @type is left: nothing of its own bound
			}
			out[key] = nested
		case string:
			resolved, ok := fitLeaf(key, v, row, voc, defaultHide)
			if ok {
				out[key] = resolved
			} else if key == anchorKeyStr {
				return nil, false
			}
		default:
			out[key] = v
		}
	}

	if anchorKeyStr != "" {
		if _, ok := out[anchorKeyStr]; !ok {
			return nil, false
		}
	}

	// Mirrors __fitResult's "every remaining key was @type/$anchor ⇒ pop the
	// whole block" rule: a nested object none of whose leaves bound in this
	// row (and with no anchor of its own to gate on above) contributes
	// nothing, so the caller should omit it rather than nest an empty {}.
	// $anchor never reaches out; a block left with only @type is dropped by
	// the caller's nested-object branch above.
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func fitLeaf(key, raw string, row Row, voc coerce.Vocabulary, defaultHide bool) (any, bool) {
	rl, ok := proto.ParseRewritten(raw)
	if !ok {
		return raw, true
	}
	binding, ok := row[strings.TrimPrefix(rl.Var, "?")]
	if !ok {
		return nil, false
	}

	hide := defaultHide
	if rl.LangTag != "" {
		hide = rl.LangTag == "hide"
	}

	opts := coerce.Options{
		Voc:        voc,
		IsIDLeaf:   vocabIDKeys[key],
		List:       rl.List,
		Accept:     rl.Accept,
		LangTagHid: hide,
	}
	value, warn, ok := coerce.Coerce(binding, opts)
	if warn != nil {
		slog.Warn("accept-type validation bypassed", "key", key, "error", warn)
	}
	return value, ok
}
