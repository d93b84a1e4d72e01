// Package walk implements the Prototype Walker: a single pre-order pass
// over a proto.Object that produces the SELECT variable list and WHERE
// fragments the Clause Assembler needs, while rewriting each leaf in place
// to the resolved-variable boundary form the Shaper reads back later.
package walk

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/graphproto/protoql/internal/proto"
)

// anchorIDKeys are the vocabulary id keys ("id" in plain mode, "@id" in
// JSON-LD mode) that make a property object the anchor/root of its subtree
// even without an explicit "anchor" leaf option.
var anchorIDKeys = []string{"@id", "id"}

// Options carries per-document context threaded through every recursive
// call.
type Options struct {
	// LangPrimary is the document's top-level $lang option, used as the
	// default tag for both "lang" and "bestlang" leaves that do not name
	// one inline.
	LangPrimary string
	// Values is the normalized $values map (keyed by "?var"); present
	// entries make their leaf required and receive an appended "@lang"
	// when a lang filter targets the same variable.
	Values map[string]any
}

// Result accumulates the SELECT projection list, in prototype order, and
// the top-level (already OPTIONAL-wrapped where appropriate) WHERE
// fragments produced by walking the whole tree once.
type Result struct {
	Vars   []string
	Wheres []string
	Err    error
}

// BestlangRequiresLanguageError reports a "bestlang" leaf option with no
// inline tag, on a document (or subtree) with no $lang to fall back to.
// This is fatal, mirroring the original transformer's AttributeError.
type BestlangRequiresLanguageError struct {
	Key string
}

func (e *BestlangRequiresLanguageError) Error() string {
	return fmt.Sprintf("property %q: bestlang requires a language declared inline or via the document's $lang option", e.Key)
}

// Walk descends obj, mutating its leaves in place, and returns the
// accumulated SELECT/WHERE material. obj must already have had its
// directive ($-prefixed) keys removed by the caller (internal/document) —
// the Walker only ever sees the graph/proto body.
func Walk(obj *proto.Object, opts Options) (*Result, error) {
	if opts.Values == nil {
		opts.Values = map[string]any{}
	}
	res := &Result{}
	wheres, _ := walkObject(obj, "v", "", opts, res)
	if res.Err != nil {
		return nil, res.Err
	}
	res.Wheres = wheres
	return res, nil
}

func walkObject(obj *proto.Object, prefix, priorRoot string, opts Options, res *Result) (wheres []string, required bool) {
	rootID, blockRequired := computeRootID(obj, prefix)
	if rootID == "" {
		rootID = priorRoot
	}
	if rootID == "" {
		rootID = "?id"
	}

	for index, key := range obj.Keys() {
		if res.Err != nil {
			return wheres, blockRequired
		}
		if key == "$anchor" || key == "$asList" {
			continue
		}
		val, _ := obj.Get(key)
		switch v := val.(type) {
		case *proto.Object:
			childPrefix := prefix + strconv.Itoa(index)
			innerWheres, innerRequired := walkObject(v, childPrefix, rootID, opts, res)
			if len(innerWheres) == 0 {
				continue
			}
			joined := strings.Join(innerWheres, " .\n")
			if innerRequired {
				wheres = append(wheres, joined)
			} else {
				wheres = append(wheres, "OPTIONAL { "+joined+" }")
			}
		case string:
			w := walkLeaf(obj, key, v, index, prefix, rootID, priorRoot, opts, res)
			if w != "" {
				wheres = append(wheres, w)
			}
		default:
			// scalars and arrays are passed through untouched.
		}
	}
	return wheres, blockRequired
}

// computeRootID finds the anchor leaf of obj (one explicitly marked with
// the "anchor" option, or else a bare vocabulary id key) and resolves or
// mints its root variable, matching __computeRootID. It mutates obj,
// recording "$anchor"/"$asList" for the Shaper's merge engine.
func computeRootID(obj *proto.Object, prefix string) (rootID string, required bool) {
	anchorKey := findAnchorKey(obj)
	if anchorKey == "" {
		return "", false
	}

	rawVal, _ := obj.Get(anchorKey)
	str, _ := rawVal.(string)
	leaf, ok := proto.ParseLeaf(str)
	if !ok {
		obj.Set("$anchor", anchorKey)
		return "", false
	}

	base := ""
	if !leaf.Keyed {
		base = "?" + leaf.Target
	}
	required = leaf.Required || base != ""
	if leaf.VarOverride != "" {
		base = makeVar(leaf.VarOverride)
	}
	if base == "" {
		base = "?" + prefix + "r"
		obj.Set(anchorKey, str+"$var:"+strings.TrimPrefix(base, "?"))
	}

	obj.Set("$anchor", anchorKey)
	obj.Set("$asList", leaf.List)
	return base, required
}

func findAnchorKey(obj *proto.Object) string {
	for _, k := range obj.Keys() {
		v, _ := obj.Get(k)
		if s, ok := v.(string); ok && strings.Contains(s, "$anchor") {
			return k
		}
	}
	for _, idKey := range anchorIDKeys {
		if obj.Has(idKey) {
			return idKey
		}
	}
	return ""
}

// walkLeaf processes one string-valued property: a keyed predicate
// ("$predicate$opt...") or a variable reference ("?name$opt..."). It
// rewrites obj[key] to the resolved boundary form, registers the SELECT
// projection entry, and — for keyed leaves only — returns the WHERE
// fragment for the triple it introduces (required or OPTIONAL-wrapped).
func walkLeaf(obj *proto.Object, key, raw string, index int, prefix, rootID, priorRoot string, opts Options, res *Result) string {
	leaf, ok := proto.ParseLeaf(raw)
	if !ok {
		return ""
	}

	idOriginal := "?" + leaf.Target
	if leaf.Keyed {
		idOriginal = "?" + prefix + strconv.Itoa(index)
	}
	id := idOriginal
	if leaf.VarOverride != "" {
		id = makeVar(leaf.VarOverride)
	}

	idAggregate := idOriginal
	if leaf.Keyed {
		idAggregate = id
	}
	// Open Question resolution (see DESIGN.md): spec.md documents a uniform
	// rename rule for both keyed and variable-reference leaves, unlike the
	// original's keyed-leaf quirk.
	if leaf.Aggregate != "" && leaf.VarOverride == "" {
		id = fmt.Sprintf("?%s_%s", leaf.Aggregate, strings.TrimPrefix(idOriginal, "?"))
	}

	_, inValues := opts.Values[id]
	required := leaf.Required || key == "id" || key == "@id" || inValues || (leaf.Aggregate != "" && leaf.Keyed)

	rewritten := id
	switch {
	case leaf.HasBestlang:
		rewritten += "$accept:string"
	case leaf.Accept != "":
		rewritten += "$accept:" + leaf.Accept
	}
	if leaf.LangTagMode != "" {
		rewritten += "$langTag:" + leaf.LangTagMode
	}
	if leaf.List && id != rootID {
		rewritten += "$asList"
	}
	obj.Set(key, rewritten)

	strVar := id
	if leaf.Sample {
		strVar = fmt.Sprintf("(SAMPLE(%s) AS %s)", id, id)
	}
	if leaf.Aggregate != "" {
		distinct := ""
		if leaf.Distinct {
			distinct = "DISTINCT "
		}
		strVar = fmt.Sprintf("(%s(%s%s) AS %s)", strings.ToUpper(leaf.Aggregate), distinct, idAggregate, id)
	}
	if leaf.HasBestlang {
		tag := leaf.BestlangTag
		if tag == "" {
			tag = firstLangToken(opts.LangPrimary)
		}
		if tag == "" {
			res.Err = &BestlangRequiresLanguageError{Key: key}
			return ""
		}
		strVar = fmt.Sprintf(`(sql:BEST_LANGMATCH(%s, "%s", "en") AS %s)`, id, tag, id)
	}
	if !containsStr(res.Vars, strVar) {
		res.Vars = append(res.Vars, strVar)
	}

	filterLang := ""
	if leaf.HasLang {
		lang := leaf.LangTag
		if lang == "" {
			lang = firstLangToken(opts.LangPrimary)
		}
		if lang != "" {
			lang = strings.TrimSpace(lang)
			if sval, ok := opts.Values[id].(string); ok {
				opts.Values[id] = sval + "@" + lang
			} else {
				filterLang = fmt.Sprintf(" . FILTER(lang(%s) = '%s')", id, lang)
			}
		}
	}

	if !leaf.Keyed {
		return ""
	}

	// The triple pattern always binds idAggregate (the minted variable, or
	// its var: override), never the aggregate-renamed alias in id: a SPARQL
	// WHERE clause cannot reference a SELECT-only aggregate alias, only the
	// variable the aggregate function wraps.
	usePriorRoot := idAggregate == rootID || (leaf.PrevRoot && priorRoot != "")
	idThisRoot := rootID
	if usePriorRoot {
		idThisRoot = priorRoot
	}
	subject, object := idThisRoot, idAggregate
	if leaf.Reverse {
		subject, object = idAggregate, idThisRoot
	}

	where := subject + " " + leaf.Target + " " + object + filterLang
	if strings.TrimSpace(where) == "" {
		return ""
	}
	if !required {
		return "OPTIONAL { " + where + " }"
	}
	return where
}

func makeVar(name string) string {
	if strings.HasPrefix(name, "?") {
		return name
	}
	return "?" + name
}

// firstLangToken implements the "bestlang" default: split the document's
// $lang option on ';' or ',' and take the first token.
func firstLangToken(langPrimary string) string {
	if langPrimary == "" {
		return ""
	}
	for i, r := range langPrimary {
		if r == ';' || r == ',' {
			return langPrimary[:i]
		}
	}
	return langPrimary
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
