// Package coerce implements the Value Coercer: turning one raw SPARQL JSON
// binding ({type, value, datatype?, "xml:lang"?}) into a compact JSON-LD or
// plain-vocabulary value, applying XSD datatype-family coercion, language
// compounding, and accept-type filtering.
package coerce

import (
	"fmt"
	"strconv"
	"strings"
)

const xsdNS = "http://www.w3.org/2001/XMLSchema#"

// xsd family tables, copied verbatim from the XSD class of the original
// transformer: which concrete XSD datatypes coerce to which Go-native
// family.
var (
	xsdIntTypes = set(
		"integer", "nonPositiveInteger", "negativeInteger",
		"nonNegativeInteger", "positiveInteger",
		"long", "int", "short", "byte",
		"unsignedLong", "unsignedInt", "unsignedShort", "unsignedByte",
	)
	xsdBooleanTypes = set("boolean")
	xsdFloatTypes   = set("decimal", "float", "double")
	xsdDateTypes    = set("date", "dateTime")
)

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[xsdNS+n] = true
	}
	return m
}

// Vocabulary names the JSON keys used for id/type/value/lang/datatype,
// chosen per-document based on JSON-LD vs plain-proto mode.
type Vocabulary struct {
	ID, Type, Value, Lang, Dtype string
}

var JSONLDVocabulary = Vocabulary{ID: "@id", Type: "@type", Value: "@value", Lang: "@language", Dtype: "@datatype"}
var PlainVocabulary = Vocabulary{ID: "id", Type: "type", Value: "value", Lang: "language", Dtype: "datatype"}

// acceptTypes maps an `accept:` option value to the set of Go-native kinds
// (after XSD coercion) that are acceptable. Unknown accept names are not
// listed here; see Options.Accept handling in Coerce, which fails open.
var acceptTypes = map[string]func(any) bool{
	"int":      func(v any) bool { _, ok := v.(int64); return ok },
	"float":    func(v any) bool { _, ok := v.(float64); return ok },
	"number":   func(v any) bool { _, i := v.(int64); _, f := v.(float64); return i || f },
	"str":      func(v any) bool { _, ok := v.(string); return ok },
	"string":   func(v any) bool { _, ok := v.(string); return ok },
	"boolean":  func(v any) bool { _, ok := v.(bool); return ok },
	"bool":     func(v any) bool { _, ok := v.(bool); return ok },
	"date":     func(v any) bool { _, ok := v.(string); return ok },
	"datetime": func(v any) bool { _, ok := v.(string); return ok },
}

// Binding is one raw SPARQL JSON result term: {"type", "value", "datatype"?,
// "xml:lang"?}.
type Binding struct {
	Type     string
	Value    string
	Datatype string
	Lang     string
}

// Options controls how a single leaf's binding is coerced.
type Options struct {
	Voc        Vocabulary
	IsIDLeaf   bool   // true when this leaf is the document's id/@id key
	List       bool   // wrap result in a one-element list
	Accept     string // accept: option, "" if absent
	LangTagHid bool   // true when langTag resolves to "hide" for this leaf
}

// UnknownAcceptError reports that an `accept:` option named a type the
// Coercer does not recognize. Per the original transformer, this is a
// fail-open condition: validation is skipped rather than rejecting the
// document, but callers may want to surface the warning.
type UnknownAcceptError struct {
	Accept string
}

func (e *UnknownAcceptError) Error() string {
	return fmt.Sprintf("unknown accept type %q: skipping accept validation", e.Accept)
}

// Coerce converts one binding to its compact JSON-LD/plain value, or
// returns (nil, nil, false) if the binding's RDF term type is unrecognized
// (neither "uri" nor "literal") or if it fails accept-type validation. A
// non-nil warn return means an unknown accept type was seen but validation
// was skipped (fail-open), not that the value was rejected.
func Coerce(b Binding, opts Options) (value any, warn error, ok bool) {
	switch b.Type {
	case "uri":
		return coerceURI(b.Value, opts), nil, true
	case "literal":
		return coerceLiteral(b, opts)
	default:
		return nil, nil, false
	}
}

func coerceURI(uri string, opts Options) any {
	var v any = uri
	if !opts.IsIDLeaf {
		v = map[string]any{opts.Voc.ID: uri}
	}
	if opts.List {
		return []any{v}
	}
	return v
}

func coerceLiteral(b Binding, opts Options) (any, error, bool) {
	var coerced any = b.Value
	compound := false

	switch {
	case b.Datatype != "" && xsdBooleanTypes[b.Datatype]:
		coerced = !isFalsy(b.Value)
	case b.Datatype != "" && xsdIntTypes[b.Datatype]:
		n, err := strconv.ParseInt(b.Value, 10, 64)
		if err != nil {
			return nil, nil, false
		}
		coerced = n
	case b.Datatype != "" && xsdFloatTypes[b.Datatype]:
		f, err := strconv.ParseFloat(strings.ReplaceAll(b.Value, "INF", "Inf"), 64)
		if err != nil {
			return nil, nil, false
		}
		coerced = f
	case b.Datatype != "" && xsdDateTypes[b.Datatype]:
		compound = true
	case b.Datatype != "":
		compound = true // unrecognized datatype: leave as string, but compound
	case b.Lang != "" && !opts.LangTagHid:
		compound = true
	}

	var warn error
	if opts.Accept != "" {
		check, known := acceptTypes[opts.Accept]
		if !known {
			warn = &UnknownAcceptError{Accept: opts.Accept}
		} else if !check(coerced) {
			return nil, warn, false
		}
	}

	result := coerced
	if compound {
		switch {
		case b.Datatype != "":
			result = map[string]any{opts.Voc.Value: coerced, opts.Voc.Dtype: b.Datatype}
		case b.Lang != "":
			result = map[string]any{opts.Voc.Value: coerced, opts.Voc.Lang: b.Lang}
		}
	}
	if opts.List {
		result = []any{result}
	}
	return result, warn, true
}

func isFalsy(s string) bool {
	switch s {
	case "false", "0", "False":
		return true
	default:
		return false
	}
}
