package values

import (
	"fmt"
	"regexp"
	"strings"
)

// MakeVariable prefixes s with "?" if it is not already a SPARQL variable
// reference.
func MakeVariable(s string) string {
	if strings.HasPrefix(s, "?") {
		return s
	}
	return "?" + s
}

// Normalize turns a document's `$values` map (arbitrary keys, each mapped to
// a scalar or list of scalars) into a map keyed by SPARQL variable name,
// dropping entries whose value is empty/nil. Key order is not kept here:
// the Walker only looks entries up by variable name, and the VALUES block
// order comes from the key list passed to ParseValuesClauses.
func Normalize(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if isEmptyValue(v) {
			continue
		}
		out[MakeVariable(k)] = v
	}
	return out
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

var (
	langLiteralRe = regexp.MustCompile(`^.+@[a-z]{2,3}(_[A-Z]{2})?$`)
)

// ParseValuesClauses renders one `VALUES ?var {...}` block per key in
// values, in the iteration order given by keys. prefixes is the document's
// declared `$prefixes` map, used to disambiguate a CIRIE from a bare
// datatype/resource string.
func ParseValuesClauses(keys []string, values map[string]any, prefixes map[string]string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		raw, ok := values[key]
		if !ok {
			continue
		}
		items := asStringList(raw)
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, ParseTerm(item, prefixes))
		}
		out = append(out, fmt.Sprintf("VALUES %s {%s}", MakeVariable(key), strings.Join(parts, " ")))
	}
	return out
}

func asStringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{t}
	default:
		return nil
	}
}

// ParseTerm classifies and renders a single bare VALUES term, following the
// original transformer's priority chain: full IRI, CIRIE/blank, language
// literal, datatyped literal, already-quoted literal, multiline literal,
// default quoted literal.
func ParseTerm(s string, prefixes map[string]string) string {
	switch {
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">"):
		return s
	case IsCIRIEOrBlank(s, prefixes):
		return s
	case langLiteralRe.MatchString(s):
		at := strings.LastIndex(s, "@")
		part, lang := s[:at], s[at+1:]
		if strings.HasPrefix(part, `"`) && strings.HasSuffix(part, `"`) {
			return s
		}
		return fmt.Sprintf(`"%s"@%s`, part, lang)
	case strings.Contains(s, "^^"):
		idx := strings.Index(s, "^^")
		part, typ := s[:idx], s[idx+2:]
		if !(strings.HasPrefix(part, `"`) && strings.HasSuffix(part, `"`)) {
			part = `"` + part + `"`
		}
		if !((strings.HasPrefix(typ, "<") && strings.HasSuffix(typ, ">")) || IsCIRIE(typ, prefixes)) {
			typ = "<" + typ + ">"
		}
		return part + "^^" + typ
	case strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`):
		return s
	case strings.Contains(s, "\n") || strings.Contains(s, `"`):
		return `"""` + s + `"""`
	default:
		return `"` + s + `"`
	}
}
