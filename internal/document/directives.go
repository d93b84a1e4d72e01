package document

import (
	"encoding/json"
	"strconv"

	"github.com/graphproto/protoql/internal/proto"
)

// Directives holds every top-level $-prefixed key, stripped from the
// document before the Walker ever sees it (spec.md §3, "Directive keys").
type Directives struct {
	Prefixes  map[string]string
	Distinct  bool
	From      []string
	FromNamed []string
	Values    map[string]any
	ValuesKeys []string // insertion order of $values, since map[string]any does not preserve it
	Where     []string
	Filter    []string
	Lang      string
	GroupBy   []string
	Having    []string
	OrderBy   []string

	Limit     int
	HasLimit  bool
	Offset    int
	HasOffset bool
	LimitMode string

	LangTag string // "show" (default) or "hide"
}

// directiveKeys lists every key popped off the document root before the
// remaining object is treated as the prototype body.
var directiveKeys = []string{
	"$prefixes", "$distinct", "$from", "$fromNamed", "$values", "$where",
	"$filter", "$lang", "$groupby", "$having", "$orderby", "$limit",
	"$offset", "$limitMode", "$langTag",
}

// extractDirectives pulls every directive key off obj (mutating it) and
// parses them into a Directives value. Apart from LangTag, which is "show"
// when the document omits $langTag, every field reflects only what the
// document itself declared.
func extractDirectives(obj *proto.Object) Directives {
	d := Directives{Prefixes: map[string]string{}, Values: map[string]any{}}

	if v, ok := popObject(obj, "$prefixes"); ok {
		for _, k := range v.Keys() {
			val, _ := v.Get(k)
			if s, ok := val.(string); ok {
				d.Prefixes[k] = s
			}
		}
	}
	if v, ok := pop(obj, "$distinct"); ok {
		if b, ok := v.(bool); ok {
			d.Distinct = b
		}
	}
	d.From = popStringList(obj, "$from")
	d.FromNamed = popStringList(obj, "$fromNamed")
	if v, ok := popObject(obj, "$values"); ok {
		for _, k := range v.Keys() {
			val, _ := v.Get(k)
			d.Values[k] = val
			d.ValuesKeys = append(d.ValuesKeys, k)
		}
	}
	d.Where = popStringList(obj, "$where")
	d.Filter = popStringList(obj, "$filter")
	if v, ok := pop(obj, "$lang"); ok {
		if s, ok := v.(string); ok {
			d.Lang = s
		}
	}
	d.GroupBy = popStringList(obj, "$groupby")
	d.Having = popStringList(obj, "$having")
	d.OrderBy = popStringList(obj, "$orderby")
	if v, ok := pop(obj, "$limit"); ok {
		if n, ok := asInt(v); ok {
			d.Limit, d.HasLimit = n, true
		}
	}
	if v, ok := pop(obj, "$offset"); ok {
		if n, ok := asInt(v); ok {
			d.Offset, d.HasOffset = n, true
		}
	}
	if v, ok := pop(obj, "$limitMode"); ok {
		if s, ok := v.(string); ok {
			d.LimitMode = s
		}
	}
	d.LangTag = "show"
	if v, ok := pop(obj, "$langTag"); ok {
		if s, ok := v.(string); ok {
			d.LangTag = s
		}
	}
	return d
}

func pop(obj *proto.Object, key string) (any, bool) {
	v, ok := obj.Get(key)
	if ok {
		obj.Delete(key)
	}
	return v, ok
}

func popObject(obj *proto.Object, key string) (*proto.Object, bool) {
	v, ok := pop(obj, key)
	if !ok {
		return nil, false
	}
	o, ok := v.(*proto.Object)
	return o, ok
}

func popStringList(obj *proto.Object, key string) []string {
	v, ok := pop(obj, key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, elem := range t {
			if s, ok := elem.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		n, err := strconv.Atoi(t.String())
		return n, err == nil
	case string:
		n, err := strconv.Atoi(t)
		return n, err == nil
	default:
		return 0, false
	}
}
