package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/graphproto/protoql/internal/assemble"
	"github.com/graphproto/protoql/internal/coerce"
	"github.com/graphproto/protoql/internal/config"
	"github.com/graphproto/protoql/internal/execute"
	"github.com/graphproto/protoql/internal/proto"
	"github.com/graphproto/protoql/internal/shape"
	"github.com/graphproto/protoql/internal/values"
	"github.com/graphproto/protoql/internal/walk"
)

// graphKeys are the two mutually exclusive top-level keys that carry the
// prototype body: "@graph" selects JSON-LD vocabulary mode, "proto" plain
// mode.
var graphKeys = []string{"@graph", "proto"}

// Document is one parsed, directive-stripped compilation unit: the
// prototype body plus everything the Walker/Assembler/Shaper need from the
// document root.
type Document struct {
	Proto      *proto.Object
	Directives Directives
	Voc        coerce.Vocabulary
	JSONLD     bool
	Context    any

	compiled  bool
	compiledQ string
}

// Parse ingests raw JSON bytes, selects vocabulary mode from the presence
// of "@graph" vs "proto", unwraps a one-element-list prototype body
// (silently dropping extras — Open Question resolution, see DESIGN.md),
// extracts and removes every directive key, and returns the resulting
// Document. The input is never mutated in place by the caller since
// proto.Decode always produces a fresh tree.
func Parse(data []byte) (*Document, error) {
	root, err := proto.Decode(data)
	if err != nil {
		return nil, newError(ErrCodeInvalidInput, fmt.Sprintf("input is not a valid JSON object: %v", err), nil)
	}
	return fromRoot(root)
}

// ParseAny accepts raw JSON bytes, an already-decoded *proto.Object (which
// is cloned), or a filesystem path string to a JSON file, matching spec.md
// §6's "Either a parsed JSON object or a filesystem path to one." Any other
// type, including a plain map[string]any, is rejected as invalid input.
func ParseAny(input any) (*Document, error) {
	switch v := input.(type) {
	case []byte:
		return Parse(v)
	case string:
		data, err := os.ReadFile(v)
		if err != nil {
			return nil, newError(ErrCodeInvalidInput, fmt.Sprintf("path %q is not a readable JSON file: %v", v, err), nil)
		}
		return Parse(data)
	case *proto.Object:
		return fromRoot(v.Clone())
	default:
		return nil, newError(ErrCodeInvalidInput, fmt.Sprintf("input must be a parsed object or a file path, got %T", input), nil)
	}
}

func fromRoot(root *proto.Object) (*Document, error) {
	jsonld := root.Has("@graph")
	var graphKey string
	for _, k := range graphKeys {
		if root.Has(k) {
			graphKey = k
			break
		}
	}
	if graphKey == "" {
		return nil, newError(ErrCodeInvalidInput, `document must contain "proto" or "@graph"`, nil)
	}

	var ctxVal any
	if jsonld {
		ctxVal, _ = root.Get("@context")
	}

	rawProto, _ := root.Get(graphKey)
	protoObj, err := unwrapProtoBody(rawProto)
	if err != nil {
		return nil, err
	}

	directives := extractDirectives(root)

	voc := coerce.PlainVocabulary
	if jsonld {
		voc = coerce.JSONLDVocabulary
	}

	return &Document{
		Proto:      protoObj,
		Directives: directives,
		Voc:        voc,
		JSONLD:     jsonld,
		Context:    ctxVal,
	}, nil
}

// unwrapProtoBody accepts either the prototype object directly, or (the
// supplemented, original-source-grounded behavior) a one-element array
// wrapping it; anything beyond the first element is silently dropped.
func unwrapProtoBody(v any) (*proto.Object, error) {
	switch t := v.(type) {
	case *proto.Object:
		return t, nil
	case []any:
		if len(t) == 0 {
			return nil, newError(ErrCodeInvalidInput, "prototype list is empty", nil)
		}
		obj, ok := t[0].(*proto.Object)
		if !ok {
			return nil, newError(ErrCodeInvalidInput, "prototype list's first element is not an object", nil)
		}
		return obj, nil
	default:
		return nil, newError(ErrCodeInvalidInput, fmt.Sprintf("prototype body must be an object, got %T", v), nil)
	}
}

// Compile runs the Prototype Walker and Clause Assembler, producing the
// final SPARQL query text. It mutates d.Proto in place (the Walker's
// contract), so the walk itself runs at most once per Document: a second
// call returns the cached query text instead of re-walking the already
// rewritten prototype.
func (d *Document) Compile() (string, error) {
	if d.compiled {
		return d.compiledQ, nil
	}

	normalizedValues := values.Normalize(d.Directives.Values)

	res, err := walk.Walk(d.Proto, walk.Options{
		LangPrimary: d.Directives.Lang,
		Values:      normalizedValues,
	})
	if err != nil {
		var bl *walk.BestlangRequiresLanguageError
		if asBestlang(err, &bl) {
			return "", newError(ErrCodeBestlangNoLanguage, bl.Error(), map[string]string{"key": bl.Key})
		}
		return "", err
	}

	orderedKeys := make([]string, 0, len(d.Directives.ValuesKeys))
	for _, k := range d.Directives.ValuesKeys {
		orderedKeys = append(orderedKeys, values.MakeVariable(k))
	}
	valuesClauses := values.ParseValuesClauses(orderedKeys, normalizedValues, d.Directives.Prefixes)

	q := assemble.Query{
		Prefixes:  d.Directives.Prefixes,
		Distinct:  d.Directives.Distinct,
		Vars:      res.Vars,
		From:      d.Directives.From,
		FromNamed: d.Directives.FromNamed,
		Values:    valuesClauses,
		Wheres:    res.Wheres,
		Where:     d.Directives.Where,
		Filter:    d.Directives.Filter,
		GroupBy:   d.Directives.GroupBy,
		Having:    d.Directives.Having,
		OrderBy:   d.Directives.OrderBy,
		Limit:     d.Directives.Limit,
		HasLimit:  d.Directives.HasLimit,
		Offset:    d.Directives.Offset,
		HasOffset: d.Directives.HasOffset,
		LimitMode: d.Directives.LimitMode,
	}
	d.compiledQ = assemble.Build(q)
	d.compiled = true
	slog.Debug("compiled prototype", "vars", res.Vars, "wheres", len(res.Wheres))
	return d.compiledQ, nil
}

// Run compiles the document, executes it against ex, and shapes the
// resulting bindings into the final output document, applying library-side
// LIMIT/OFFSET slicing when $limitMode == "library".
func (d *Document) Run(ctx context.Context, ex execute.Executor, opts config.Options) (any, error) {
	query, err := d.Compile()
	if err != nil {
		return nil, err
	}

	results, err := ex.Execute(ctx, query)
	if err != nil {
		return nil, newError(ErrCodeEndpointFailure, err.Error(), nil)
	}
	slog.Debug("executed query", "bindings", len(results.Results.Bindings))

	rows := make([]shape.Row, 0, len(results.Results.Bindings))
	for _, binding := range results.Results.Bindings {
		row := make(shape.Row, len(binding))
		for k, b := range binding {
			row[k] = b.ToCoerceBinding()
		}
		rows = append(rows, row)
	}

	defaultHide := strings.EqualFold(opts.LangTag, "hide")
	return d.shapeRows(rows, defaultHide)
}

// shapeRows fits each row against the solved prototype, merges rows
// sharing an anchor, strips housekeeping keys, applies library-side
// paging, and wraps the result in {@context,@graph} under JSON-LD mode.
func (d *Document) shapeRows(rows []shape.Row, defaultHide bool) (any, error) {
	var merged []map[string]any
	anchored := d.Proto.Has("$anchor")

	for _, row := range rows {
		fitted, ok := shape.Fit(d.Proto, row, d.Voc, defaultHide)
		if !ok {
			continue
		}
		obj, ok := fitted.(map[string]any)
		if !ok {
			continue
		}

		if !anchored {
			merged = append(merged, obj)
			continue
		}

		anchorKeyAny, _ := d.Proto.Get("$anchor")
		anchorKey, _ := anchorKeyAny.(string)
		anchorVal := obj[anchorKey]

		matchIdx := -1
		for i, existing := range merged {
			if shape.Equal(existing[anchorKey], anchorVal) {
				matchIdx = i
				break
			}
		}
		if matchIdx == -1 {
			merged = append(merged, obj)
		} else {
			shape.MergeInto(merged[matchIdx], obj)
		}
	}

	out := make([]any, len(merged))
	for i, m := range merged {
		out[i] = m
	}

	if d.Directives.LimitMode == "library" && d.Directives.HasLimit {
		start := d.Directives.Offset
		if start > len(out) {
			start = len(out)
		}
		end := start + d.Directives.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}

	if d.JSONLD {
		return map[string]any{"@context": d.Context, "@graph": out}, nil
	}
	return out, nil
}

func asBestlang(err error, target **walk.BestlangRequiresLanguageError) bool {
	if e, ok := err.(*walk.BestlangRequiresLanguageError); ok {
		*target = e
		return true
	}
	return false
}
