// Package assemble implements the Clause Assembler: turning the pieces the
// Prototype Walker and document-level directives produce into one SPARQL
// query string.
package assemble

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Query holds every assembled clause fragment, ready for final string
// concatenation. Each field is the already-rendered clause text (or "" if
// absent) so Build stays a pure template join, matching the original's
// single format-string assembly in __createSPARQLQuery.
type Query struct {
	Prefixes map[string]string // declared $prefixes, rendered sorted by key for determinism

	Distinct bool
	Vars     []string // SELECT projection list, in prototype order

	From      []string
	FromNamed []string

	Values []string // rendered "VALUES ?v {...}" blocks, in $values key order
	Wheres []string // required/OPTIONAL fragments, in prototype pre-order
	Where  []string // document-level $where passthrough strings, spliced as required fragments
	Filter []string // document-level $filter passthrough strings (raw boolean expressions)

	GroupBy []string
	Having  []string
	OrderBy []string

	Limit      int
	Offset     int
	LimitMode  string // "" or "library" — "library" suppresses LIMIT/OFFSET at the SPARQL level
	HasLimit   bool
	HasOffset  bool
}

var (
	multiNewlineRe  = regexp.MustCompile(`\n+`)
	blankLineRe     = regexp.MustCompile(`\n\s+\n`)
	multiPeriodRe   = regexp.MustCompile(`\.+`)
)

const indent = "  "

// Build renders q to a single SPARQL query string, applying the same three
// whitespace/period normalization passes as the original (collapse repeated
// newlines, collapse blank lines, collapse repeated periods).
func Build(q Query) string {
	qPrefixes := renderPrefixes(q.Prefixes)

	qDistinct := ""
	if q.Distinct {
		qDistinct = "DISTINCT"
	}
	qVars := strings.Join(q.Vars, " ")

	qFrom := joinPrefixed(q.From, "FROM %s")
	qFromNamed := joinPrefixed(q.FromNamed, "FROM NAMED %s")

	qValues := strings.Join(q.Values, "\n"+indent)

	whereFragments := make([]string, 0, len(q.Where)+len(q.Wheres))
	for _, w := range q.Where {
		if strings.TrimSpace(w) == "" {
			continue
		}
		whereFragments = append(whereFragments, w+closer(w))
	}
	for _, w := range q.Wheres {
		if strings.TrimSpace(w) == "" {
			continue
		}
		whereFragments = append(whereFragments, w+closer(w))
	}
	qWheres := strings.Join(whereFragments, "\n"+indent)

	filterParts := make([]string, 0, len(q.Filter))
	for _, f := range q.Filter {
		filterParts = append(filterParts, fmt.Sprintf("FILTER(%s)", f))
	}
	qFilters := strings.Join(filterParts, "\n"+indent)

	qGroupBy := ""
	if len(q.GroupBy) > 0 {
		qGroupBy = "GROUP BY " + strings.Join(q.GroupBy, " ")
	}
	qHaving := ""
	if len(q.Having) > 0 {
		qHaving = fmt.Sprintf("HAVING (%s)", strings.Join(q.Having, " && "))
	}
	qOrderBy := ""
	if len(q.OrderBy) > 0 {
		qOrderBy = "ORDER BY " + strings.Join(q.OrderBy, " ")
	}

	notLibraryMode := q.LimitMode != "library"
	qLimit := ""
	if q.HasLimit && notLibraryMode {
		qLimit = fmt.Sprintf("LIMIT %d", q.Limit)
	}
	qOffset := ""
	if q.HasOffset && notLibraryMode {
		qOffset = fmt.Sprintf("OFFSET %d", q.Offset)
	}

	out := fmt.Sprintf(`%s
SELECT %s %s
%s
%s
WHERE {
  %s
  %s
  %s
}
%s
%s
%s
%s
%s
`, qPrefixes,
		qDistinct, qVars,
		qFrom, qFromNamed,
		qValues, qWheres, qFilters,
		qGroupBy, qHaving, qOrderBy, qLimit, qOffset)

	out = multiNewlineRe.ReplaceAllString(out, "\n")
	out = blankLineRe.ReplaceAllString(out, "\n")
	out = multiPeriodRe.ReplaceAllString(out, ".")
	return out
}

// closer appends the WHERE-fragment terminator (" .") unless the fragment
// already ends in one of '{', '}', '(' or '[', matching the original's
// `w + ('' if w[-1] in "{}([" else ' .')`.
func closer(w string) string {
	if strings.TrimSpace(w) == "" {
		return ""
	}
	last := w[len(w)-1]
	if strings.ContainsRune("{}([", rune(last)) {
		return ""
	}
	return " ."
}

func joinPrefixed(items []string, format string) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf(format, it))
	}
	return strings.Join(parts, "\n")
}

func renderPrefixes(prefixes map[string]string) string {
	if len(prefixes) == 0 {
		return ""
	}
	keys := make([]string, 0, len(prefixes))
	for k := range prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("PREFIX %s: <%s>", k, prefixes[k]))
	}
	return strings.Join(lines, "\n")
}
