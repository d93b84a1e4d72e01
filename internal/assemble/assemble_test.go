package assemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildBasicSelect(t *testing.T) {
	q := Query{
		Prefixes: map[string]string{"rdfs": "http://www.w3.org/2000/01/rdf-schema#"},
		Vars:     []string{"?id", "?v1"},
		Wheres:   []string{"?id rdfs:label ?v1"},
	}
	out := Build(q)
	assert.Contains(t, out, "PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>")
	assert.Contains(t, out, "SELECT  ?id ?v1")
	assert.Contains(t, out, "?id rdfs:label ?v1")
}

func TestBuildDistinct(t *testing.T) {
	q := Query{Distinct: true, Vars: []string{"?id"}}
	out := Build(q)
	assert.Contains(t, out, "SELECT DISTINCT ?id")
}

func TestBuildValuesAndFilter(t *testing.T) {
	q := Query{
		Vars:   []string{"?id"},
		Values: []string{`VALUES ?id { <http://ex.org/a> }`},
		Filter: []string{"?id != ?other"},
	}
	out := Build(q)
	assert.Contains(t, out, "VALUES ?id")
	assert.Contains(t, out, "FILTER(?id != ?other)")
}

func TestBuildLimitOffset(t *testing.T) {
	q := Query{Vars: []string{"?id"}, HasLimit: true, Limit: 10, HasOffset: true, Offset: 5}
	out := Build(q)
	assert.Contains(t, out, "LIMIT 10")
	assert.Contains(t, out, "OFFSET 5")
}

func TestBuildLibraryLimitModeSuppressesClause(t *testing.T) {
	q := Query{Vars: []string{"?id"}, HasLimit: true, Limit: 10, LimitMode: "library"}
	out := Build(q)
	assert.NotContains(t, out, "LIMIT")
}

func TestBuildCollapsesBlankLines(t *testing.T) {
	q := Query{Vars: []string{"?id"}}
	out := Build(q)
	assert.False(t, strings.Contains(out, "\n\n"))
}

func TestBuildWhereClosesWithPeriodUnlessBlockOpener(t *testing.T) {
	assert.Equal(t, " .", closer("?id rdfs:label ?v1"))
	assert.Equal(t, "", closer("OPTIONAL {"))
	assert.Equal(t, "", closer(""))
}

func TestBuildJoinsMultipleWheresWithPeriod(t *testing.T) {
	q := Query{
		Vars:   []string{"?id", "?v1", "?v2"},
		Wheres: []string{"?id foaf:name ?v1", "?id foaf:age ?v2"},
	}
	out := Build(q)
	assert.Contains(t, out, "?id foaf:name ?v1 .\n  ?id foaf:age ?v2")
}

func TestBuildDoesNotDoublePeriodBeforeBlockOpener(t *testing.T) {
	q := Query{
		Vars:   []string{"?id", "?v1"},
		Wheres: []string{"?id foaf:name ?v1", "OPTIONAL { ?id foaf:nick ?v2 }"},
	}
	out := Build(q)
	assert.Contains(t, out, "?id foaf:name ?v1 .\n  OPTIONAL { ?id foaf:nick ?v2 }")
}

func TestBuildGroupByHavingOrderBy(t *testing.T) {
	q := Query{
		Vars:    []string{"?id", "(COUNT(?v1) AS ?count_v1)"},
		GroupBy: []string{"?id"},
		Having:  []string{"?count_v1 > 1"},
		OrderBy: []string{"DESC(?count_v1)"},
	}
	out := Build(q)
	assert.Contains(t, out, "GROUP BY ?id")
	assert.Contains(t, out, "HAVING (?count_v1 > 1)")
	assert.Contains(t, out, "ORDER BY DESC(?count_v1)")
}
