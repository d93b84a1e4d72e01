package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeVariable(t *testing.T) {
	assert.Equal(t, "?name", MakeVariable("name"))
	assert.Equal(t, "?name", MakeVariable("?name"))
}

func TestIsCIRIE(t *testing.T) {
	prefixes := map[string]string{"foaf": "http://xmlns.com/foaf/0.1/"}
	assert.True(t, IsCIRIE("foaf:name", prefixes))
	assert.False(t, IsCIRIE("unknown:name", prefixes))
	assert.False(t, IsCIRIE("http://example.org/name", prefixes))
	assert.False(t, IsCIRIE("a:b:c", prefixes))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank("_:b0"))
	assert.False(t, IsBlank("foaf:b0"))
}

func TestNormalizeDropsEmpty(t *testing.T) {
	out := Normalize(map[string]any{
		"name":  "Alice",
		"empty": "",
		"nil":   nil,
		"list":  []any{},
	})
	assert.Equal(t, map[string]any{"?name": "Alice"}, out)
}

func TestParseTermPriority(t *testing.T) {
	prefixes := map[string]string{"foaf": "http://xmlns.com/foaf/0.1/"}

	assert.Equal(t, "<http://example.org/x>", ParseTerm("<http://example.org/x>", prefixes))
	assert.Equal(t, "foaf:Person", ParseTerm("foaf:Person", prefixes))
	assert.Equal(t, `"Alice"@en`, ParseTerm("Alice@en", prefixes))
	assert.Equal(t, `"Alice"@en`, ParseTerm(`"Alice"@en`, prefixes))
	assert.Equal(t, `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`, ParseTerm("42^^http://www.w3.org/2001/XMLSchema#integer", prefixes))
	assert.Equal(t, `"plain"`, ParseTerm(`"plain"`, prefixes))
	assert.Equal(t, `"""has "quotes""""`, ParseTerm(`has "quotes"`, prefixes))
	assert.Equal(t, `"bare"`, ParseTerm("bare", prefixes))
}

func TestParseValuesClausesPreservesKeyOrder(t *testing.T) {
	values := map[string]any{
		"?b": "second",
		"?a": "first",
	}
	out := ParseValuesClauses([]string{"?a", "?b"}, values, nil)
	assert.Equal(t, []string{
		`VALUES ?a {"first"}`,
		`VALUES ?b {"second"}`,
	}, out)
}
