package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphproto/protoql/internal/config"
	"github.com/graphproto/protoql/internal/execute"
)

func TestParseRejectsDocumentMissingGraphKey(t *testing.T) {
	_, err := Parse([]byte(`{"$distinct": true}`))
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
}

func TestCompileSimpleFlatQuery(t *testing.T) {
	doc, err := Parse([]byte(`{
		"$prefixes": {"foaf": "http://xmlns.com/foaf/0.1/"},
		"proto": {
			"id": "?person",
			"name": "$foaf:name"
		}
	}`))
	require.NoError(t, err)

	query, err := doc.Compile()
	require.NoError(t, err)
	assert.Contains(t, query, "PREFIX foaf: <http://xmlns.com/foaf/0.1/>")
	assert.Contains(t, query, "SELECT  ?person ?v1")
	assert.Contains(t, query, "OPTIONAL { ?person foaf:name ?v1 }")
}

func TestCompileBestlangWithoutLanguageFails(t *testing.T) {
	doc, err := Parse([]byte(`{
		"proto": {
			"id": "?person",
			"label": "$rdfs:label$bestlang"
		}
	}`))
	require.NoError(t, err)

	_, err = doc.Compile()
	require.Error(t, err)
	assert.True(t, IsBestlangError(err))
}

func TestRunMergesRowsSharingAnAnchor(t *testing.T) {
	doc, err := Parse([]byte(`{
		"proto": {
			"id": "?person",
			"name": "?name",
			"friend": {
				"id": "?friendId",
				"name": "?friendName"
			}
		}
	}`))
	require.NoError(t, err)

	results := &execute.Results{}
	results.Results.Bindings = []map[string]execute.Binding{
		{
			"person":    {Type: "uri", Value: "http://example.org/alice"},
			"name":      {Type: "literal", Value: "Alice"},
			"friendId":  {Type: "uri", Value: "http://example.org/bob"},
			"friendName": {Type: "literal", Value: "Bob"},
		},
		{
			"person":    {Type: "uri", Value: "http://example.org/alice"},
			"name":      {Type: "literal", Value: "Alice"},
			"friendId":  {Type: "uri", Value: "http://example.org/carol"},
			"friendName": {Type: "literal", Value: "Carol"},
		},
	}

	ex := execute.ExecutorFunc(func(ctx context.Context, query string) (*execute.Results, error) {
		return results, nil
	})

	out, err := doc.Run(context.Background(), ex, config.Defaults())
	require.NoError(t, err)

	rows, ok := out.([]any)
	require.True(t, ok)
	require.Len(t, rows, 1, "both bindings share the same root anchor and merge into one row")

	row, ok := rows[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Alice", row["name"])
}

func TestRunWrapsJSONLDDocuments(t *testing.T) {
	doc, err := Parse([]byte(`{
		"@context": "http://schema.org/",
		"@graph": {
			"@id": "?person",
			"name": "?name"
		}
	}`))
	require.NoError(t, err)
	assert.True(t, doc.JSONLD)

	ex := execute.ExecutorFunc(func(ctx context.Context, query string) (*execute.Results, error) {
		r := &execute.Results{}
		r.Results.Bindings = []map[string]execute.Binding{
			{"person": {Type: "uri", Value: "http://example.org/alice"}, "name": {Type: "literal", Value: "Alice"}},
		}
		return r, nil
	})

	out, err := doc.Run(context.Background(), ex, config.Defaults())
	require.NoError(t, err)

	wrapped, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "http://schema.org/", wrapped["@context"])
	assert.NotNil(t, wrapped["@graph"])
}

func TestRunAppliesLibrarySideLimitAndOffset(t *testing.T) {
	doc, err := Parse([]byte(`{
		"$limitMode": "library",
		"$limit": 1,
		"$offset": 1,
		"proto": {
			"id": "?person",
			"name": "?name"
		}
	}`))
	require.NoError(t, err)

	results := &execute.Results{}
	results.Results.Bindings = []map[string]execute.Binding{
		{"person": {Type: "uri", Value: "http://example.org/alice"}, "name": {Type: "literal", Value: "Alice"}},
		{"person": {Type: "uri", Value: "http://example.org/bob"}, "name": {Type: "literal", Value: "Bob"}},
		{"person": {Type: "uri", Value: "http://example.org/carol"}, "name": {Type: "literal", Value: "Carol"}},
	}
	ex := execute.ExecutorFunc(func(ctx context.Context, query string) (*execute.Results, error) {
		return results, nil
	})

	out, err := doc.Run(context.Background(), ex, config.Defaults())
	require.NoError(t, err)

	rows, ok := out.([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, "Bob", row["name"])
}

func TestRunSurfacesEndpointFailureAsRuntimeError(t *testing.T) {
	doc, err := Parse([]byte(`{"proto": {"id": "?person"}}`))
	require.NoError(t, err)

	ex := execute.ExecutorFunc(func(ctx context.Context, query string) (*execute.Results, error) {
		return nil, assertError("endpoint unreachable")
	})

	_, err = doc.Run(context.Background(), ex, config.Defaults())
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeEndpointFailure, re.Code)
}

type assertError string

func (e assertError) Error() string { return string(e) }
