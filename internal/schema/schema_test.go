package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDirectivesAcceptsWellFormedDocument(t *testing.T) {
	raw := map[string]any{
		"$prefixes":  map[string]any{"dbo": "http://dbpedia.org/ontology/"},
		"$distinct":  true,
		"$from":      "http://dbpedia.org",
		"$limit":     5,
		"$offset":    0,
		"$limitMode": "endpoint",
		"$langTag":   "show",
		"name":       "?name",
	}
	errs := ValidateDirectives(raw)
	assert.Empty(t, errs)
}

func TestValidateDirectivesRejectsBadLimitMode(t *testing.T) {
	raw := map[string]any{"$limitMode": "somewhere-else"}
	errs := ValidateDirectives(raw)
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrSchemaViolation, errs[0].Code)
}

func TestValidateDirectivesRejectsNegativeLimit(t *testing.T) {
	raw := map[string]any{"$limit": -1}
	errs := ValidateDirectives(raw)
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrSchemaViolation, errs[0].Code)
}

func TestValidateDirectivesRejectsBadLangTag(t *testing.T) {
	raw := map[string]any{"$langTag": "maybe"}
	errs := ValidateDirectives(raw)
	require.NotEmpty(t, errs)
}

func TestValidateDirectivesAllowsArbitraryPrototypeKeys(t *testing.T) {
	raw := map[string]any{
		"name": "?name",
		"nested": map[string]any{
			"anything": "?goes",
		},
	}
	errs := ValidateDirectives(raw)
	assert.Empty(t, errs)
}

func TestValidationErrorFormatsCodeFieldMessage(t *testing.T) {
	e := ValidationError{Field: "$limit", Message: "must be >= 0", Code: ErrSchemaViolation}
	assert.Equal(t, "[E101] $limit: must be >= 0", e.Error())
}
