// Package schema validates a document's directive keys against a CUE
// schema before compilation. Errors use an E1xx field/code/message shape.
package schema

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// Validation error codes (E100-E199), reserved for document/schema
// validation.
const (
	ErrInvalidJSON       = "E100" // directive block does not even decode as JSON-compatible data
	ErrSchemaViolation   = "E101" // a directive key's value does not satisfy its CUE constraint
	ErrUnknownDirective  = "E102" // a "$"-prefixed key is not one of the recognized directives
)

// ValidationError mirrors compiler.ValidationError's shape: Field, Message,
// Code, all JSON-tagged for CLIResponse embedding.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// directiveSchema constrains every recognized "$"-prefixed top-level key.
// The trailing "..." leaves every other key open to CUE, so non-"$" keys
// (the prototype body itself) stay unconstrained, since the prototype's own
// shape is arbitrarily deep and validated structurally by the Walker;
// unlisted "$"-prefixed keys are rejected by ValidateDirectives itself.
const directiveSchema = `
#Directives: {
	"$prefixes"?:  [string]: string
	"$distinct"?:  bool
	"$from"?:      string | [...string]
	"$fromNamed"?: string | [...string]
	"$values"?:    [string]: _
	"$where"?:     string | [...string]
	"$filter"?:    string | [...string]
	"$lang"?:      string
	"$groupby"?:   string | [...string]
	"$having"?:    string | [...string]
	"$orderby"?:   string | [...string]
	"$limit"?:     int & >=0
	"$offset"?:    int & >=0
	"$limitMode"?: "library" | "endpoint"
	"$langTag"?:   "show" | "hide"
	...
}
`

// ValidateDirectives checks the raw ("$"-keys included) top-level document
// map against directiveSchema. It returns every violation found (no
// fail-fast).
func ValidateDirectives(raw map[string]any) []ValidationError {
	ctx := cuecontext.New()
	schema := ctx.CompileString(directiveSchema)
	if schema.Err() != nil {
		return []ValidationError{{Field: "$schema", Message: schema.Err().Error(), Code: ErrInvalidJSON}}
	}
	def := schema.LookupPath(cue.ParsePath("#Directives"))

	dataVal := ctx.Encode(raw)
	if dataVal.Err() != nil {
		return []ValidationError{{Field: "$", Message: dataVal.Err().Error(), Code: ErrInvalidJSON}}
	}

	known := map[string]bool{"$prefixes": true, "$distinct": true, "$from": true, "$fromNamed": true,
		"$values": true, "$where": true, "$filter": true, "$lang": true, "$groupby": true, "$having": true,
		"$orderby": true, "$limit": true, "$offset": true, "$limitMode": true, "$langTag": true}
	var out []ValidationError
	for k := range raw {
		if strings.HasPrefix(k, "$") && !known[k] {
			out = append(out, ValidationError{Field: k, Message: "unrecognized directive key", Code: ErrUnknownDirective})
		}
	}

	unified := def.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(false), cue.All()); err != nil {
		out = append(out, translateErrors(err)...)
	}
	return out
}

func translateErrors(err error) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		path := e.Path()
		field := "$"
		if len(path) > 0 {
			field = path[len(path)-1]
		}
		out = append(out, ValidationError{
			Field:   field,
			Message: e.Error(),
			Code:    ErrSchemaViolation,
		})
	}
	return out
}
