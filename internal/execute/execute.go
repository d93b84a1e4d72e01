// Package execute provides the Executor Adapter: the single blocking
// operation in the whole pipeline (spec.md §5), replaceable by a
// caller-supplied pure function so the compiler and shaper stay testable
// without network I/O.
package execute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/graphproto/protoql/internal/coerce"
)

// Binding is one variable's bound term, as it arrives in the standard
// SPARQL JSON results format.
type Binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// ToCoerceBinding adapts a results-format Binding to the Value Coercer's
// input shape.
func (b Binding) ToCoerceBinding() coerce.Binding {
	return coerce.Binding{Type: b.Type, Value: b.Value, Datatype: b.Datatype, Lang: b.Lang}
}

// Results is the standard SPARQL 1.1 JSON results envelope.
type Results struct {
	Results struct {
		Bindings []map[string]Binding `json:"bindings"`
	} `json:"results"`
}

// Executor runs a compiled SPARQL query and returns the endpoint's parsed
// JSON results. A caller-supplied closure satisfies this exactly like
// spec.md §6's "sparqlFunction" config option.
type Executor interface {
	Execute(ctx context.Context, query string) (*Results, error)
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(ctx context.Context, query string) (*Results, error)

func (f ExecutorFunc) Execute(ctx context.Context, query string) (*Results, error) {
	return f(ctx, query)
}

// HTTPExecutor is the default Executor: a SPARQL 1.1 Protocol POST against
// endpoint, requesting the JSON results format.
type HTTPExecutor struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPExecutor returns an HTTPExecutor using http.DefaultClient.
func NewHTTPExecutor(endpoint string) *HTTPExecutor {
	return &HTTPExecutor{Endpoint: endpoint, Client: http.DefaultClient}
}

func (e *HTTPExecutor) Execute(ctx context.Context, query string) (*Results, error) {
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build SPARQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute SPARQL query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("endpoint %s returned %s: %s", e.Endpoint, resp.Status, bytes.TrimSpace(body))
	}

	var results Results
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode SPARQL results: %w", err)
	}
	return &results, nil
}
