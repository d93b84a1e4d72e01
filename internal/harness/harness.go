package harness

import (
	"context"
	"fmt"

	"github.com/graphproto/protoql/internal/config"
	"github.com/graphproto/protoql/internal/document"
	"github.com/graphproto/protoql/internal/execute"
)

// Scenario is one self-contained compile+shape test case: a raw document
// plus the canned SPARQL JSON results it should receive in place of a real
// endpoint round-trip.
type Scenario struct {
	Name     string
	Document []byte
	Bindings []map[string]execute.Binding // rows in "results.bindings" order
	Options  config.Options
}

// Result is what a Scenario produced: the compiled SPARQL text and the
// shaped output document, both suitable for golden comparison or direct
// assertion.
type Result struct {
	Query  string
	Output any
}

// Run parses and compiles scenario.Document, executes it against the
// scenario's canned bindings (no network I/O, matching spec.md §5's
// "trivially testable without I/O" contract), and shapes the result.
func Run(scenario Scenario) (*Result, error) {
	doc, err := document.ParseAny(scenario.Document)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: parse: %w", scenario.Name, err)
	}

	query, err := doc.Compile()
	if err != nil {
		return nil, fmt.Errorf("scenario %q: compile: %w", scenario.Name, err)
	}

	canned := &execute.Results{}
	canned.Results.Bindings = scenario.Bindings

	ex := execute.ExecutorFunc(func(ctx context.Context, q string) (*execute.Results, error) {
		return canned, nil
	})

	opts := scenario.Options
	if opts.LangTag == "" {
		opts = config.Override(config.Defaults(), opts)
	}

	out, err := doc.Run(context.Background(), ex, opts)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: run: %w", scenario.Name, err)
	}

	return &Result{Query: query, Output: out}, nil
}
