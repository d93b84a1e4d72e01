package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphproto/protoql/internal/document"
	"github.com/graphproto/protoql/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Hash     string // optional: only replay runs for this document hash
	Document string // optional: re-compile this document and verify it reproduces every listed run's query
}

// ReplayRunResult is one recorded run's replay outcome.
type ReplayRunResult struct {
	ID           string `json:"id"`
	Seq          int64  `json:"seq"`
	DocumentHash string `json:"document_hash"`
	HadError     bool   `json:"had_error"`
	Reproducible *bool  `json:"reproducible,omitempty"`
}

// ReplayResult is the overall replay outcome across every run considered.
type ReplayResult struct {
	Runs            []ReplayRunResult `json:"runs"`
	TotalRuns       int               `json:"total_runs"`
	AllReproducible bool              `json:"all_reproducible"`
}

// NewReplayCommand creates the replay command: list (and optionally verify)
// runs recorded by "protoql query --db".
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "List and verify recorded compile/execute runs",
		Long: `Replay the run log recorded by "protoql query --db", reporting every run's
document hash and whether it produced an error.

With --doc, the named document is re-compiled and its query text is
compared against every listed run's stored query: a mismatch means the
document changed (or the compiler's output changed) since that run was
recorded.

Exit codes:
  0 - every considered run reproduced (or --doc was not given)
  1 - a run's recompiled query no longer matches what was recorded
  2 - command error (database not found, etc.)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run log SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Hash, "hash", "", "only replay runs for this document hash")
	cmd.Flags().StringVar(&opts.Document, "doc", "", "re-compile this document and verify it against every listed run")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := context.Background()
	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabaseError, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening run log", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, opts.Hash)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabaseError, err.Error(), nil)
		return WrapExitError(ExitCommandError, "listing runs", err)
	}

	var wantQuery string
	verifying := opts.Document != ""
	if verifying {
		doc, err := document.ParseAny(opts.Document)
		if err != nil {
			return outputDocumentError(formatter, err)
		}
		wantQuery, err = doc.Compile()
		if err != nil {
			return outputDocumentError(formatter, err)
		}
	}

	result := ReplayResult{TotalRuns: len(runs), AllReproducible: true}
	for _, r := range runs {
		entry := ReplayRunResult{
			ID:           r.ID,
			Seq:          r.Seq,
			DocumentHash: r.DocumentHash,
			HadError:     r.RunError != "",
		}
		if verifying {
			ok := r.CompiledQuery == wantQuery
			entry.Reproducible = &ok
			if !ok {
				result.AllReproducible = false
			}
		}
		result.Runs = append(result.Runs, entry)
	}

	if formatter.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result, verifying)
}

func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllReproducible {
		response.Status = "error"
		response.Error = &CLIError{Code: ErrCodeGeneric, Message: "one or more runs did not reproduce"}
	}
	enc := json.NewEncoder(formatter.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(response); err != nil {
		return err
	}
	if !result.AllReproducible {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult, verifying bool) error {
	w := formatter.Writer
	fmt.Fprintf(w, "Replay Summary: %d run(s)\n\n", result.TotalRuns)
	for _, r := range result.Runs {
		status := "-"
		if r.Reproducible != nil {
			status = "✓"
			if !*r.Reproducible {
				status = "✗"
			}
		}
		fmt.Fprintf(w, "%s run %s (seq %d, hash %s)\n", status, r.ID, r.Seq, r.DocumentHash[:12])
		if r.HadError {
			fmt.Fprintln(w, "  recorded with an error")
		}
	}
	if !verifying {
		return nil
	}
	if result.AllReproducible {
		fmt.Fprintln(w, "\n✓ all runs reproduced")
		return nil
	}
	fmt.Fprintln(w, "\n✗ one or more runs did not reproduce")
	return NewExitError(ExitFailure, "replay verification failed")
}
