package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/graphproto/protoql/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// NewValidateCommand creates the validate command: check a document's
// directive keys against the CUE schema without compiling it.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <document.json>",
		Short: "Validate a document's directive keys",
		Long: `Check every "$"-prefixed top-level key in a document against the schema
that constrains directive shapes, without running the Walker or Assembler.

Exit codes:
  0 - no violations
  1 - one or more directive keys failed validation
  2 - command error (file not found, not valid JSON, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidInput, fmt.Sprintf("reading %s: %v", path, err), nil)
		return WrapExitError(ExitCommandError, "reading document", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		_ = formatter.Error(ErrCodeInvalidInput, fmt.Sprintf("%s is not a valid JSON object: %v", path, err), nil)
		return WrapExitError(ExitCommandError, "parsing document", err)
	}

	violations := schema.ValidateDirectives(doc)
	if len(violations) == 0 {
		return formatter.Success(map[string]any{"valid": true})
	}

	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(violations))
		for i, v := range violations {
			cliErrors[i] = CLIError{Code: v.Code, Message: v.Message, Details: v.Field}
		}
		enc := json.NewEncoder(formatter.Writer)
		enc.SetIndent("", "  ")
		_ = enc.Encode(CLIResponse{Status: "error", Error: &cliErrors[0], Data: cliErrors})
	} else {
		fmt.Fprintln(formatter.Writer, "Validation failed:")
		for _, v := range violations {
			fmt.Fprintf(formatter.Writer, "  [%s] %s: %s\n", v.Code, v.Field, v.Message)
		}
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d violation(s)", len(violations)))
}
