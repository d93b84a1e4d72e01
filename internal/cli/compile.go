package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphproto/protoql/internal/document"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
}

// CompileResult is the JSON-format payload for a successful compile.
type CompileResult struct {
	Query string `json:"query"`
}

// NewCompileCommand creates the compile command: parse a prototype
// document and print the SPARQL it compiles to, without executing it.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <document.json>",
		Short: "Compile a prototype document to SPARQL",
		Long: `Compile a JSON prototype document to its SPARQL query text.

Runs the Prototype Walker and Clause Assembler only; it never contacts an
endpoint. Useful for inspecting what a prototype produces, or for piping
the query into another tool.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("parsing %s", path)
	doc, err := document.ParseAny(path)
	if err != nil {
		return outputDocumentError(formatter, err)
	}

	query, err := doc.Compile()
	if err != nil {
		return outputDocumentError(formatter, err)
	}

	return formatter.Success(CompileResult{Query: query})
}

func outputDocumentError(formatter *OutputFormatter, err error) error {
	var re *document.RuntimeError
	code, message := ErrCodeGeneric, err.Error()
	if errors.As(err, &re) {
		code, message = mapRuntimeErrorCode(re.Code), re.Message
	}
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), err)
}
