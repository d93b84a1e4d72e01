package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphproto/protoql/internal/config"
	"github.com/graphproto/protoql/internal/document"
	"github.com/graphproto/protoql/internal/execute"
	"github.com/graphproto/protoql/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	ConfigFile string
	Endpoint   string
	Context    string
	LangTag    string
	Debug      bool
	Database   string // optional: record this run to an audit log
}

// NewQueryCommand creates the query command: compile, execute against a
// live endpoint, and shape the bindings back into the prototype's shape.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <document.json>",
		Short: "Compile, execute, and shape a prototype document",
		Long: `Compile a JSON prototype document, run it against a SPARQL endpoint, and
shape the bindings back into the document's requested form.

Configuration layers, lowest to highest precedence: built-in defaults, an
optional --config YAML file, then this command's own flags.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "SPARQL endpoint URL (overrides config)")
	cmd.Flags().StringVar(&opts.Context, "context", "", "default @context IRI for JSON-LD mode")
	cmd.Flags().StringVar(&opts.LangTag, "lang-tag", "", "default langTag mode: show|hide")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "raise log verbosity to debug")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record this run to a SQLite audit log")

	return cmd
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	base := config.Defaults()
	if opts.ConfigFile != "" {
		fileOpts, err := config.LoadFile(opts.ConfigFile)
		if err != nil {
			return outputDocumentError(formatter, err)
		}
		base = fileOpts
	}
	runOpts := config.Override(base, config.Options{
		Endpoint: opts.Endpoint,
		Context:  opts.Context,
		LangTag:  opts.LangTag,
		Debug:    opts.Debug,
	})
	if runOpts.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	formatter.VerboseLog("parsing %s", path)
	raw, err := readDocumentBytes(path)
	if err != nil {
		return outputDocumentError(formatter, err)
	}

	doc, err := document.Parse(raw)
	if err != nil {
		return outputDocumentError(formatter, err)
	}

	query, err := doc.Compile()
	if err != nil {
		return outputDocumentError(formatter, err)
	}
	formatter.VerboseLog("compiled query:\n%s", query)

	ex := execute.NewHTTPExecutor(runOpts.Endpoint)
	ctx := context.Background()
	out, runErr := doc.Run(ctx, ex, runOpts)

	if opts.Database != "" {
		if recErr := recordRun(ctx, opts.Database, raw, query, out, runErr); recErr != nil {
			formatter.VerboseLog("failed to record run: %v", recErr)
		}
	}

	if runErr != nil {
		return outputDocumentError(formatter, runErr)
	}
	return formatter.Success(out)
}

func readDocumentBytes(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &document.RuntimeError{
			Code:    document.ErrCodeInvalidInput,
			Message: fmt.Sprintf("path %q is not a readable JSON file: %v", path, err),
		}
	}
	return raw, nil
}

// recordRun appends one entry to the SQLite audit log. out is JSON-encoded
// only when runErr is nil; a failed run stores its error message and an
// empty shaped output. Raw bindings are stored as "".
func recordRun(ctx context.Context, dbPath string, raw []byte, query string, out any, runErr error) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open run log %s: %w", dbPath, err)
	}
	defer st.Close()

	seq, err := st.NextSeq(ctx)
	if err != nil {
		return err
	}

	var shaped, errMsg string
	if runErr != nil {
		var re *document.RuntimeError
		if errors.As(runErr, &re) {
			errMsg = re.Error()
		} else {
			errMsg = runErr.Error()
		}
	} else if data, err := json.Marshal(out); err == nil {
		shaped = string(data)
	}

	run := store.Run{
		ID:            store.NewRunID(),
		Seq:           seq,
		DocumentHash:  store.DocumentHash(raw),
		CompiledQuery: query,
		RawBindings:   "",
		ShapedOutput:  shaped,
		RunError:      errMsg,
		CreatedAt:     time.Now(),
	}
	return st.WriteRun(ctx, run)
}
