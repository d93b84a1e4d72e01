// Command protoql compiles JSON prototype documents to SPARQL, executes
// them, and shapes the results back into the requested form.
package main

import (
	"fmt"
	"os"

	"github.com/graphproto/protoql/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
