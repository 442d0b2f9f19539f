// hoofy-hooks: lifecycle hook runner for AI coding sessions.
//
// The host invokes one lifecycle event per process. Every hook of that
// event runs concurrently, and the process always answers with a
// non-blocking result and exit status 0.
//
// Usage:
//
//	hoofy-hooks run session-start   # dispatch every hook of one event
//	hoofy-hooks hook <name>         # run one hook and print its result
//	hoofy-hooks list                # registered hooks per event
//	hoofy-hooks serve               # MCP server (stdio transport)
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/hoofy-hooks/internal/server"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit status.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "hoofy-hooks",
		Short:        "Lifecycle hook runner for AI coding sessions",
		Version:      server.Version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate("hoofy-hooks v{{.Version}}\n")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newHookCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
