package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/hoofy-hooks/internal/config"
	"github.com/HendryAvila/hoofy-hooks/internal/hooks"
	"github.com/HendryAvila/hoofy-hooks/internal/lifecycle"
	"github.com/HendryAvila/hoofy-hooks/internal/logging"
	"github.com/HendryAvila/hoofy-hooks/internal/server"
)

const (
	// maxHookStdinBytes caps stdin reads. Host payloads are small JSON
	// objects; anything larger is treated as an empty input.
	maxHookStdinBytes = 1 << 20

	defaultTimeout = 30 * time.Second
)

// invocation is the state shared by one run of the CLI against the host.
type invocation struct {
	input *hooks.Input
	hooks *lifecycle.Hooks
	sink  *logging.ZapSink
}

// newInvocation reads the host input and builds the hook set for the project
// it names. Unreadable or malformed input becomes an empty Input.
func newInvocation(stdin io.Reader) *invocation {
	cfg := config.Load()
	in, readErr := readInput(stdin)

	sink := logging.New(cfg.LogOptions(cfg.ResolveProjectDir(in.ProjectDir)))
	if readErr != nil {
		sink.Log("cli", "ignoring host input", logging.LevelWarn, zap.Error(readErr))
	}
	return &invocation{
		input: in,
		hooks: lifecycle.New(lifecycle.Deps{Config: cfg, Log: sink}),
		sink:  sink,
	}
}

func readInput(r io.Reader) (*hooks.Input, error) {
	in := &hooks.Input{}
	if r == nil {
		return in, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxHookStdinBytes+1))
	if err != nil {
		return in, fmt.Errorf("reading stdin: %w", err)
	}
	if len(data) > maxHookStdinBytes {
		return in, fmt.Errorf("stdin exceeds %d bytes", maxHookStdinBytes)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(data, in); err != nil {
		return &hooks.Input{}, fmt.Errorf("decoding stdin: %w", err)
	}
	return in, nil
}

// writeResult prints res as a single JSON line.
func writeResult(w io.Writer, res hooks.Result) error {
	return json.NewEncoder(w).Encode(res)
}

func newRunCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:       "run <session-start|session-end|pre-compact>",
		Short:     "Run every hook of one lifecycle event",
		ValidArgs: lifecycle.Events,
		Args:      cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := newInvocation(cmd.InOrStdin())
			defer rt.sink.Sync()

			res := hooks.SilentSuccess()
			if len(args) != 1 {
				rt.sink.Log("cli", "run expects exactly one event", logging.LevelWarn, zap.Strings("args", args))
				return writeResult(cmd.OutOrStdout(), res)
			}

			d, err := rt.hooks.Dispatcher(args[0])
			if err != nil {
				rt.sink.Log("cli", "unknown event", logging.LevelWarn, zap.Error(err))
				return writeResult(cmd.OutOrStdout(), res)
			}

			rt.sink.Log("cli", "dispatching", logging.LevelDebug,
				zap.String("event", d.Event()), zap.Int("hooks", d.Registry().Len()), zap.Duration("timeout", timeout))

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			res = d.Dispatch(ctx, rt.input)
			return writeResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "time to wait for hooks to settle")
	return cmd
}

func newHookCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "hook <name>",
		Short: "Run one hook and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			rt := newInvocation(cmd.InOrStdin())
			defer rt.sink.Sync()

			event, ok := rt.hooks.FindHook(name)
			if !ok {
				return fmt.Errorf("%w: %s", hooks.ErrUnknownHook, name)
			}
			d, err := rt.hooks.Dispatcher(event)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			res, err := d.RunOne(ctx, rt.input, name)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "hook %s failed: %v\n", name, err)
			}
			return writeResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "time to wait for the hook")
	return cmd
}

func newListCmd() *cobra.Command {
	var event string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered hooks per lifecycle event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h := lifecycle.New(lifecycle.Deps{Config: config.Load()})
			events := lifecycle.Events
			if event != "" {
				events = []string{event}
			}
			out := cmd.OutOrStdout()
			for _, ev := range events {
				reg, err := h.Registry(ev)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s:\n", ev)
				for _, name := range reg.Names() {
					fmt.Fprintf(out, "  %s\n", name)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&event, "event", "", "only list hooks of this event")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			sink := logging.New(cfg.LogOptions(cfg.ResolveProjectDir("")))
			defer sink.Sync()

			s := server.New(lifecycle.New(lifecycle.Deps{Config: cfg, Log: sink}))
			if err := mcpserver.ServeStdio(s); err != nil {
				return fmt.Errorf("serving stdio: %w", err)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hoofy-hooks v%s\n", server.Version)
		},
	}
}
