// Package main is the mug command line: `mug start`, `mug end`, or `mug <question>`.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	loggerpkg "github.com/minhyannv/mug/pkg/logger"
	"github.com/minhyannv/mug/pkg/mug"
)

// main is the program entry point.
func main() {
	opts := parseCLIConfig()

	appLogger := loggerpkg.NewWriterLogger(os.Stderr, opts.Verbose)
	app, err := mug.New(opts, os.Stdin, os.Stdout, mug.WithLogger(appLogger))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(app).ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// dispatcher is the behaviour behind the three command forms.
type dispatcher interface {
	Start(ctx context.Context) error
	End()
	Ask(ctx context.Context, question string) error
}

// newRootCmd builds the command tree. Anything that is not `start` or `end` is a
// question, so flag parsing and the built-in help and completion commands are off.
func newRootCmd(d dispatcher) *cobra.Command {
	root := &cobra.Command{
		Use:                "mug [question...]",
		Short:              "Session logger that answers questions about your terminal session",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Usage: mug start | mug end | mug <question>")
				return nil
			}
			// Failures are already printed for the user.
			_ = d.Ask(cmd.Context(), question)
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetHelpCommand(&cobra.Command{Use: "__help", Hidden: true})

	root.AddCommand(
		&cobra.Command{
			Use:                "start",
			Short:              "Configure credentials and select a session log",
			Args:               cobra.ArbitraryArgs,
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_ = d.Start(cmd.Context())
				return nil
			},
		},
		&cobra.Command{
			Use:                "end",
			Short:              "End the current session",
			Args:               cobra.ArbitraryArgs,
			DisableFlagParsing: true,
			Run: func(*cobra.Command, []string) {
				d.End()
			},
		},
	)
	return root
}
