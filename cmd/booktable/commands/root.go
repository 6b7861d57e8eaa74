// Package commands implements the booktable CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	domainerrors "github.com/listenupapp/booktable/internal/errors"
	"github.com/listenupapp/booktable/internal/logger"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logLevel string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "booktable",
		Short:         "booktable loads a book list and prints it as a sortable, filterable table.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newRenderCmd(flags))
	root.AddCommand(newImportCmd(flags))

	return root
}

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context, args []string) int {
	return execute(ctx, args, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

// newLogger logs to stderr without colors so stdout stays a clean table.
func (f *globalFlags) newLogger(cmd *cobra.Command) *logger.Logger {
	return logger.New(logger.Config{
		Writer:  cmd.ErrOrStderr(),
		Format:  "pretty",
		Level:   logger.ParseLevel(f.logLevel),
		NoColor: true,
	})
}

// printError prints err and, for validation errors, one line per field.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)

	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		return
	}
	details, ok := domainErr.Details.(map[string]string)
	if !ok {
		return
	}
	for _, field := range slices.Sorted(maps.Keys(details)) {
		fmt.Fprintf(w, "  --%s %s\n", field, details[field])
	}
}
