// Package cliexit classifies chart-* command errors into exit codes:
// 0 success, 1 usage error, 2 runtime error.
package cliexit

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ErrUsage marks an error as a usage error (bad flags, missing required
// arguments, malformed values) rather than a failure encountered while
// doing the work. Wrap with fmt.Errorf("...: %w", ErrUsage).
var ErrUsage = errors.New("usage error")

// Run executes cmd and calls os.Exit with 0 on success, 1 if the returned
// error wraps ErrUsage (Run wraps cobra's flag-parsing errors with it), 2
// for any other error.
func Run(cmd *cobra.Command) {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	err := cmd.Execute()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "error:", err)
	if errors.Is(err, ErrUsage) {
		os.Exit(1)
	}
	os.Exit(2)
}
