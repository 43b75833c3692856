package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/pflag"
)

func Execute() int {
	return Run(os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes the command line in args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	cmd, opts := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())
	if stopErr := opts.profiler.stop(); stopErr != nil {
		_ = writef(stderr, "error: %v\n", stopErr)
		if err == nil {
			err = ExitError{Code: ExitInternal, Kind: KindInternal, Err: stopErr, Reported: true}
		}
	}
	if err == nil {
		return 0
	}
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}

	// Anything the commands did not classify comes from flag or argument parsing.
	var exitErr ExitError
	if !errors.As(err, &exitErr) {
		err = ExitError{Code: ExitUsage, Kind: KindUsage, Err: err}
	}
	normalized := NormalizeError(err)
	_ = writeCLIError(stderr, normalized)
	return normalized.Code
}
