// Command sparseproj projects command-line flags onto nested service requests
// described by a schema file and sends them through a transport.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	projector "github.com/cloudxsgmbh/sparse-projector"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, err := newRootCmd(args, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	return 0
}

// exitCode tells usage and schema problems (2) from failed calls (1).
func exitCode(err error) int {
	switch projector.CodeOf(err) {
	case projector.ErrSchemaViolation, projector.ErrFieldNotFound, projector.ErrArgument:
		return 2
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}
