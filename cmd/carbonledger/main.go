// Command carbonledger resolves emissions factors and prices activities.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/carbonledger/internal/cli"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/pkg/version"
)

// Exit codes.
const (
	exitError            = 1
	exitNoFactor         = 2
	exitStoreUnavailable = 3
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cli.NewRootCmd(version.GetVersion()).ExecuteContext(ctx)
}

// exitCode maps resolution failures to distinct exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, factors.ErrStoreUnavailable):
		return exitStoreUnavailable
	case errors.Is(err, factors.ErrNoFactorFound):
		return exitNoFactor
	default:
		return exitError
	}
}
