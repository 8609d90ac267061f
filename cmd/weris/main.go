package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/weris/internal/cli"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and maps its outcome to a process exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	if err := cli.Execute(ctx, args); err != nil {
		// The logger may not be configured yet when config loading fails.
		_, _ = io.WriteString(stderr, "weris: "+err.Error()+"\n")
		return 1
	}
	return 0
}
