// Package main provides the resdump CLI entrypoint.
//
// Usage:
//
//	resdump <command> [options]
//
// Exit codes:
//   - 0: success
//   - 1: input or usage error (unreadable or malformed dump, bad flags)
//   - 2: storage or publish failure
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/resdump/cli/cmd"
	"github.com/pithecene-io/resdump/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

// osExit is replaced in tests.
var osExit = os.Exit

func main() {
	app := &cli.App{
		Name:           "resdump",
		Usage:          "Normalize device resource dumps into word sequences",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.NormalizeCommand(),
			cmd.ClassifyCommand(),
			cmd.FetchCommand(),
			cmd.HistoryCommand(),
			cmd.VersionCommand(commit),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		stop()
		osExit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	osExit(reportError(os.Stderr, err))
}

// reportError prints err to w and returns the process exit code.
func reportError(w io.Writer, err error) int {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N", so skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(w, msg)
		}
		return code
	}

	fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}
