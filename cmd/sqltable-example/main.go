package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/shipq/sqltable/internal/config"
)

const usage = `sqltable-example - Runs the sqltable example scenarios

Usage:
  sqltable-example [command]

Commands:
  run           Declare the example tables and run the scenarios (default)
  init          Write a default sqltable.ini into the current directory

Options:
  -h, --help    Show this help message

Settings are read from sqltable.ini in the current directory when present.
`

func main() {
	os.Exit(runCommand(os.Args[1:], os.Stdout, os.Stderr))
}

// runCommand dispatches args and returns the process exit code.
func runCommand(args []string, stdout, stderr io.Writer) int {
	cmd := "run"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0

	case "init":
		path, err := config.WriteDefault(".")
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path)
		return 0

	case "run":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		cfg, err := config.LoadOrDefault("")
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		logger, err := cfg.Logger(stderr)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}

		if err := run(ctx, stdout, cfg.ConnConfig(logger)); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(stderr, "error: unknown command: %s\n", cmd)
		fmt.Fprintln(stderr, "Run 'sqltable-example --help' for usage.")
		return 1
	}
}
