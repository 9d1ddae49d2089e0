// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/archivestore/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := &application{
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		terminal: term.IsTerminal(int(os.Stdout.Fd())),
	}
	return app.main(os.Args[1:])
}

// application carries the global options and I/O streams shared by
// every subcommand.
type application struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	terminal bool

	configPath   string
	databasePath string
	logLevel     string
	outputJSON   bool
}

func (app *application) main(args []string) error {
	// Handle --version before flag parsing to match the other binaries.
	if len(args) > 0 && args[0] == "--version" {
		fmt.Fprintf(app.stdout, "archivestore %s\n", version.Info())
		return nil
	}

	flagSet := pflag.NewFlagSet("archivestore", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&app.configPath, "config", "", "path to the YAML config file (default: $ARCHIVESTORE_CONFIG)")
	flagSet.StringVar(&app.databasePath, "db", "", "database path, overriding store.path from the config")
	flagSet.StringVar(&app.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flagSet.BoolVar(&app.outputJSON, "json", false, "output as JSON even on a terminal")

	root := app.rootCommand()
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			root.printHelp(app.stderr)
			app.printGlobalFlags(flagSet)
			return nil
		}
		return err
	}
	if len(flagSet.Args()) == 0 {
		root.printHelp(app.stderr)
		app.printGlobalFlags(flagSet)
		return fmt.Errorf("subcommand required")
	}
	return root.execute(flagSet.Args(), app.stderr)
}

func (app *application) printGlobalFlags(flagSet *pflag.FlagSet) {
	fmt.Fprintf(app.stderr, "\nGlobal flags (before the command):\n%s", flagSet.FlagUsages())
}

func (app *application) rootCommand() *command {
	return &command{
		name: "archivestore",
		description: `Compressed content storage with preset-based compression and
multi-item buckets.

Single payloads are stored individually (put/get). Related payloads
are packed into a bucket and compressed together, which shares the
compression context between similar items.`,
		subcommands: []*command{
			app.presetsCommand(),
			app.selectCommand(),
			app.compressCommand(),
			app.decompressCommand(),
			app.putCommand(),
			app.getCommand(),
			app.infoCommand(),
			app.bucketCommand(),
			app.statsCommand(),
			{
				name:    "version",
				summary: "Print version information",
				run: func(args []string) error {
					fmt.Fprintln(app.stdout, version.Full())
					return nil
				},
			},
		},
	}
}
