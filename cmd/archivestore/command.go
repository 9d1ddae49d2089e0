// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// command is a node in the CLI tree. Exactly one of run or subcommands
// is set.
type command struct {
	name        string
	summary     string
	description string
	usage       string
	examples    []example

	// flags returns a configured flag set. Called on every Execute so
	// that parse state never leaks between invocations.
	flags func() *pflag.FlagSet

	subcommands []*command
	run         func(args []string) error

	parent *command
}

type example struct {
	description string
	command     string
}

// execute parses args and dispatches to the matching subcommand or run
// function. Help goes to help.
func (c *command) execute(args []string, help io.Writer) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.printHelp(help)
		return nil
	}

	if len(c.subcommands) > 0 {
		if len(args) == 0 || strings.HasPrefix(args[0], "-") {
			c.printHelp(help)
			return fmt.Errorf("subcommand required")
		}
		name := args[0]
		for _, sub := range c.subcommands {
			if sub.name == name {
				sub.parent = c
				return sub.execute(args[1:], help)
			}
		}
		if suggestion := suggestCommand(name, c.subcommands); suggestion != "" {
			return fmt.Errorf("unknown command %q (did you mean %q?)\n\nRun '%s --help' for usage.",
				name, suggestion, c.fullName())
		}
		return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.", name, c.fullName())
	}

	if c.flags != nil {
		flagSet := c.flags()
		flagSet.SetOutput(io.Discard)
		if err := flagSet.Parse(args); err != nil {
			if err == pflag.ErrHelp {
				c.printHelp(help)
				return nil
			}
			return fmt.Errorf("%s\n\nRun '%s --help' for usage.", err, c.fullName())
		}
		args = flagSet.Args()
	}

	if c.run == nil {
		c.printHelp(help)
		return fmt.Errorf("no action defined for %q", c.fullName())
	}
	return c.run(args)
}

func (c *command) printHelp(w io.Writer) {
	name := c.fullName()

	if c.description != "" {
		fmt.Fprintf(w, "%s\n\n", c.description)
	} else if c.summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.summary)
	}

	switch {
	case c.usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", c.usage)
	case len(c.subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", name)
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", name)
	}

	if len(c.subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.name, sub.summary)
		}
		tw.Flush()
	}

	if c.flags != nil {
		var flagHelp strings.Builder
		flagSet := c.flags()
		flagSet.SetOutput(&flagHelp)
		flagSet.PrintDefaults()
		if flagHelp.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
		}
	}

	if len(c.examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range c.examples {
			if example.description != "" {
				fmt.Fprintf(w, "  # %s\n", example.description)
			}
			fmt.Fprintf(w, "  %s\n", example.command)
		}
	}

	if len(c.subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

func (c *command) fullName() string {
	if c.parent == nil {
		return c.name
	}
	return c.parent.fullName() + " " + c.name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

// suggestCommand returns the closest subcommand name within an edit
// distance of 3, or "".
func suggestCommand(unknown string, commands []*command) string {
	bestName := ""
	bestDistance := 4
	for _, candidate := range commands {
		if distance := levenshtein(unknown, candidate.name); distance < bestDistance {
			bestDistance = distance
			bestName = candidate.name
		}
	}
	return bestName
}

func levenshtein(a, b string) int {
	previous := make([]int, len(b)+1)
	current := make([]int, len(b)+1)
	for j := range previous {
		previous[j] = j
	}
	for i := 1; i <= len(a); i++ {
		current[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[j] = min(previous[j]+1, current[j-1]+1, previous[j-1]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(b)]
}
