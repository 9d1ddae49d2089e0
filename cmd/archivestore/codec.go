// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/archivestore/lib/compression"
)

func (app *application) presetsCommand() *command {
	return &command{
		name:    "presets",
		summary: "List compression presets",
		run: func(args []string) error {
			presets := compression.DefaultRegistry().Presets()
			rendered := table{headers: []string{"NAME", "ALGORITHM", "LEVEL", "WINDOW", "DESCRIPTION"}}
			for _, preset := range presets {
				window := "-"
				if preset.Config.WindowBits > 0 {
					window = strconv.Itoa(preset.Config.WindowBits)
				}
				rendered.rows = append(rendered.rows, []string{
					preset.Name,
					preset.Config.Algorithm.String(),
					strconv.Itoa(preset.Config.Level),
					window,
					preset.Description,
				})
			}
			return app.emit(presets, rendered)
		},
	}
}

func (app *application) selectCommand() *command {
	var useCase string
	return &command{
		name:    "select",
		summary: "Show the preset chosen for a payload size and use case",
		usage:   "archivestore select [flags] <size-bytes>",
		examples: []example{
			{description: "Preset for a 200 KiB archival payload", command: "archivestore select --use-case archival 204800"},
		},
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("select", pflag.ContinueOnError)
			flagSet.StringVar(&useCase, "use-case", string(compression.UseCaseBalanced), "realtime, balanced, or archival")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 positional argument (size in bytes), got %d", len(args))
			}
			size, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || size < 0 {
				return fmt.Errorf("invalid size %q", args[0])
			}
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			selector := compression.NewSelector(selectorConfig(cfg))
			name, err := selector.Select(size, compression.UseCase(useCase))
			if err != nil {
				return err
			}
			preset, err := compression.DefaultRegistry().Preset(name)
			if err != nil {
				return err
			}
			return app.emit(preset, table{
				headers: []string{"SIZE", "USE CASE", "PRESET", "DESCRIPTION"},
				rows:    [][]string{{formatBytes(size), useCase, preset.Name, preset.Description}},
			})
		},
	}
}

// codecFlags collects the options shared by compress and decompress.
type codecFlags struct {
	flagSet    *pflag.FlagSet
	preset     string
	algorithm  string
	level      int
	windowBits int
	blockBits  int
	input      string
	output     string
}

func (flags *codecFlags) register(name string, withTuning bool) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVarP(&flags.algorithm, "algorithm", "a", "", "none, gzip, brotli, or zstd")
	flagSet.StringVarP(&flags.input, "input", "i", "-", "input file (- for stdin)")
	flagSet.StringVarP(&flags.output, "output", "o", "-", "output file (- for stdout)")
	if withTuning {
		flagSet.StringVarP(&flags.preset, "type", "t", "", "preset name (overrides --algorithm and --level)")
		flagSet.IntVarP(&flags.level, "level", "l", 0, "compression level, clamped to the algorithm's range")
		flagSet.IntVar(&flags.windowBits, "window-bits", 0, "brotli window size in bits")
		flagSet.IntVar(&flags.blockBits, "block-bits", 0, "brotli input block size in bits")
	}
	flags.flagSet = flagSet
	return flagSet
}

// options converts the parsed flags, leaving unset numeric flags nil
// so that algorithm defaults apply.
func (flags *codecFlags) options() compression.Options {
	options := compression.Options{Preset: flags.preset, Algorithm: flags.algorithm}
	if flags.flagSet.Changed("level") {
		options.Level = &flags.level
	}
	if flags.flagSet.Changed("window-bits") {
		options.WindowBits = &flags.windowBits
	}
	if flags.flagSet.Changed("block-bits") {
		options.BlockBits = &flags.blockBits
	}
	return options
}

func (app *application) compressCommand() *command {
	var flags codecFlags
	return &command{
		name:    "compress",
		summary: "Compress a payload without storing it",
		examples: []example{
			{description: "Compress with a preset", command: "archivestore compress --type brotli_9 -i page.html -o page.html.br"},
			{description: "Compress with explicit settings", command: "archivestore compress -a zstd -l 19 < dump.sql > dump.sql.zst"},
		},
		flags: func() *pflag.FlagSet { return flags.register("compress", true) },
		run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			config, err := compression.DefaultRegistry().Resolve(flags.options())
			if err != nil {
				return err
			}
			data, err := app.readInput(flags.input)
			if err != nil {
				return err
			}
			result, err := compression.Compress(data, config)
			if err != nil {
				return err
			}
			if err := app.writeOutput(flags.output, result.Compressed); err != nil {
				return err
			}
			fmt.Fprintf(app.stderr, "%s: %d -> %d bytes (ratio %s)\n",
				config, result.UncompressedSize, result.CompressedSize, formatRatio(result.Ratio))
			return nil
		},
	}
}

func (app *application) decompressCommand() *command {
	var flags codecFlags
	return &command{
		name:    "decompress",
		summary: "Decompress a payload produced by compress",
		flags:   func() *pflag.FlagSet { return flags.register("decompress", false) },
		run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			if flags.algorithm == "" {
				return fmt.Errorf("--algorithm is required")
			}
			algorithm, err := compression.ParseAlgorithm(flags.algorithm)
			if err != nil {
				return err
			}
			data, err := app.readInput(flags.input)
			if err != nil {
				return err
			}
			content, err := compression.Decompress(data, algorithm)
			if err != nil {
				return err
			}
			return app.writeOutput(flags.output, content)
		},
	}
}
