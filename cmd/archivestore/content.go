// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/archivestore/lib/compression"
	"github.com/bureau-foundation/archivestore/lib/store"
)

func storedContentTable(stored store.StoredContent) table {
	return table{
		headers: []string{"ID", "TYPE", "SIZE", "COMPRESSED", "RATIO", "SHA-256"},
		rows: [][]string{{
			strconv.FormatInt(stored.ContentID, 10),
			stored.CompressionType,
			formatBytes(stored.UncompressedSize),
			formatBytes(stored.CompressedSize),
			formatRatio(stored.Ratio),
			stored.Hash,
		}},
	}
}

func parseID(argument, what string) (int64, error) {
	id, err := strconv.ParseInt(argument, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, argument)
	}
	return id, nil
}

func (app *application) putCommand() *command {
	var compressionType, useCase string
	return &command{
		name:    "put",
		summary: "Compress and store a single payload",
		usage:   "archivestore put [flags] [file]",
		examples: []example{
			{description: "Store a page with the realtime preset", command: "archivestore put --use-case realtime page.html"},
		},
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("put", pflag.ContinueOnError)
			flagSet.StringVarP(&compressionType, "type", "t", "", "compression type (preset name)")
			flagSet.StringVar(&useCase, "use-case", "", "pick the type by size: realtime, balanced, or archival")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most 1 positional argument, got %d", len(args))
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			content, err := app.readInput(path)
			if err != nil {
				return err
			}

			archiveStore, err := app.openStore()
			if err != nil {
				return err
			}
			defer archiveStore.Close()

			stored, err := archiveStore.CompressAndStore(context.Background(), content, store.StoreOptions{
				CompressionType: compressionType,
				UseCase:         compression.UseCase(useCase),
			})
			if err != nil {
				return err
			}
			return app.emit(stored, storedContentTable(*stored))
		},
	}
}

func (app *application) getCommand() *command {
	var output string
	return &command{
		name:    "get",
		summary: "Retrieve and decompress a stored payload",
		usage:   "archivestore get [flags] <content-id>",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
			flagSet.StringVarP(&output, "output", "o", "-", "output file (- for stdout)")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 positional argument (content id), got %d", len(args))
			}
			contentID, err := parseID(args[0], "content")
			if err != nil {
				return err
			}

			archiveStore, err := app.openStore()
			if err != nil {
				return err
			}
			defer archiveStore.Close()

			content, err := archiveStore.RetrieveAndDecompress(context.Background(), contentID)
			if err != nil {
				return err
			}
			return app.writeOutput(output, content)
		},
	}
}

func (app *application) infoCommand() *command {
	return &command{
		name:    "info",
		summary: "Show a stored payload's metadata",
		usage:   "archivestore info <content-id>",
		run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 positional argument (content id), got %d", len(args))
			}
			contentID, err := parseID(args[0], "content")
			if err != nil {
				return err
			}

			archiveStore, err := app.openStore()
			if err != nil {
				return err
			}
			defer archiveStore.Close()

			info, err := archiveStore.GetContentInfo(context.Background(), contentID)
			if err != nil {
				return err
			}
			rendered := storedContentTable(info.StoredContent)
			rendered.headers = append(rendered.headers, "CREATED")
			rendered.rows[0] = append(rendered.rows[0], formatTime(info.CreatedAt))
			return app.emit(info, rendered)
		},
	}
}
