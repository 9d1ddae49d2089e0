// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/archivestore/lib/bucket"
	"github.com/bureau-foundation/archivestore/lib/codec"
	"github.com/bureau-foundation/archivestore/lib/compression"
	"github.com/bureau-foundation/archivestore/lib/store"
)

func (app *application) bucketCommand() *command {
	return &command{
		name:    "bucket",
		summary: "Create, read, and manage multi-item buckets",
		description: `Buckets pack related items into one archive compressed as a unit.
Items are addressed by key; the bucket's manifest maps keys to archive
entries and carries per-item metadata.`,
		subcommands: []*command{
			app.bucketCreateCommand(),
			app.bucketAddCommand(),
			app.bucketGetCommand(),
			app.bucketListCommand(),
			app.bucketStatsCommand(),
			app.bucketQueryCommand(),
			app.bucketFinalizeCommand(),
			app.bucketDeleteCommand(),
			app.bucketReferenceAddCommand(),
			app.bucketReferenceRemoveCommand(),
			app.bucketReferencesCommand(),
		},
	}
}

// withStore opens the store, runs fn, and closes the store.
func (app *application) withStore(fn func(ctx context.Context, archiveStore *store.Store) error) error {
	archiveStore, err := app.openStore()
	if err != nil {
		return err
	}
	defer archiveStore.Close()
	return fn(context.Background(), archiveStore)
}

func bucketResultTable(result *store.BucketResult) table {
	return table{
		headers: []string{"BUCKET", "TYPE", "ITEMS", "SIZE", "COMPRESSED", "RATIO"},
		rows: [][]string{{
			strconv.FormatInt(result.BucketID, 10),
			result.CompressionType,
			strconv.Itoa(result.ItemCount),
			formatBytes(result.UncompressedSize),
			formatBytes(result.CompressedSize),
			formatRatio(result.Ratio),
		}},
	}
}

func bucketStatsTable(stats []store.BucketStats) table {
	rendered := table{headers: []string{"ID", "BUCKET TYPE", "DOMAIN", "ITEMS", "SIZE", "COMPRESSED", "RATIO", "COMPRESSION", "CREATED", "FINALIZED"}}
	for _, stat := range stats {
		domain := stat.DomainPattern
		if domain == "" {
			domain = "-"
		}
		rendered.rows = append(rendered.rows, []string{
			strconv.FormatInt(stat.ID, 10),
			stat.BucketType,
			domain,
			strconv.Itoa(stat.ContentCount),
			formatBytes(stat.UncompressedSize),
			formatBytes(stat.CompressedSize),
			formatRatio(stat.Ratio),
			stat.CompressionType,
			formatTime(stat.CreatedAt),
			formatOptionalTime(stat.FinalizedAt),
		})
	}
	return rendered
}

// itemsFromFiles keys each file by its path as given.
func itemsFromFiles(paths []string) ([]bucket.Item, error) {
	items := make([]bucket.Item, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		items = append(items, bucket.Item{Key: path, Content: content})
	}
	return items, nil
}

func (app *application) bucketCreateCommand() *command {
	var specPath, bucketType, domainPattern, compressionType, useCase string
	return &command{
		name:    "create",
		summary: "Create a bucket from files or a JSONC spec",
		usage:   "archivestore bucket create [flags] [file...]",
		examples: []example{
			{description: "Bucket three pages, keyed by path", command: "archivestore bucket create --bucket-type page --use-case archival a.html b.html c.html"},
			{description: "Bucket the items listed in a spec file", command: "archivestore bucket create --spec crawl.jsonc"},
		},
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("create", pflag.ContinueOnError)
			flagSet.StringVar(&specPath, "spec", "", "JSONC spec listing the bucket's items")
			flagSet.StringVar(&bucketType, "bucket-type", "", "bucket type label (overrides the spec)")
			flagSet.StringVar(&domainPattern, "domain", "", "domain pattern label (overrides the spec)")
			flagSet.StringVarP(&compressionType, "type", "t", "", "compression type (overrides the spec)")
			flagSet.StringVar(&useCase, "use-case", "", "pick the type by total size (overrides the spec)")
			return flagSet
		},
		run: func(args []string) error {
			var request store.BucketRequest
			switch {
			case specPath != "" && len(args) > 0:
				return fmt.Errorf("give either --spec or files, not both")
			case specPath != "":
				spec, err := bucket.ReadSpecFile(specPath)
				if err != nil {
					return err
				}
				items, err := spec.LoadItems(filepath.Dir(specPath))
				if err != nil {
					return err
				}
				request = store.BucketRequest{
					BucketType:      spec.BucketType,
					DomainPattern:   spec.DomainPattern,
					CompressionType: spec.CompressionType,
					UseCase:         compression.UseCase(spec.UseCase),
					Items:           items,
				}
			default:
				items, err := itemsFromFiles(args)
				if err != nil {
					return err
				}
				request.Items = items
			}
			if bucketType != "" {
				request.BucketType = bucketType
			}
			if domainPattern != "" {
				request.DomainPattern = domainPattern
			}
			if compressionType != "" {
				request.CompressionType = compressionType
			}
			if useCase != "" {
				request.UseCase = compression.UseCase(useCase)
			}

			return app.withStore(func(ctx context.Context, archiveStore *store.Store) error {
				result, err := archiveStore.CreateBucket(ctx, request)
				if err != nil {
					return err
				}
				return app.emit(result, bucketResultTable(result))
			})
		},
	}
}

func (app *application) bucketAddCommand() *command {
	return &command{
		name:    "add",
		summary: "Append files to an unfinalized bucket",
		usage:   "archivestore bucket add <bucket-id> <file>...",
		run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("expected a bucket id and at least one file")
			}
			bucketID, err := parseID(args[0], "bucket")
			if err != nil {
				return err
			}
			items, err := itemsFromFiles(args[1:])
			if err != nil {
				return err
			}
			return app.withStore(func(ctx context.Context, archiveStore *store.Store) error {
				result, err := archiveStore.AddItems(ctx, bucketID, items)
				if err != nil {
					return err
				}
				return app.emit(result, bucketResultTable(result))
			})
		},
	}
}

func (app *application) bucketGetCommand() *command {
	var output string
	var metadataOnly bool
	return &command{
		name:    "get",
		summary: "Extract one item from a bucket",
		usage:   "archivestore bucket get [flags] <bucket-id> <key>",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
			flagSet.StringVarP(&output, "output", "o", "-", "output file (- for stdout)")
			flagSet.BoolVar(&metadataOnly, "metadata", false, "print the item's metadata as JSON instead of its content")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected 2 positional arguments (bucket id, key), got %d", len(args))
			}
			bucketID, err := parseID(args[0], "bucket")
			if err != nil {
				return err
			}
			return app.withStore(func(ctx context.Context, archiveStore *store.Store) error {
				item, err := archiveStore.RetrieveFromBucket(ctx, bucketID, args[1], nil)
				if err != nil {
					return err
				}
				if metadataOnly {
					metadata := item.Metadata
					if metadata == nil {
						metadata = map[string]any{}
					}
					return writeJSON(app.stdout, metadata)
				}
				return app.writeOutput(output, item.Content)
			})
		},
	}
}

func (app *application) bucketListCommand() *command {
	var raw bool
	return &command{
		name:    "ls",
		summary: "List a bucket's entries",
		usage:   "archivestore bucket ls [flags] <bucket-id>",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ls", pflag.ContinueOnError)
			flagSet.BoolVar(&raw, "raw", false, "print the stored manifest in CBOR diagnostic notation")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 positional argument (bucket id), got %d", len(args))
			}
			bucketID, err := parseID(args[0], "bucket")
			if err != nil {
				return err
			}
			return app.withStore(func(ctx context.Context, archiveStore *store.Store) error {
				if raw {
					manifest, err := archiveStore.RawManifest(ctx, bucketID)
					if err != nil {
						return err
					}
					diagnostic, err := codec.Diagnose(manifest)
					if err != nil {
						return fmt.Errorf("manifest of bucket %d is not valid CBOR: %w", bucketID, err)
					}
					_, err = fmt.Fprintln(app.stdout, diagnostic)
					return err
				}

				entries, err := archiveStore.ListBucketEntries(ctx, bucketID)
				if err != nil {
					return err
				}
				rendered := table{headers: []string{"KEY", "ENTRY", "SIZE", "METADATA"}}
				for _, entry := range entries {
					metadata := "-"
					if len(entry.Metadata) > 0 {
						metadata = fmt.Sprint(entry.Metadata)
					}
					rendered.rows = append(rendered.rows, []string{entry.Key, entry.EntryName, formatBytes(entry.Size), metadata})
				}
				return app.emit(entries, rendered)
			})
		},
	}
}

func (app *application) bucketStatsCommand() *command {
	return &command{
		name:    "stats",
		summary: "Show a bucket's aggregate statistics",
		usage:   "archivestore bucket stats <bucket-id>",
		run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 positional argument (bucket id), got %d", len(args))
			}
			bucketID, err := parseID(args[0], "bucket")
			if err != nil {
				return err
			}
			return app.withStore(func(ctx context.Context, archiveStore *store.Store) error {
				stats, err := archiveStore.GetBucketStats(ctx, bucketID)
				if err != nil {
					return err
				}
				return app.emit(stats, bucketStatsTable([]store.BucketStats{*stats}))
			})
		},
	}
}

func (app *application) bucketQueryCommand() *command {
	var query store.BucketQuery
	return &command{
		name:    "query",
		summary: "List buckets, newest first",
		flags: func() *pflag.FlagSet {
			query = store.BucketQuery{}
			flagSet := pflag.NewFlagSet("query", pflag.ContinueOnError)
			flagSet.StringVar(&query.BucketType, "bucket-type", "", "only buckets of this type")
			flagSet.StringVar(&query.DomainPattern, "domain", "", "only buckets with this domain pattern")
			flagSet.BoolVar(&query.FinalizedOnly, "finalized", false, "only finalized buckets")
			flagSet.IntVar(&query.Limit, "limit", store.DefaultQueryLimit, "maximum number of buckets")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			return app.withStore(func(ctx context.Context, archiveStore *store.Store) error {
				stats, err := archiveStore.QueryBuckets(ctx, query)
				if err != nil {
					return err
				}
				return app.emit(stats, bucketStatsTable(stats))
			})
		},
	}
}

// bucketActionCommand builds a subcommand taking a single bucket id
// and printing a confirmation.
func (app *application) bucketActionCommand(name, summary, done string, action func(context.Context, *store.Store, int64) error) *command {
	return &command{
		name:    name,
		summary: summary,
		usage:   fmt.Sprintf("archivestore bucket %s <bucket-id>", name),
		run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 positional argument (bucket id), got %d", len(args))
			}
			bucketID, err := parseID(args[0], "bucket")
			if err != nil {
				return err
			}
			return app.withStore(func(ctx context.Context, archiveStore *store.Store) error {
				if err := action(ctx, archiveStore, bucketID); err != nil {
					return err
				}
				fmt.Fprintf(app.stderr, "bucket %d %s\n", bucketID, done)
				return nil
			})
		},
	}
}

func (app *application) bucketFinalizeCommand() *command {
	return app.bucketActionCommand("finalize", "Mark a bucket immutable", "finalized",
		func(ctx context.Context, archiveStore *store.Store, bucketID int64) error {
			return archiveStore.FinalizeBucket(ctx, bucketID)
		})
}

func (app *application) bucketDeleteCommand() *command {
	return app.bucketActionCommand("delete", "Delete an unreferenced bucket", "deleted",
		func(ctx context.Context, archiveStore *store.Store, bucketID int64) error {
			return archiveStore.DeleteBucket(ctx, bucketID)
		})
}

func (app *application) bucketReferenceAddCommand() *command {
	var owner string
	return &command{
		name:    "ref-add",
		summary: "Pin a bucket entry against deletion",
		usage:   "archivestore bucket ref-add --owner <owner> <bucket-id> <key>",
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ref-add", pflag.ContinueOnError)
			flagSet.StringVar(&owner, "owner", "", "name of the referencing component (required)")
			return flagSet
		},
		run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected 2 positional arguments (bucket id, key), got %d", len(args))
			}
			bucketID, err := parseID(args[0], "bucket")
			if err != nil {
				return err
			}
			return app.withStore(func(ctx context.Context, archiveStore *store.Store) error {
				referenceID, err := archiveStore.AddReference(ctx, bucketID, args[1], owner)
				if err != nil {
					return err
				}
				reference := struct {
					ReferenceID int64  `json:"reference_id"`
					BucketID    int64  `json:"bucket_id"`
					Key         string `json:"key"`
					Owner       string `json:"owner"`
				}{referenceID, bucketID, args[1], owner}
				return app.emit(reference, table{
					headers: []string{"REFERENCE", "BUCKET", "KEY", "OWNER"},
					rows:    [][]string{{strconv.FormatInt(referenceID, 10), args[0], args[1], owner}},
				})
			})
		},
	}
}

func (app *application) bucketReferenceRemoveCommand() *command {
	return &command{
		name:    "ref-rm",
		summary: "Remove a reference by id",
		usage:   "archivestore bucket ref-rm <reference-id>",
		run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 positional argument (reference id), got %d", len(args))
			}
			referenceID, err := parseID(args[0], "reference")
			if err != nil {
				return err
			}
			return app.withStore(func(ctx context.Context, archiveStore *store.Store) error {
				if err := archiveStore.RemoveReference(ctx, referenceID); err != nil {
					return err
				}
				fmt.Fprintf(app.stderr, "reference %d removed\n", referenceID)
				return nil
			})
		},
	}
}

func (app *application) bucketReferencesCommand() *command {
	return &command{
		name:    "refs",
		summary: "Count the rows referencing a bucket",
		usage:   "archivestore bucket refs <bucket-id>",
		run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected 1 positional argument (bucket id), got %d", len(args))
			}
			bucketID, err := parseID(args[0], "bucket")
			if err != nil {
				return err
			}
			return app.withStore(func(ctx context.Context, archiveStore *store.Store) error {
				count, err := archiveStore.CountReferences(ctx, bucketID)
				if err != nil {
					return err
				}
				result := struct {
					BucketID   int64 `json:"bucket_id"`
					References int   `json:"references"`
				}{bucketID, count}
				return app.emit(result, table{
					headers: []string{"BUCKET", "REFERENCES"},
					rows:    [][]string{{args[0], strconv.Itoa(count)}},
				})
			})
		},
	}
}

func (app *application) statsCommand() *command {
	return &command{
		name:    "stats",
		summary: "Show per-type compression statistics",
		run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			return app.withStore(func(ctx context.Context, archiveStore *store.Store) error {
				stats, err := archiveStore.CompressionStats(ctx)
				if err != nil {
					return err
				}
				rendered := table{headers: []string{"TYPE", "OPERATION", "COUNT", "UNCOMPRESSED", "COMPRESSED", "RATIO", "UPDATED"}}
				for _, stat := range stats {
					rendered.rows = append(rendered.rows, []string{
						stat.CompressionType,
						string(stat.Operation),
						strconv.FormatInt(stat.Count, 10),
						formatBytes(stat.UncompressedBytes),
						formatBytes(stat.CompressedBytes),
						formatRatio(stat.Ratio),
						formatTime(stat.UpdatedAt),
					})
				}
				return app.emit(stats, rendered)
			})
		},
	}
}
