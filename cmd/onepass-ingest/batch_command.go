package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/batch"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/config"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/params"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/runindex"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var (
		flags           paramFlags
		overwrite       bool
		dryRun          bool
		recursive       bool
		extensions      []string
		continueOnError bool
		manifestName    string
		jsonOutput      bool
	)

	cmd := &cobra.Command{
		Use:   "batch <input-dir> <output-root>",
		Short: "Ingest every media file under a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			resolved, sources := params.Resolve(&cfg.Params, flags.overrides(cmd))

			opts := batch.Options{
				Params:            resolved,
				Sources:           sources,
				Overwrite:         overwrite,
				Recursive:         cfg.Scan.Recursive,
				Extensions:        cfg.Scan.Extensions,
				ContinueOnError:   continueOnError,
				ManifestName:      manifestName,
				DryRun:            dryRun,
				Deps:              ctx.depsOptions(),
				IntrospectTimeout: ctx.introspectTimeout(),
				ConvertTimeout:    ctx.convertTimeout(),
				Logger:            ctx.ensureLogger(),
			}
			if cmd.Flags().Changed("recursive") {
				opts.Recursive = recursive
			}
			if cmd.Flags().Changed("ext") {
				opts.Extensions = extensions
			}

			if store := openRunIndex(ctx, cfg); store != nil {
				defer store.Close()
				opts.RunIndex = store
			}

			summary, err := batch.Run(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				printBatchSummary(cmd, summary)
			}

			if summary.ExitCode != batch.ExitAllSucceeded {
				return exitWithCode(summary.ExitCode, "")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing outputs")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write a plan manifest without converting anything")
	cmd.Flags().BoolVar(&recursive, "recursive", true, "Scan subdirectories")
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "Media extensions to include (defaults from config)")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "Keep processing after a per-file failure")
	cmd.Flags().StringVar(&manifestName, "manifest-name", batch.DefaultManifestName, "Manifest file name inside the output root")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the batch summary as JSON")
	flags.register(cmd)

	return cmd
}

func openRunIndex(ctx *commandContext, cfg *config.Config) *runindex.Store {
	if cfg == nil || !cfg.RunIndex.Enabled {
		return nil
	}
	path, err := config.ExpandPath(cfg.RunIndex.Path)
	if err != nil {
		ctx.ensureLogger().Warn("invalid run index path", "path", cfg.RunIndex.Path, "error", err)
		return nil
	}
	store, err := runindex.Open(path)
	if err != nil {
		ctx.ensureLogger().Warn("run index unavailable", "path", path, "error", err)
		return nil
	}
	return store
}

func printBatchSummary(cmd *cobra.Command, summary batch.Summary) {
	rows := [][]string{
		{"run id", summary.RunID},
		{"manifest", summary.ManifestPath},
		{"processed", strconv.Itoa(summary.Processed)},
		{"succeeded", strconv.Itoa(summary.Succeeded)},
		{"failed", strconv.Itoa(summary.Failed)},
		{"exit code", strconv.Itoa(summary.ExitCode)},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
}
