package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/deps"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/media"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/meta"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/params"
)

// The meta command assembles and writes a metadata record from probing
// alone, without planning or running a conversion. Useful for inspecting
// what an ingest would see.
func newMetaCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "meta <input>",
		Short: "Generate a metadata record without converting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			resolved, sources := params.Resolve(&cfg.Params, params.Overrides{})

			report := deps.Check(cmd.Context(), ctx.depsOptions())

			inputs := meta.Inputs{
				InputPath:     args[0],
				Workdir:       outDir,
				Params:        resolved,
				ParamsSources: sources,
				Deps:          report,
				Errors:        report.Errors,
			}
			if len(report.Errors) == 0 {
				outcome := media.Introspect(cmd.Context(), report.FFprobePath(), args[0], ctx.introspectTimeout())
				inputs.InputProbe = outcome.Summary
				inputs.ProbeWarnings = outcome.Warnings
				inputs.Errors = append(inputs.Errors, outcome.Faults...)
			}

			record := meta.Assemble(inputs)
			metaPath := filepath.Join(outDir, meta.MetaFilename)
			if err := meta.Write(record, metaPath); err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, record); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", metaPath)
			}
			if len(record.Errors) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Metadata was generated with recorded errors; see the errors section.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Working directory for meta.json")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the metadata record as JSON")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
