package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/deps"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
)

func newCheckDepsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check-deps",
		Short: "Verify ffmpeg/ffprobe availability and required capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}

			report := deps.Check(cmd.Context(), ctx.depsOptions())

			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printDepsReport(cmd, report)
			}

			if code := report.ExitCode(); code != faults.ExitSuccess {
				return exitWithCode(code, "")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the capability report as JSON")
	return cmd
}

func printDepsReport(cmd *cobra.Command, report *deps.Report) {
	out := cmd.OutOrStdout()

	toolRows := make([][]string, 0, len(report.Tools))
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		info := report.Tools[name]
		if info == nil {
			toolRows = append(toolRows, []string{name, "not found", ""})
			continue
		}
		toolRows = append(toolRows, []string{name, info.Version, info.Path})
	}
	fmt.Fprintln(out, renderTable([]string{"Tool", "Version", "Path"}, toolRows, nil))

	capNames := make([]string, 0, len(report.Capabilities))
	for name := range report.Capabilities {
		capNames = append(capNames, name)
	}
	sort.Strings(capNames)
	capRows := make([][]string, 0, len(capNames))
	for _, name := range capNames {
		capRows = append(capRows, []string{name, yesNo(report.Capabilities[name])})
	}
	if len(capRows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Capability", "Available"}, capRows, nil))
	}

	errOut := cmd.ErrOrStderr()
	for _, fault := range report.Errors {
		if fault.Hint != "" {
			fmt.Fprintf(errOut, "ERROR [%s] %s (hint: %s)\n", fault.Code, fault.Message, fault.Hint)
		} else {
			fmt.Fprintf(errOut, "ERROR [%s] %s\n", fault.Code, fault.Message)
		}
	}
	for _, fault := range report.Warnings {
		fmt.Fprintf(errOut, "WARNING [%s] %s\n", fault.Code, fault.Message)
	}
	if report.OK {
		fmt.Fprintln(out, "All required capabilities are available")
	}
}
