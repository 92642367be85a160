package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/ingest"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/meta"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/params"
)

// paramFlags holds the per-invocation parameter overrides shared by the
// ingest and batch commands.
type paramFlags struct {
	sampleRate       int
	channels         int
	bitDepth         int
	normalize        bool
	ffmpegExtraArgs  []string
	audioStreamIndex int
	audioLanguage    string
}

func (f *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.sampleRate, "sample-rate", 0, "Target sample rate in Hz")
	cmd.Flags().IntVar(&f.channels, "channels", 0, "Target channel count")
	cmd.Flags().IntVar(&f.bitDepth, "bit-depth", 0, "Bit depth (only 16 supported)")
	cmd.Flags().BoolVar(&f.normalize, "normalize", false, "Enable loudness normalization")
	cmd.Flags().StringSliceVar(&f.ffmpegExtraArgs, "ffmpeg-extra-args", nil, "Extra arguments appended to the ffmpeg command")
	cmd.Flags().IntVar(&f.audioStreamIndex, "audio-stream-index", -1, "Audio stream index to extract")
	cmd.Flags().StringVar(&f.audioLanguage, "audio-language", "", "Preferred audio language tag (e.g. eng, jpn)")
}

// overrides maps the flags the user actually set to resolver overrides, so
// unset flags never shadow config-file values.
func (f *paramFlags) overrides(cmd *cobra.Command) params.Overrides {
	var o params.Overrides
	if cmd.Flags().Changed("sample-rate") {
		o.SampleRate = &f.sampleRate
	}
	if cmd.Flags().Changed("channels") {
		o.Channels = &f.channels
	}
	if cmd.Flags().Changed("bit-depth") {
		o.BitDepth = &f.bitDepth
	}
	if cmd.Flags().Changed("normalize") {
		o.Normalize = &f.normalize
	}
	if cmd.Flags().Changed("ffmpeg-extra-args") {
		o.FFmpegExtraArgs = f.ffmpegExtraArgs
	}
	if cmd.Flags().Changed("audio-stream-index") {
		o.AudioStreamIndex = &f.audioStreamIndex
	}
	if cmd.Flags().Changed("audio-language") {
		o.AudioLanguage = &f.audioLanguage
	}
	return o
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var (
		flags      paramFlags
		outDir     string
		overwrite  bool
		dryRun     bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "ingest <input>",
		Short: "Extract PCM WAV audio from a single media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			resolved, sources := params.Resolve(&cfg.Params, flags.overrides(cmd))

			result := ingest.Run(cmd.Context(), ingest.Options{
				InputPath:         args[0],
				Workdir:           outDir,
				Params:            resolved,
				Sources:           sources,
				Overwrite:         overwrite,
				DryRun:            dryRun,
				Deps:              ctx.depsOptions(),
				IntrospectTimeout: ctx.introspectTimeout(),
				ConvertTimeout:    ctx.convertTimeout(),
				Logger:            ctx.ensureLogger(),
			})

			if jsonOutput {
				record, readErr := meta.Read(result.MetaPath)
				if readErr == nil {
					if err := writeJSON(cmd, record); err != nil {
						return err
					}
				}
			} else {
				printIngestResult(cmd, result)
			}

			if result.ExitCode != faults.ExitSuccess {
				return exitWithCode(result.ExitCode, "")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Working directory for outputs")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing outputs")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan the conversion without executing it")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the metadata record as JSON")
	_ = cmd.MarkFlagRequired("out")
	flags.register(cmd)

	return cmd
}

func printIngestResult(cmd *cobra.Command, result ingest.Result) {
	out := cmd.OutOrStdout()
	rows := [][]string{
		{"input", result.InputPath},
		{"workdir", result.Workdir},
		{"status", result.Status},
		{"exit code", strconv.Itoa(result.ExitCode)},
		{"duration", fmt.Sprintf("%d ms", result.DurationMS())},
	}
	if result.SelectedStream != nil {
		rows = append(rows, []string{"stream", fmt.Sprintf("#%d %s", result.SelectedStream.Index, result.SelectedStream.CodecName)})
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))

	errOut := cmd.ErrOrStderr()
	for _, fault := range result.Errors {
		if fault.Hint != "" {
			fmt.Fprintf(errOut, "ERROR [%s] %s (hint: %s)\n", fault.Code, fault.Message, fault.Hint)
		} else {
			fmt.Fprintf(errOut, "ERROR [%s] %s\n", fault.Code, fault.Message)
		}
	}
	for _, fault := range result.Warnings {
		fmt.Fprintf(errOut, "WARNING [%s] %s\n", fault.Code, fault.Message)
	}
}
