package convert

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/params"
)

// PlanOptions carries everything the planner needs to produce an argv. The
// planner itself never touches the filesystem or spawns a process.
type PlanOptions struct {
	FFmpegPath  string
	InputPath   string
	OutputPath  string
	Params      params.Resolved
	StreamIndex *int
	Overwrite   bool
}

// Command is a fully-planned ffmpeg invocation. Args is the complete argv
// including the binary; Filtergraph mirrors the -af value when one is set.
type Command struct {
	Args        []string `json:"cmd"`
	Filtergraph *string  `json:"filtergraph"`
}

// Plan builds the deterministic ffmpeg argv for one extraction. Identical
// inputs always yield the identical argv, argument for argument.
func Plan(opts PlanOptions) Command {
	overwriteFlag := "-n"
	if opts.Overwrite {
		overwriteFlag = "-y"
	}

	args := []string{
		opts.FFmpegPath,
		"-hide_banner",
		overwriteFlag,
		"-i", opts.InputPath,
	}
	if opts.StreamIndex != nil {
		args = append(args, "-map", "0:"+strconv.Itoa(*opts.StreamIndex))
	}
	args = append(args,
		"-vn",
		"-ar", strconv.Itoa(opts.Params.SampleRate),
		"-ac", strconv.Itoa(opts.Params.Channels),
	)

	var filtergraph *string
	if opts.Params.Normalize {
		fg := params.NormalizeFiltergraph
		filtergraph = &fg
		args = append(args, "-af", fg)
	}

	args = append(args,
		"-c:a", "pcm_s16le",
		"-map_metadata", "-1",
		"-fflags", "+bitexact",
		"-flags:a", "+bitexact",
	)
	args = append(args, opts.Params.FFmpegExtraArgs...)
	args = append(args, opts.OutputPath)

	return Command{Args: args, Filtergraph: filtergraph}
}

// InputPath returns the planned input file, read back from the argv.
func (c Command) InputPath() string {
	for i, arg := range c.Args {
		if arg == "-i" && i+1 < len(c.Args) {
			return c.Args[i+1]
		}
	}
	return ""
}

// OutputPath returns the planned output file, always the final argument.
func (c Command) OutputPath() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[len(c.Args)-1]
}

// Digest returns the hex SHA-256 of the command's canonical JSON form, so
// two runs can be compared for plan identity without comparing argv slices.
func (c Command) Digest() string {
	serialized, err := json.Marshal(c)
	if err != nil {
		// Command contains only strings.
		panic(err)
	}
	sum := sha256.Sum256(serialized)
	return hex.EncodeToString(sum[:])
}

// String renders the argv as a copy-pasteable shell command line.
func (c Command) String() string {
	quoted := make([]string, len(c.Args))
	for i, arg := range c.Args {
		quoted[i] = shellQuote(arg)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n\"'\\$`!*?[]{}()<>|&;#~") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
}
