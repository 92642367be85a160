package convert

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alalapi-0/onepass-audioclean-ingest/internal/cmdrun"
	"github.com/alalapi-0/onepass-audioclean-ingest/internal/faults"
)

// Execution records what actually happened when a planned command ran.
type Execution struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	TimedOut bool
}

// Run executes a planned command with the given timeout and appends a
// human-readable transcript to logPath when it is non-empty. It returns the
// execution record together with any faults; a timeout is reported as a
// failed conversion rather than a distinct state.
func Run(ctx context.Context, cmd Command, timeout time.Duration, logPath string) (Execution, []faults.Fault) {
	result, err := cmdrun.Run(ctx, timeout, cmd.Args[0], cmd.Args[1:]...)
	exec := Execution{
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		Duration: result.Duration,
		TimedOut: result.TimedOut,
	}

	if logPath != "" {
		if logErr := appendLog(logPath, cmd, exec, err); logErr != nil {
			// The transcript is diagnostic only; a failed append must not
			// change the run outcome.
			exec.Stderr = exec.Stderr + "\n[convert.log not written: " + logErr.Error() + "]"
		}
	}

	switch {
	case err != nil:
		return exec, []faults.Fault{
			faults.New(faults.CodeConvertFailed, "ffmpeg could not be started: %v", err).
				WithHint("Check that ffmpeg is installed and executable."),
		}
	case exec.TimedOut:
		return exec, []faults.Fault{
			faults.New(faults.CodeConvertFailed, "ffmpeg timed out after %s", timeout).
				WithHint("Raise the convert timeout or split the input.").
				WithDetail(map[string]any{"stderr": exec.Stderr, "timeout_seconds": timeout.Seconds()}),
		}
	case exec.ExitCode != 0:
		return exec, []faults.Fault{
			faults.New(faults.CodeConvertFailed, "ffmpeg exited with code %d", exec.ExitCode).
				WithHint("Inspect convert.log in the work directory for the full transcript.").
				WithDetail(map[string]any{"stderr": exec.Stderr, "exit_code": exec.ExitCode}),
		}
	}
	return exec, nil
}

func appendLog(path string, cmd Command, exec Execution, startErr error) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "input: %s\n", cmd.InputPath())
	fmt.Fprintf(&b, "output: %s\n", cmd.OutputPath())
	fmt.Fprintf(&b, "command: %s\n", cmd.String())
	if startErr != nil {
		fmt.Fprintf(&b, "start error: %v\n", startErr)
	} else {
		fmt.Fprintf(&b, "exit code: %d\n", exec.ExitCode)
		fmt.Fprintf(&b, "duration: %s\n", exec.Duration.Round(time.Millisecond))
		if exec.TimedOut {
			b.WriteString("timed out: true\n")
		}
	}
	if exec.Stdout != "" {
		fmt.Fprintf(&b, "--- stdout ---\n%s\n", strings.TrimRight(exec.Stdout, "\n"))
	}
	if exec.Stderr != "" {
		fmt.Fprintf(&b, "--- stderr ---\n%s\n", strings.TrimRight(exec.Stderr, "\n"))
	}
	b.WriteString("\n")

	_, err = file.WriteString(b.String())
	return err
}
