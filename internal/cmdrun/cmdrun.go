// Package cmdrun executes external tool binaries with bounded timeouts and
// normalized captured output.
package cmdrun

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Result is the normalized outcome of one subprocess invocation.
type Result struct {
	Cmd      []string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	TimedOut bool
}

// Run executes binary with args, waiting at most timeout (unbounded when
// timeout <= 0). Non-zero exits and timeouts are reported through the Result,
// not the error; the error is reserved for process-start failures such as a
// vanished binary or permission problems.
func Run(ctx context.Context, timeout time.Duration, binary string, args ...string) (Result, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Cmd:      append([]string{binary}, args...),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		return result, err
	}

	result.ExitCode = 0
	return result, nil
}
