package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const maxStderr = 2 << 10

// Runner starts an external renderer; tests swap in a stub.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// CommandError is a renderer process that did not start or exited non-zero. ExitCode is -1
// when there was no exit status, e.g. a missing binary or a killed process.
type CommandError struct {
	Name     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Name, e.ExitCode)
	if e.ExitCode < 0 {
		msg = fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// pdftotext can leave pipes open after a kill
	cmd.WaitDelay = 2 * time.Second

	runErr := cmd.Run()
	elapsed := time.Since(start).Milliseconds()
	if runErr == nil {
		r.logger.Debug("render.exec.ok", "cmd", name, "elapsed_ms", elapsed, "stdout_bytes", stdout.Len())
		return stdout.Bytes(), stderr.Bytes(), nil
	}

	cerr := &CommandError{
		Name:     name,
		ExitCode: -1,
		Stderr:   truncate(strings.TrimSpace(stderr.String()), maxStderr),
		Err:      runErr,
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		cerr.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		cerr.Err = errors.Join(ctxErr, runErr)
	}
	r.logger.Warn("render.exec.failed",
		"cmd", name,
		"args", strings.Join(args, " "),
		"exit_code", cerr.ExitCode,
		"elapsed_ms", elapsed,
		"stderr", cerr.Stderr,
	)
	return stdout.Bytes(), stderr.Bytes(), cerr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
