// Package convert triggers the downstream conversion process that turns
// freshly scraped posts into structured apartment records. The process is an
// external collaborator: its exit status is observability-only and never
// feeds back into the crawl loop's own success or failure.
package convert

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result is the typed outcome of one conversion invocation.
type Result struct {
	ExitCode int
	Err      error
}

// Ok reports whether the converter started and exited cleanly.
func (r Result) Ok() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Runner spawns the converter command in its own working directory, inheriting
// the environment, and captures its output into the scraper's logs.
type Runner struct {
	command string
	args    []string
	dir     string
	timeout time.Duration
	logger  *zap.Logger
}

func NewRunner(command string, args []string, dir string, timeout time.Duration, logger *zap.Logger) *Runner {
	return &Runner{command: command, args: args, dir: dir, timeout: timeout, logger: logger}
}

// Run executes the converter and waits for it to finish.
func (r *Runner) Run(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.command, r.args...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("running converter",
		zap.String("command", r.command),
		zap.Strings("args", r.args),
		zap.String("dir", r.dir))

	err := cmd.Run()

	if out := strings.TrimSpace(stdout.String()); out != "" {
		r.logger.Info("converter stdout", zap.String("output", out))
	}
	if out := strings.TrimSpace(stderr.String()); out != "" {
		r.logger.Warn("converter stderr", zap.String("output", out))
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{ExitCode: exitErr.ExitCode(), Err: err}
		}
		// Spawn failure: command missing, bad working dir, context cut.
		return Result{ExitCode: -1, Err: err}
	}
	return Result{}
}
