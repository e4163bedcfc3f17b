package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"crontab/internal/console"
	"crontab/internal/crontab"
	"crontab/internal/shared"
)

// Shell exit statuses for a command that could not be found or executed.
const (
	exitNotExecutable = 126
	exitNotFound      = 127
)

// External runs a job's command line through the OS shell and captures stdout.
type External struct {
	shell  string
	dir    string
	env    []string
	logger *slog.Logger
}

// ExternalOption configures External.
type ExternalOption func(*External)

// WithShell overrides the shell (default /bin/sh). It is invoked as `shell -c command`.
func WithShell(path string) ExternalOption {
	return func(e *External) {
		if path != "" {
			e.shell = path
		}
	}
}

// WithDir sets the working directory of spawned processes.
func WithDir(dir string) ExternalOption {
	return func(e *External) { e.dir = dir }
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) ExternalOption {
	return func(e *External) { e.env = append(e.env, env...) }
}

// WithExternalLogger sets the logger used for stderr of spawned processes.
func WithExternalLogger(l *slog.Logger) ExternalOption {
	return func(e *External) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExternal creates an External executor.
func NewExternal(opts ...ExternalOption) *External {
	e := &External{shell: "/bin/sh", logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run spawns the command and waits for it. A non-zero exit status is returned
// in Result, not as an error. Only a process that could not be started (shell
// missing, command not found, permission denied) yields ErrSpawnFailure.
func (e *External) Run(ctx context.Context, job *crontab.Job) (Result, error) {
	cmd := exec.CommandContext(ctx, e.shell, "-c", job.Command())
	cmd.Dir = e.dir
	if len(e.env) > 0 {
		cmd.Env = append(cmd.Environ(), e.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Output: console.SplitLines(stdout.String())}
	if stderr.Len() > 0 {
		e.logger.Debug("external command stderr", "job", job.Name(), "stderr", stderr.String())
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitStatus = exitErr.ExitCode()
		if res.ExitStatus == exitNotFound || res.ExitStatus == exitNotExecutable {
			return res, fmt.Errorf("%w: %s", shared.ErrSpawnFailure, firstLine(stderr.String(), exitErr.Error()))
		}
		return res, nil
	default:
		return res, shared.MarkKind(err, shared.KindSpawnFailure)
	}
}

func firstLine(s, fallback string) string {
	if lines := console.SplitLines(s); len(lines) > 0 && lines[0] != "" {
		return lines[0]
	}
	return fallback
}
