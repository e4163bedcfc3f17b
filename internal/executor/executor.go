// Package executor runs job commands. The two variants, External and Internal,
// share the Executor contract; Set dispatches on the job's kind.
package executor

import (
	"context"
	"fmt"

	"crontab/internal/crontab"
	"crontab/internal/shared"
)

// Result is what a finished command produced.
type Result struct {
	ExitStatus int
	Output     []string
}

// Executor runs a job's command once. It never mutates the job.
type Executor interface {
	Run(ctx context.Context, job *crontab.Job) (Result, error)
}

// Set holds one executor per job kind.
type Set struct {
	External Executor
	Internal Executor
}

// For returns the executor registered for kind.
func (s Set) For(kind crontab.Kind) (Executor, error) {
	var e Executor
	switch kind {
	case crontab.KindExternal:
		e = s.External
	case crontab.KindInternal:
		e = s.Internal
	default:
		return nil, fmt.Errorf("%w: no executor for %s", shared.ErrInvalidJob, kind)
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %s executor is not configured", shared.ErrInvalidJob, kind)
	}
	return e, nil
}

// Run dispatches job to the executor of its kind.
func (s Set) Run(ctx context.Context, job *crontab.Job) (Result, error) {
	e, err := s.For(job.Kind())
	if err != nil {
		return Result{}, err
	}
	return e.Run(ctx, job)
}
