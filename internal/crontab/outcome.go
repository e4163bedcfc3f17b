package crontab

import (
	"strings"
	"time"
)

// Status tags an Outcome.
type Status int

const (
	StatusSkipped Status = iota
	StatusExecuted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusExecuted:
		return "executed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of evaluating one job in one tick.
type Outcome struct {
	Job    *Job
	Status Status
	At     time.Time

	// Skipped
	Reason string

	// Executed and Failed
	ExitStatus int
	Output     []string
	Duration   time.Duration

	// Failed
	Err error
}

// Skipped builds a skipped outcome.
func Skipped(job *Job, at time.Time, reason string) Outcome {
	return Outcome{Job: job, Status: StatusSkipped, At: at, Reason: reason}
}

// Executed builds an executed outcome.
func Executed(job *Job, at time.Time, exitStatus int, output []string, d time.Duration) Outcome {
	return Outcome{Job: job, Status: StatusExecuted, At: at, ExitStatus: exitStatus, Output: output, Duration: d}
}

// Failed builds a failed outcome. Output captured before the failure is kept.
func Failed(job *Job, at time.Time, err error, output []string, d time.Duration) Outcome {
	return Outcome{Job: job, Status: StatusFailed, At: at, Err: err, Output: output, Duration: d}
}

// Detail is the human-readable part of a report: the skip reason, the
// captured output, or the error message.
func (o Outcome) Detail() string {
	switch o.Status {
	case StatusSkipped:
		return o.Reason
	case StatusFailed:
		if o.Err != nil {
			return o.Err.Error()
		}
		return "failed"
	default:
		return strings.Join(o.Output, "\n")
	}
}
