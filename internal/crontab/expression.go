package crontab

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"crontab/internal/shared"
)

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Expression is a parsed cron schedule. It is immutable once built.
type Expression struct {
	text     string
	schedule *cron.SpecSchedule
	seconds  bool
}

// ParseExpression parses a five-field (minute hour dom month dow) or six-field
// (with a leading seconds field) cron expression. Descriptors such as @daily are
// accepted; @every is not, since it has no wall-clock anchor.
//
// A CRON_TZ= or TZ= prefix evaluates the schedule in that location.
func ParseExpression(text string) (*Expression, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty expression", shared.ErrInvalidExpression)
	}

	fields := strings.Fields(trimmed)
	if strings.HasPrefix(fields[0], "TZ=") || strings.HasPrefix(fields[0], "CRON_TZ=") {
		fields = fields[1:]
	}
	if len(fields) > 0 && strings.HasPrefix(fields[0], "@every") {
		return nil, fmt.Errorf("%w: %q: @every is not a calendar schedule", shared.ErrInvalidExpression, text)
	}

	sched, err := parser.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", shared.ErrInvalidExpression, text, err)
	}
	spec, ok := sched.(*cron.SpecSchedule)
	if !ok {
		return nil, fmt.Errorf("%w: %q: unsupported schedule", shared.ErrInvalidExpression, text)
	}

	return &Expression{
		text:     trimmed,
		schedule: spec,
		seconds:  len(fields) == 6,
	}, nil
}

// MustParseExpression is like ParseExpression but panics on error.
func MustParseExpression(text string) *Expression {
	e, err := ParseExpression(text)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the expression text.
func (e *Expression) String() string {
	return e.text
}

// HasSeconds reports whether the expression carries a seconds field.
func (e *Expression) HasSeconds() bool {
	return e.seconds
}

// Resolution is the granularity IsDue compares at.
func (e *Expression) Resolution() time.Duration {
	if e.seconds {
		return time.Second
	}
	return time.Minute
}

// Instant truncates ref to the expression's resolution on absolute time, so
// the two passes through a repeated wall-clock hour yield distinct instants.
// The result keeps ref's location.
func (e *Expression) Instant(ref time.Time) time.Time {
	return ref.Truncate(e.Resolution())
}

// IsDue reports whether ref, truncated to the expression's resolution, matches
// every field. It is a pure function of the expression and ref.
func (e *Expression) IsDue(ref time.Time) bool {
	instant := e.Instant(ref)
	return e.schedule.Next(instant.Add(-time.Nanosecond)).Equal(instant)
}

// Next returns the first activation strictly after t, or the zero time if none
// exists within five years.
func (e *Expression) Next(t time.Time) time.Time {
	return e.schedule.Next(t)
}
