package scheduler

import (
	"context"
	"log/slog"
	"strings"

	"crontab/internal/crontab"
	"crontab/internal/shared"
)

// Reporter получает ровно одно событие на задачу за тик.
type Reporter interface {
	Report(ctx context.Context, outcome crontab.Outcome)
}

// ReporterFunc адаптирует функцию к Reporter.
type ReporterFunc func(ctx context.Context, outcome crontab.Outcome)

// Report вызывает f.
func (f ReporterFunc) Report(ctx context.Context, outcome crontab.Outcome) {
	f(ctx, outcome)
}

// MultiReporter рассылает исход всем репортерам по порядку.
type MultiReporter []Reporter

// Report реализует Reporter.
func (m MultiReporter) Report(ctx context.Context, outcome crontab.Outcome) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, outcome)
		}
	}
}

// LogReporter пишет исходы в slog: Skipped на debug, Executed на info
// (вывод на debug), Failed на error с полной детализацией.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter создает LogReporter.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger.With("component", "reporter")}
}

// Report реализует Reporter.
func (r *LogReporter) Report(ctx context.Context, o crontab.Outcome) {
	attrs := []slog.Attr{
		slog.String("job", o.Job.Name()),
		slog.String("command", o.Job.Command()),
		slog.String("expression", o.Job.Schedule().String()),
		slog.String("outcome", o.Status.String()),
	}

	switch o.Status {
	case crontab.StatusSkipped:
		attrs = append(attrs, slog.String("detail", o.Detail()))
		r.logger.LogAttrs(ctx, slog.LevelDebug, "job skipped", attrs...)
	case crontab.StatusExecuted:
		attrs = append(attrs,
			slog.Int("exit_status", o.ExitStatus),
			slog.Duration("duration", o.Duration),
		)
		r.logger.LogAttrs(ctx, slog.LevelInfo, "job executed", attrs...)
		if len(o.Output) > 0 && r.logger.Enabled(ctx, slog.LevelDebug) {
			r.logger.LogAttrs(ctx, slog.LevelDebug, "job output",
				slog.String("job", o.Job.Name()),
				slog.String("detail", strings.Join(o.Output, "\n")),
			)
		}
	case crontab.StatusFailed:
		attrs = append(attrs,
			slog.String("detail", o.Detail()),
			slog.String("kind", shared.KindOf(o.Err).String()),
			slog.Duration("duration", o.Duration),
		)
		if len(o.Output) > 0 {
			attrs = append(attrs, slog.String("output", strings.Join(o.Output, "\n")))
		}
		r.logger.LogAttrs(ctx, slog.LevelError, "job failed", attrs...)
	}
}
