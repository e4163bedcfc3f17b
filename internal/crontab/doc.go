// Package crontab is the job model of the daemon: schedule expressions, job
// definitions, the ordered registry built at startup, and per-tick outcomes.
//
//	reg, err := crontab.BuildRegistry([]crontab.Record{
//		{Name: "backup", Command: "pg_dump app > /tmp/app.sql", Expression: "0 3 * * *", Type: "external"},
//		{Name: "ping", Command: "http:ping", Expression: "*/5 * * * *", Type: "internal",
//			Params: map[string]any{"url": "https://example.com/health"}},
//	})
//
// Construction fails fast: an unparseable expression, a duplicate name or a
// malformed record is reported before the daemon starts ticking.
package crontab
