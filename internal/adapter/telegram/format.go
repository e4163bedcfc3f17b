package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"crontab/internal/crontab"
	"crontab/internal/shared"
)

const (
	// MaxMessageLen - лимит Telegram на длину текста сообщения (в символах)
	MaxMessageLen = 4096
	// maxOutputLines - сколько последних строк вывода попадает в алерт
	maxOutputLines = 10
)

// FormatFailure собирает текст алерта о неудачном запуске задачи.
func FormatFailure(o crontab.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "cron job failed: %s\n", o.Job.Name())
	fmt.Fprintf(&b, "command: %s (%s)\n", o.Job.Command(), o.Job.Kind())
	fmt.Fprintf(&b, "schedule: %s\n", o.Job.Schedule())
	fmt.Fprintf(&b, "at: %s\n", o.At.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "kind: %s\n", shared.KindOf(o.Err))
	fmt.Fprintf(&b, "error: %s", o.Detail())

	if lines := o.Output; len(lines) > 0 {
		if len(lines) > maxOutputLines {
			fmt.Fprintf(&b, "\n\noutput (last %d of %d lines):", maxOutputLines, len(lines))
			lines = lines[len(lines)-maxOutputLines:]
		} else {
			b.WriteString("\n\noutput:")
		}
		for _, l := range lines {
			b.WriteString("\n")
			b.WriteString(l)
		}
	}
	return truncate(b.String(), MaxMessageLen)
}

// FormatRecovery собирает текст о том, что задача снова выполняется успешно.
func FormatRecovery(o crontab.Outcome) string {
	return fmt.Sprintf("cron job recovered: %s (exit %d)", o.Job.Name(), o.ExitStatus)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	const tail = "\n…"
	r := []rune(s)
	return string(r[:n-utf8.RuneCountInString(tail)]) + tail
}
