// Package console holds the output sink handed to in-process commands.
//
// An Output buffers everything a command writes so the caller can collect it
// after the command returns. Writes carry a verbosity; anything more verbose
// than the sink's configured level is dropped.
package console

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Verbosity orders output detail from silent to debug.
type Verbosity int

const (
	VerbosityQuiet Verbosity = iota
	VerbosityNormal
	VerbosityVerbose
	VerbosityVeryVerbose
	VerbosityDebug
)

// String returns the lowercase name used in configuration.
func (v Verbosity) String() string {
	switch v {
	case VerbosityQuiet:
		return "quiet"
	case VerbosityNormal:
		return "normal"
	case VerbosityVerbose:
		return "verbose"
	case VerbosityVeryVerbose:
		return "very_verbose"
	case VerbosityDebug:
		return "debug"
	default:
		return "verbosity(" + strconv.Itoa(int(v)) + ")"
	}
}

// ParseVerbosity accepts a level name or its number (0-4).
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet", "q":
		return VerbosityQuiet, nil
	case "", "normal":
		return VerbosityNormal, nil
	case "verbose", "v":
		return VerbosityVerbose, nil
	case "very_verbose", "very-verbose", "vv":
		return VerbosityVeryVerbose, nil
	case "debug", "vvv":
		return VerbosityDebug, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < int(VerbosityQuiet) || n > int(VerbosityDebug) {
		return VerbosityNormal, fmt.Errorf("unknown verbosity %q", s)
	}
	return Verbosity(n), nil
}

// FromFlags maps -q / -v count flags to a Verbosity.
func FromFlags(quiet bool, verbose int) Verbosity {
	if quiet {
		return VerbosityQuiet
	}
	v := VerbosityNormal + Verbosity(verbose)
	if v > VerbosityDebug {
		v = VerbosityDebug
	}
	return v
}

// Output is a buffered, verbosity-aware writer. Safe for concurrent use.
type Output struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	w         io.Writer
	verbosity Verbosity
}

// NewOutput creates an empty buffer that keeps writes up to v.
func NewOutput(v Verbosity) *Output {
	o := &Output{verbosity: v}
	o.w = &o.buf
	return o
}

// NewStreamOutput writes through to w instead of buffering. String and Lines
// of a stream output are always empty.
func NewStreamOutput(w io.Writer, v Verbosity) *Output {
	return &Output{w: w, verbosity: v}
}

// Verbosity returns the configured level.
func (o *Output) Verbosity() Verbosity {
	return o.verbosity
}

// Enabled reports whether writes at level v are kept.
func (o *Output) Enabled(v Verbosity) bool {
	return v != VerbosityQuiet && v <= o.verbosity
}

// Write implements io.Writer at normal verbosity.
func (o *Output) Write(p []byte) (int, error) {
	if !o.Enabled(VerbosityNormal) {
		return len(p), nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.w.Write(p)
}

// Println writes a line at level v.
func (o *Output) Println(v Verbosity, a ...any) {
	if !o.Enabled(v) {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, a...)
}

// Printf writes a formatted line at level v. A trailing newline is added when missing.
func (o *Output) Printf(v Verbosity, format string, a ...any) {
	if !o.Enabled(v) {
		return
	}
	s := fmt.Sprintf(format, a...)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	io.WriteString(o.w, s)
}

// String returns everything written so far.
func (o *Output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.String()
}

// Lines returns the buffered output split into lines.
func (o *Output) Lines() []string {
	return SplitLines(o.String())
}

// SplitLines splits s on newlines, tolerating CRLF. The empty tail after a final
// newline is dropped, so "a\nb\n" yields two lines and "" yields none.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
