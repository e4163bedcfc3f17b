// Package cli exposes a cobra command tree as the dispatcher for internal
// jobs and holds the built-in commands those jobs can call.
//
// Command names use ':' to reach nested commands, so "db:vacuum" resolves
// the "vacuum" subcommand of "db". A top-level command whose name itself
// contains ':' (like "http:ping") wins over the nested lookup.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crontab/internal/console"
	"crontab/internal/executor"
	"crontab/internal/shared"
)

// AnnotationNoJob marks a command that cannot be run as an internal job
// (the daemon itself, list, validate...).
const AnnotationNoJob = "crontab.no-job"

// NoJob returns annotations that mark a command as not resolvable.
func NoJob() map[string]string {
	return map[string]string{AnnotationNoJob: "true"}
}

type outputKey struct{}

// WithOutput stores out in ctx for the commands of the tree.
func WithOutput(ctx context.Context, out *console.Output) context.Context {
	return context.WithValue(ctx, outputKey{}, out)
}

// OutputFrom returns the Output the command must write to. Outside of a job
// it streams to the command's stdout at normal verbosity.
func OutputFrom(cmd *cobra.Command) *console.Output {
	if ctx := cmd.Context(); ctx != nil {
		if out, ok := ctx.Value(outputKey{}).(*console.Output); ok && out != nil {
			return out
		}
	}
	return console.NewStreamOutput(cmd.OutOrStdout(), console.VerbosityNormal)
}

// HasOutput reports whether ctx already carries an Output.
func HasOutput(ctx context.Context) bool {
	out, ok := ctx.Value(outputKey{}).(*console.Output)
	return ok && out != nil
}

// Tree resolves job commands against a cobra command tree. The tree is built
// anew for every invocation so concurrent jobs never share flag state.
type Tree struct {
	root func() *cobra.Command
}

// NewTree creates a dispatcher over the tree returned by root.
func NewTree(root func() *cobra.Command) *Tree {
	return &Tree{root: root}
}

// Resolve implements executor.Dispatcher.
func (t *Tree) Resolve(name string) (executor.Handler, error) {
	path, err := t.lookup(t.root(), name)
	if err != nil {
		return nil, err
	}
	return executor.HandlerFunc(func(ctx context.Context, args []string, out *console.Output) (int, error) {
		return t.invoke(ctx, path, args, out)
	}), nil
}

// Names lists every resolvable command name in tree order.
func (t *Tree) Names() []string {
	var names []string
	var walk func(prefix string, cmd *cobra.Command)
	walk = func(prefix string, cmd *cobra.Command) {
		for _, c := range cmd.Commands() {
			if c.Hidden || c.Annotations[AnnotationNoJob] != "" {
				continue
			}
			name := prefix + c.Name()
			if c.Runnable() {
				names = append(names, name)
			}
			walk(name+":", c)
		}
	}
	walk("", t.root())
	return names
}

func (t *Tree) lookup(root *cobra.Command, name string) ([]string, error) {
	cmd, path := find(root, strings.TrimSpace(name))
	switch {
	case cmd == nil:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownCommand, name)
	case cmd.Annotations[AnnotationNoJob] != "":
		return nil, fmt.Errorf("%w: %q cannot run as a job", shared.ErrUnknownCommand, name)
	case !cmd.Runnable():
		return nil, fmt.Errorf("%w: %q is a command group", shared.ErrUnknownCommand, name)
	}
	return path, nil
}

func find(parent *cobra.Command, name string) (*cobra.Command, []string) {
	if name == "" {
		return nil, nil
	}
	if c := child(parent, name); c != nil {
		return c, []string{c.Name()}
	}
	head, rest, ok := strings.Cut(name, ":")
	if !ok {
		return nil, nil
	}
	c := child(parent, head)
	if c == nil || c.Annotations[AnnotationNoJob] != "" {
		return nil, nil
	}
	sub, path := find(c, rest)
	if sub == nil {
		return nil, nil
	}
	return sub, append([]string{c.Name()}, path...)
}

func child(parent *cobra.Command, name string) *cobra.Command {
	for _, c := range parent.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return c
		}
	}
	return nil
}

func (t *Tree) invoke(ctx context.Context, path, args []string, out *console.Output) (int, error) {
	root := t.root()
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(append(append([]string{}, path...), args...))

	err := root.ExecuteContext(WithOutput(ctx, out))
	if code, ok := console.ExitCode(err); ok {
		return code, nil
	}
	return 1, err
}
