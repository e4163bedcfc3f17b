package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"

	"crontab/internal/console"
	"crontab/internal/crontab"
	"crontab/internal/shared"
)

// Handler is an in-process command.
type Handler interface {
	Invoke(ctx context.Context, args []string, out *console.Output) (int, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, args []string, out *console.Output) (int, error)

// Invoke calls f.
func (f HandlerFunc) Invoke(ctx context.Context, args []string, out *console.Output) (int, error) {
	return f(ctx, args, out)
}

// Dispatcher resolves command names to handlers. Resolve returns an error
// wrapping ErrUnknownCommand when name is not registered.
type Dispatcher interface {
	Resolve(name string) (Handler, error)
}

// Commands is a static Dispatcher.
type Commands map[string]Handler

// Resolve implements Dispatcher.
func (c Commands) Resolve(name string) (Handler, error) {
	if h, ok := c[name]; ok && h != nil {
		return h, nil
	}
	return nil, fmt.Errorf("%w: %q", shared.ErrUnknownCommand, name)
}

// Internal runs a job's command through a Dispatcher.
type Internal struct {
	dispatcher Dispatcher
	verbosity  console.Verbosity
}

// NewInternal creates an Internal executor whose handlers write at verbosity v.
func NewInternal(d Dispatcher, v console.Verbosity) *Internal {
	return &Internal{dispatcher: d, verbosity: v}
}

// Run resolves and invokes the job's command with its params converted to
// flags. A console.ExitError only sets the exit status. Any other error or
// panic raised by the handler is returned as ErrHandlerError together with
// whatever output was captured.
func (i *Internal) Run(ctx context.Context, job *crontab.Job) (res Result, err error) {
	h, err := i.dispatcher.Resolve(job.Command())
	if err != nil {
		return Result{}, shared.MarkKind(err, shared.KindUnknownCommand)
	}

	out := console.NewOutput(i.verbosity)
	defer func() {
		if r := recover(); r != nil {
			res = Result{ExitStatus: 1, Output: out.Lines()}
			err = fmt.Errorf("%w: panic: %v\n%s", shared.ErrHandlerError, r, debug.Stack())
		}
	}()

	code, err := h.Invoke(ctx, Args(job.Params()), out)
	if exit, ok := console.ExitCode(err); ok && err != nil {
		code, err = exit, nil
	}
	res = Result{ExitStatus: code, Output: out.Lines()}
	if err != nil {
		if res.ExitStatus == 0 {
			res.ExitStatus = 1
		}
		return res, shared.MarkKind(err, shared.KindHandlerError)
	}
	return res, nil
}

// Args converts params into command-line flags, in key order:
//
//	foo_bar: 3      -> --foo-bar=3
//	force: true     -> --force
//	dry_run: false  -> --dry-run=false
//	tag: [a, b]     -> --tag=a --tag=b
//
// Keys that already start with "-" are used verbatim.
func Args(params crontab.Params) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	args := make([]string, 0, len(keys))
	for _, k := range keys {
		flag := flagName(k)
		switch v := params[k].(type) {
		case nil:
			args = append(args, flag)
		case bool:
			if v {
				args = append(args, flag)
			} else {
				args = append(args, flag+"=false")
			}
		case []any:
			for _, item := range v {
				args = append(args, flag+"="+scalar(item))
			}
		case []string:
			for _, item := range v {
				args = append(args, flag+"="+item)
			}
		default:
			args = append(args, flag+"="+scalar(v))
		}
	}
	return args
}

func flagName(key string) string {
	if strings.HasPrefix(key, "-") {
		return key
	}
	return "--" + strings.ReplaceAll(key, "_", "-")
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}
