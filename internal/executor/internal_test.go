package executor_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crontab/internal/console"
	"crontab/internal/crontab"
	"crontab/internal/executor"
	"crontab/internal/shared"
)

func internalJob(t *testing.T, command string, params crontab.Params) *crontab.Job {
	t.Helper()
	job, err := crontab.NewJob("job", command, crontab.MustParseExpression("* * * * *"), crontab.KindInternal, params)
	require.NoError(t, err)
	return job
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name   string
		params crontab.Params
		want   []string
	}{
		{"empty", nil, []string{}},
		{"underscores become dashes", crontab.Params{"foo_bar": 3}, []string{"--foo-bar=3"}},
		{"true is a bare flag", crontab.Params{"force": true}, []string{"--force"}},
		{"false is explicit", crontab.Params{"dry_run": false}, []string{"--dry-run=false"}},
		{"nil is a bare flag", crontab.Params{"x": nil}, []string{"--x"}},
		{"dash prefix verbatim", crontab.Params{"-n": "5", "--keep_me": "y"}, []string{"--keep_me=y", "-n=5"}},
		{"list repeats", crontab.Params{"tag": []any{"a", 2}}, []string{"--tag=a", "--tag=2"}},
		{"string list repeats", crontab.Params{"tag": []string{"a", "b"}}, []string{"--tag=a", "--tag=b"}},
		{"float", crontab.Params{"ratio": 0.5}, []string{"--ratio=0.5"}},
		{"json number", crontab.Params{"n": json.Number("200")}, []string{"--n=200"}},
		{"sorted", crontab.Params{"b": "2", "a": "1", "c": "3"}, []string{"--a=1", "--b=2", "--c=3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, executor.Args(tt.params))
		})
	}
}

func TestInternal_RunsHandler(t *testing.T) {
	var gotArgs []string
	cmds := executor.Commands{
		"greet": executor.HandlerFunc(func(_ context.Context, args []string, out *console.Output) (int, error) {
			gotArgs = args
			out.Println(console.VerbosityNormal, "hello")
			out.Println(console.VerbosityVerbose, "details")
			return 0, nil
		}),
	}

	res, err := executor.NewInternal(cmds, console.VerbosityNormal).
		Run(context.Background(), internalJob(t, "greet", crontab.Params{"name": "bob"}))
	require.NoError(t, err)
	assert.Equal(t, executor.Result{ExitStatus: 0, Output: []string{"hello"}}, res)
	assert.Equal(t, []string{"--name=bob"}, gotArgs)
}

func TestInternal_Verbosity(t *testing.T) {
	cmds := executor.Commands{
		"talk": executor.HandlerFunc(func(_ context.Context, _ []string, out *console.Output) (int, error) {
			out.Println(console.VerbosityNormal, "a")
			out.Println(console.VerbosityVerbose, "b")
			return 0, nil
		}),
	}

	res, err := executor.NewInternal(cmds, console.VerbosityVerbose).Run(context.Background(), internalJob(t, "talk", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Output)

	res, err = executor.NewInternal(cmds, console.VerbosityQuiet).Run(context.Background(), internalJob(t, "talk", nil))
	require.NoError(t, err)
	assert.Empty(t, res.Output)
}

func TestInternal_ExitStatus(t *testing.T) {
	cmds := executor.Commands{
		"code": executor.HandlerFunc(func(context.Context, []string, *console.Output) (int, error) {
			return 2, nil
		}),
		"exit": executor.HandlerFunc(func(context.Context, []string, *console.Output) (int, error) {
			return 0, console.Exit(4)
		}),
	}
	in := executor.NewInternal(cmds, console.VerbosityNormal)

	res, err := in.Run(context.Background(), internalJob(t, "code", nil))
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExitStatus)

	res, err = in.Run(context.Background(), internalJob(t, "exit", nil))
	require.NoError(t, err)
	assert.Equal(t, 4, res.ExitStatus)
}

func TestInternal_UnknownCommand(t *testing.T) {
	_, err := executor.NewInternal(executor.Commands{}, console.VerbosityNormal).
		Run(context.Background(), internalJob(t, "missing", nil))
	require.Error(t, err)
	assert.True(t, shared.IsUnknownCommand(err))
}

func TestInternal_HandlerError(t *testing.T) {
	boom := errors.New("boom")
	cmds := executor.Commands{
		"fail": executor.HandlerFunc(func(_ context.Context, _ []string, out *console.Output) (int, error) {
			out.Println(console.VerbosityNormal, "before")
			return 0, boom
		}),
	}

	res, err := executor.NewInternal(cmds, console.VerbosityNormal).Run(context.Background(), internalJob(t, "fail", nil))
	require.Error(t, err)
	assert.True(t, shared.IsHandlerError(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, res.ExitStatus)
	assert.Equal(t, []string{"before"}, res.Output)
}

func TestInternal_HandlerPanic(t *testing.T) {
	cmds := executor.Commands{
		"panic": executor.HandlerFunc(func(_ context.Context, _ []string, out *console.Output) (int, error) {
			out.Println(console.VerbosityNormal, "partial")
			panic("kaboom")
		}),
	}

	res, err := executor.NewInternal(cmds, console.VerbosityNormal).Run(context.Background(), internalJob(t, "panic", nil))
	require.Error(t, err)
	assert.True(t, shared.IsHandlerError(err))
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, []string{"partial"}, res.Output)
}
