package crontab

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crontab/internal/shared"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"external", KindExternal},
		{"EXTERNAL", KindExternal},
		{" shell ", KindExternal},
		{"internal", KindInternal},
		{"command", KindInternal},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseKind("cloud")
	assert.ErrorIs(t, err, shared.ErrInvalidJob)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "external", KindExternal.String())
	assert.Equal(t, "internal", KindInternal.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestNewJob_ParamsOnlyForInternal(t *testing.T) {
	sched := MustParseExpression("* * * * *")
	params := Params{"foo_bar": 1}

	ext, err := NewJob("ext", "echo hi", sched, KindExternal, params)
	require.NoError(t, err)
	assert.Nil(t, ext.Params())

	in, err := NewJob("in", "echo", sched, KindInternal, params)
	require.NoError(t, err)
	assert.Equal(t, params, in.Params())

	params["foo_bar"] = 2
	assert.Equal(t, 1, in.Params()["foo_bar"], "job must not alias caller's map")

	p := in.Params()
	p["foo_bar"] = 3
	assert.Equal(t, 1, in.Params()["foo_bar"], "Params must return a copy")
}

func TestNewJob_Validation(t *testing.T) {
	sched := MustParseExpression("* * * * *")

	tests := []struct {
		name    string
		jobName string
		command string
		sched   *Expression
		kind    Kind
		params  Params
	}{
		{"empty name", " ", "true", sched, KindExternal, nil},
		{"empty command", "a", "  ", sched, KindExternal, nil},
		{"nil schedule", "a", "true", nil, KindExternal, nil},
		{"zero kind", "a", "true", sched, Kind(0), nil},
		{"map param", "a", "echo", sched, KindInternal, Params{"x": map[string]any{}}},
		{"nested list", "a", "echo", sched, KindInternal, Params{"x": []any{[]any{1}}}},
		{"struct param", "a", "echo", sched, KindInternal, Params{"x": struct{}{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJob(tt.jobName, tt.command, tt.sched, tt.kind, tt.params)
			assert.ErrorIs(t, err, shared.ErrInvalidJob)
		})
	}
}

func TestOutcome_Detail(t *testing.T) {
	job, err := NewJob("a", "true", MustParseExpression("* * * * *"), KindExternal, nil)
	require.NoError(t, err)
	now := time.Now()

	assert.Equal(t, "not due", Skipped(job, now, "not due").Detail())
	assert.Equal(t, "a\nb", Executed(job, now, 0, []string{"a", "b"}, time.Millisecond).Detail())
	assert.Equal(t, "unknown command", Failed(job, now, shared.ErrUnknownCommand, nil, 0).Detail())

	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "executed", StatusExecuted.String())
	assert.Equal(t, "failed", StatusFailed.String())
}
