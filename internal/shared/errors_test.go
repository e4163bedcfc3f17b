package shared_test

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crontab/internal/shared"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		expected string
		isNil    bool
	}{
		{name: "nil error", err: nil, context: "job backup", isNil: true},
		{name: "simple error", err: errors.New("original"), context: "job backup", expected: "job backup: original"},
		{name: "empty context", err: errors.New("original"), context: "", expected: "original"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.Wrap(tt.err, tt.context)
			if tt.isNil {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, tt.expected, result.Error())
			assert.True(t, errors.Is(result, tt.err))
		})
	}
}

func TestWrapf(t *testing.T) {
	err := shared.Wrapf(shared.ErrUnknownCommand, "job %q", "ping")
	require.Error(t, err)
	assert.Equal(t, `job "ping": unknown command`, err.Error())
	assert.True(t, shared.IsUnknownCommand(err))

	assert.Nil(t, shared.Wrapf(nil, "job %q", "ping"))
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     shared.Kind
		expected string
	}{
		{shared.KindUnknown, "Unknown"},
		{shared.KindInvalidExpression, "InvalidExpression"},
		{shared.KindDuplicateJobName, "DuplicateJobName"},
		{shared.KindInvalidJob, "InvalidJob"},
		{shared.KindSpawnFailure, "SpawnFailure"},
		{shared.KindUnknownCommand, "UnknownCommand"},
		{shared.KindHandlerError, "HandlerError"},
		{shared.KindTimeout, "Timeout"},
		{shared.KindCanceled, "Canceled"},
		{shared.Kind(999), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.String())
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected shared.Kind
	}{
		{"nil", nil, shared.KindUnknown},
		{"plain", errors.New("boom"), shared.KindUnknown},
		{"invalid expression", shared.ErrInvalidExpression, shared.KindInvalidExpression},
		{"wrapped duplicate", fmt.Errorf("registry: %w", shared.ErrDuplicateJobName), shared.KindDuplicateJobName},
		{"invalid job", shared.ErrInvalidJob, shared.KindInvalidJob},
		{"spawn", shared.ErrSpawnFailure, shared.KindSpawnFailure},
		{"unknown command", shared.ErrUnknownCommand, shared.KindUnknownCommand},
		{"handler", shared.ErrHandlerError, shared.KindHandlerError},
		{"deadline", context.DeadlineExceeded, shared.KindTimeout},
		{"canceled", context.Canceled, shared.KindCanceled},
		{"handler wrapping timeout", fmt.Errorf("%w: %w", shared.ErrHandlerError, context.DeadlineExceeded), shared.KindTimeout},
		{"join prefers canceled", errors.Join(shared.ErrSpawnFailure, context.Canceled), shared.KindCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shared.KindOf(tt.err))
			assert.True(t, shared.HasKind(tt.err, tt.expected))
		})
	}
}

func TestMarkKind(t *testing.T) {
	t.Run("preserves original", func(t *testing.T) {
		marked := shared.MarkKind(exec.ErrNotFound, shared.KindSpawnFailure)
		assert.True(t, shared.IsSpawnFailure(marked))
		assert.True(t, errors.Is(marked, exec.ErrNotFound))
		assert.Equal(t, shared.KindSpawnFailure, shared.KindOf(marked))
	})

	t.Run("idempotent", func(t *testing.T) {
		once := shared.MarkKind(errors.New("x"), shared.KindHandlerError)
		twice := shared.MarkKind(once, shared.KindHandlerError)
		assert.Same(t, once, twice)
	})

	t.Run("nil returns sentinel", func(t *testing.T) {
		assert.Equal(t, shared.ErrUnknownCommand, shared.MarkKind(nil, shared.KindUnknownCommand))
		assert.Nil(t, shared.MarkKind(nil, shared.KindCanceled))
	})

	t.Run("kinds without sentinel leave error untouched", func(t *testing.T) {
		err := errors.New("x")
		assert.Same(t, err, shared.MarkKind(err, shared.KindUnknown))
	})
}

func TestMarkKind_NilYieldsSentinel(t *testing.T) {
	assert.Equal(t, shared.ErrInvalidExpression, shared.MarkKind(nil, shared.KindInvalidExpression))
	assert.Equal(t, shared.ErrTimeout, shared.MarkKind(nil, shared.KindTimeout))
	assert.Nil(t, shared.MarkKind(nil, shared.KindUnknown))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, shared.IsFatal(shared.Wrap(shared.ErrInvalidExpression, "job a")))
	assert.True(t, shared.IsFatal(shared.ErrDuplicateJobName))
	assert.True(t, shared.IsFatal(shared.ErrInvalidJob))
	assert.False(t, shared.IsFatal(shared.ErrSpawnFailure))
	assert.False(t, shared.IsFatal(shared.ErrHandlerError))
	assert.False(t, shared.IsFatal(nil))
}

func TestPredicates(t *testing.T) {
	assert.True(t, shared.IsInvalidExpression(shared.ErrInvalidExpression))
	assert.True(t, shared.IsDuplicateJobName(shared.ErrDuplicateJobName))
	assert.True(t, shared.IsHandlerError(fmt.Errorf("job: %w", shared.ErrHandlerError)))
	assert.False(t, shared.IsUnknownCommand(shared.ErrHandlerError))
	assert.Equal(t, shared.KindUnknown, shared.KindOf(nil))
	assert.False(t, shared.IsTimeout(nil))
	assert.True(t, shared.IsTimeout(shared.ErrTimeout))
}
