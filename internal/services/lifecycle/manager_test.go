package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	m.Register("first", func(context.Context) error { order = append(order, "first"); return nil })
	m.Register("second", func(context.Context) error { order = append(order, "second"); return errors.New("boom") })
	m.Register("third", func(context.Context) error { order = append(order, "third"); return nil })
	m.Register("ignored", nil)

	err := m.Shutdown(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, order)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, order, 3)
}

func TestShutdownHooksSeeDeadline(t *testing.T) {
	m := New(50*time.Millisecond, nil)
	var hasDeadline bool
	m.Register("probe", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})
	require.NoError(t, m.Shutdown(context.Background()))
	assert.True(t, hasDeadline)
}

func TestShutdownWithZeroTimeoutUsesDefault(t *testing.T) {
	m := New(0, nil)
	var hookErr error
	m.Register("server", func(ctx context.Context) error {
		hookErr = ctx.Err()
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.True(t, time.Until(deadline) > 10*time.Second)
		return nil
	})
	require.NoError(t, m.Shutdown(context.Background()))
	assert.NoError(t, hookErr)
}

func TestShutdownWithoutTimeoutKeepsCallerContext(t *testing.T) {
	m := New(time.Second, nil)
	m.timeout = 0

	var hasDeadline bool
	var hookErr error
	m.Register("server", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		hookErr = ctx.Err()
		return nil
	})
	require.NoError(t, m.Shutdown(context.Background()))
	assert.False(t, hasDeadline)
	assert.NoError(t, hookErr)
}
