package server

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClose_LIFOOrder(t *testing.T) {
	l := NewLifecycle()

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		l.RegisterCloser(CloserFunc(func() error {
			order = append(order, i)
			return nil
		}))
	}

	require.NoError(t, l.Close())
	assert.Equal(t, []int{2, 1, 0}, order)
}

func TestClose_ReturnsFirstError(t *testing.T) {
	l := NewLifecycle()

	first := fmt.Errorf("first failure")
	l.RegisterCloser(CloserFunc(func() error { return nil }))
	l.RegisterCloser(CloserFunc(func() error { return first }))
	l.RegisterCloser(CloserFunc(func() error { return fmt.Errorf("later failure") }))

	// LIFO: "later failure" runs before "first failure"; the first error
	// seen during Close is the one reported.
	err := l.Close()
	require.Error(t, err)
	assert.Equal(t, "later failure", err.Error())
}

func TestClose_Idempotent(t *testing.T) {
	l := NewLifecycle()

	calls := 0
	l.RegisterCloser(CloserFunc(func() error {
		calls++
		return nil
	}))

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	assert.Equal(t, 1, calls)
}

func TestSignalContext_CancelPropagates(t *testing.T) {
	l := NewLifecycle()
	ctx, cancel := l.SignalContext(context.Background())
	cancel()

	select {
	case <-ctx.Done():
	default:
		t.Fatal("context should be done after cancel")
	}
}
