package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestShutdownRunsPhasesInOrder(t *testing.T) {
	c := NewCoordinator(5*time.Second, zap.NewNop())

	var mu sync.Mutex
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	c.RegisterFunc(PhaseCleanup, "db", record("db"))
	c.RegisterFunc(PhaseDrain, "http", record("http"))
	c.RegisterFunc(PhaseShutdown, "workers", record("workers"))

	require.NoError(t, c.Shutdown(context.Background()))
	assert.Equal(t, []string{"http", "workers", "db"}, order)
}

func TestShutdownCollectsErrorsAndCompletes(t *testing.T) {
	c := NewCoordinator(5*time.Second, zap.NewNop())

	cleanupRan := false
	c.RegisterFunc(PhaseDrain, "failing", func(context.Context) error {
		return errors.New("drain failed")
	})
	c.RegisterFunc(PhaseCleanup, "cleanup", func(context.Context) error {
		cleanupRan = true
		return nil
	})

	require.NoError(t, c.Shutdown(context.Background()))
	assert.True(t, cleanupRan, "later phases must still run after a failure")
}

func TestShutdownIsIdempotent(t *testing.T) {
	c := NewCoordinator(5*time.Second, zap.NewNop())

	calls := 0
	c.RegisterFunc(PhaseDrain, "once", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, c.Shutdown(context.Background()))
	require.NoError(t, c.Shutdown(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestReadinessProbeDrainsOnShutdown(t *testing.T) {
	c := NewCoordinator(5*time.Second, zap.NewNop())
	rp := NewReadinessProbe(c)

	assert.True(t, rp.IsReady())

	require.NoError(t, c.Shutdown(context.Background()))

	assert.Eventually(t, func() bool {
		return !rp.IsReady()
	}, time.Second, 10*time.Millisecond)
}
