package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errUpstream = errors.New("upstream down")

func newTestBreaker(cfg *Config) *CircuitBreaker {
	return New("test", cfg, zap.NewNop())
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := newTestBreaker(&Config{
		FailureThreshold:    3,
		SuccessThreshold:    1,
		OpenTimeout:         time.Minute,
		HalfOpenMaxRequests: 1,
	})

	fail := func(context.Context) error { return errUpstream }
	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), fail)
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestHalfOpenClosesAfterSuccesses(t *testing.T) {
	cb := newTestBreaker(&Config{
		FailureThreshold:    1,
		SuccessThreshold:    1,
		OpenTimeout:         time.Millisecond,
		HalfOpenMaxRequests: 1,
	})

	_ = cb.Execute(context.Background(), func(context.Context) error { return errUpstream })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(5 * time.Millisecond)

	err := cb.Execute(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestContextCancellationDoesNotTrip(t *testing.T) {
	cb := newTestBreaker(&Config{
		FailureThreshold:    1,
		SuccessThreshold:    1,
		OpenTimeout:         time.Minute,
		HalfOpenMaxRequests: 1,
	})

	_ = cb.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	assert.Equal(t, StateClosed, cb.State())
}

func TestTimeoutsOpenTheCircuit(t *testing.T) {
	cb := newTestBreaker(&Config{
		FailureThreshold:    3,
		SuccessThreshold:    1,
		OpenTimeout:         time.Minute,
		HalfOpenMaxRequests: 1,
	})

	timeout := func(context.Context) error { return context.DeadlineExceeded }
	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), timeout)
	}
	assert.Equal(t, StateOpen, cb.State())
}
