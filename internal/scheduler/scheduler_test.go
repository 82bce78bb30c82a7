package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type digestStub struct {
	window time.Duration
	n      int
	err    error
}

func (d *digestStub) SendDigest(_ context.Context, window time.Duration) (int, error) {
	d.window = window
	return d.n, d.err
}

type sweepStub struct{ idle time.Duration }

func (s *sweepStub) Sweep(maxIdle time.Duration) int {
	s.idle = maxIdle
	return 0
}

func TestRegister_RejectsInvalidSpec(t *testing.T) {
	m := NewManager(zap.NewNop(), time.Second)
	err := m.Register("digest", "every morning", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestRegister_ReplacesExistingJob(t *testing.T) {
	m := NewManager(zap.NewNop(), time.Second)
	noop := func(context.Context) error { return nil }

	require.NoError(t, m.Register("digest", "0 0 8 * * *", noop))
	require.NoError(t, m.Register("digest", "0 30 9 * * *", noop))
	assert.Len(t, m.cron.Entries(), 1)
}

func TestStartStop(t *testing.T) {
	m := NewManager(zap.NewNop(), time.Second)
	done := make(chan struct{}, 1)
	require.NoError(t, m.Register("tick", "* * * * * *", func(context.Context) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	}))

	require.NoError(t, m.Start())
	assert.Error(t, m.Start())

	next, ok := m.NextRun("tick")
	assert.True(t, ok)
	assert.False(t, next.IsZero())

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
	m.Stop()
}

func TestDigestJob(t *testing.T) {
	stub := &digestStub{n: 2}
	require.NoError(t, DigestJob(stub, 24*time.Hour, zap.NewNop())(context.Background()))
	assert.Equal(t, 24*time.Hour, stub.window)

	failing := &digestStub{err: errors.New("ses throttled")}
	assert.Error(t, DigestJob(failing, time.Hour, zap.NewNop())(context.Background()))
}

func TestSweepJob(t *testing.T) {
	stub := &sweepStub{}
	require.NoError(t, SweepJob(stub, 10*time.Minute)(context.Background()))
	assert.Equal(t, 10*time.Minute, stub.idle)
}
