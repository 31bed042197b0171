package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := newScheduler(context.Background(), zaptest.NewLogger(t), job{
		name:     "broken",
		schedule: "every now and then",
		timeout:  time.Second,
		run:      func(context.Context) error { return nil },
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "register job broken")
}

func TestNewScheduler_SkipsDisabledJobs(t *testing.T) {
	c, err := newScheduler(context.Background(), zaptest.NewLogger(t),
		job{name: "off", timeout: time.Second, run: func(context.Context) error { return nil }},
		job{name: "on", schedule: "@every 1h", timeout: time.Second, run: func(context.Context) error { return nil }},
	)

	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
}

func TestNewScheduler_RunsJobs(t *testing.T) {
	var runs atomic.Int32
	c, err := newScheduler(context.Background(), zaptest.NewLogger(t), job{
		name:     "tick",
		schedule: "@every 1s",
		timeout:  time.Second,
		run: func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok, "each run is bounded by the job timeout")
			runs.Add(1)
			return nil
		},
	})
	require.NoError(t, err)

	c.Start()
	defer c.Stop()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
