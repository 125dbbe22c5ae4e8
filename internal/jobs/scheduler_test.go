package jobs

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingQueue struct {
	calls int
}

func (q *countingQueue) EnqueueReconcile(context.Context) error {
	q.calls++
	return nil
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&countingQueue{}, "not a schedule", zerolog.Nop())
	assert.Error(t, s.Start())
}

func TestSchedulerEnqueuesReconcile(t *testing.T) {
	q := &countingQueue{}
	s := NewScheduler(q, "@every 1h", zerolog.Nop())
	require.NoError(t, s.Start())
	defer s.Stop()

	s.enqueueReconcile()
	assert.Equal(t, 1, q.calls)
}
