package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Enqueuer interface {
	EnqueueReconcile(ctx context.Context) error
}

// Scheduler enqueues periodic maintenance tasks; the worker runs them.
type Scheduler struct {
	cron     *cron.Cron
	queue    Enqueuer
	schedule string
	log      zerolog.Logger
}

func NewScheduler(queue Enqueuer, schedule string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		queue:    queue,
		schedule: schedule,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil || s.schedule == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.enqueueReconcile); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for a running enqueue to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) enqueueReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.queue.EnqueueReconcile(ctx); err != nil {
		s.log.Error().Err(err).Msg("enqueue reconcile failed")
		return
	}
	s.log.Debug().Msg("reconcile enqueued")
}
