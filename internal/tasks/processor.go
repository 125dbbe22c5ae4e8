package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type MediaRemover interface {
	Delete(ctx context.Context, storageID string) error
}

type CounterReconciler interface {
	ReconcileCounters(ctx context.Context) (int64, error)
}

type Processor struct {
	media      MediaRemover
	reconciler CounterReconciler
	logger     zerolog.Logger
}

func NewProcessor(media MediaRemover, reconciler CounterReconciler, logger zerolog.Logger) *Processor {
	return &Processor{
		media:      media,
		reconciler: reconciler,
		logger:     logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	task, err := Decode(msg.Values)
	if err != nil {
		// a malformed entry will never succeed; drop it
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("discarding malformed task")
		return nil
	}

	switch task.Type {
	case TypePurgeMedia:
		return p.handlePurge(ctx, task)
	case TypeReconcileCounters:
		return p.handleReconcile(ctx)
	default:
		p.logger.Warn().Str("type", string(task.Type)).Msg("unknown task type")
		return nil
	}
}

// handlePurge attempts every storage id and reports the failures together,
// so a redelivery retries the whole set. Deleting a missing object is not
// an error for the sink.
func (p *Processor) handlePurge(ctx context.Context, task Task) error {
	var errs []error
	for _, storageID := range task.StorageIDs {
		if err := p.media.Delete(ctx, storageID); err != nil {
			errs = append(errs, err)
			continue
		}
		p.logger.Debug().Str("wallpaper_id", task.WallpaperID).Str("storage_id", storageID).Msg("media purged")
	}
	if len(errs) > 0 {
		return fmt.Errorf("purge %s: %w", task.WallpaperID, errors.Join(errs...))
	}
	p.logger.Info().Str("wallpaper_id", task.WallpaperID).Int("objects", len(task.StorageIDs)).Msg("purge complete")
	return nil
}

func (p *Processor) handleReconcile(ctx context.Context) error {
	touched, err := p.reconciler.ReconcileCounters(ctx)
	if err != nil {
		return fmt.Errorf("reconcile counters: %w", err)
	}
	p.logger.Info().Int64("rows", touched).Msg("counters reconciled")
	return nil
}
