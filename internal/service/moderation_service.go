package service

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"

	"wallhub/internal/apperr"
	"wallhub/internal/content"
	"wallhub/internal/ids"
	"wallhub/internal/models"
	"wallhub/internal/repository"
)

// maxSlugInserts bounds how often Create retries after losing a slug race.
const maxSlugInserts = 32

const maxTitleLength = 200

type CreateInput struct {
	Partition   models.Partition
	Owner       string
	Title       string
	Description string
	Category    string
	Tags        []string
	MediaRefs   []models.MediaRef
	Resolution  string
	ByteSize    int64
	MediaKind   models.MediaKind
}

// Validate runs after normalization, so whitespace-only fields fail.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Partition, validation.Required, validation.In(models.PartitionUser, models.PartitionCurated)),
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, maxTitleLength)),
		validation.Field(&in.Category, validation.Required),
		validation.Field(&in.MediaRefs, validation.Required, validation.Each(validation.By(validMediaRef))),
		validation.Field(&in.Owner, validation.When(in.Partition == models.PartitionUser, validation.Required)),
		validation.Field(&in.MediaKind, validation.In(models.MediaImage, models.MediaVideo)),
		validation.Field(&in.ByteSize, validation.Min(int64(0))),
	)
}

func validMediaRef(value interface{}) error {
	ref, _ := value.(models.MediaRef)
	if ref.URL == "" || ref.StorageID == "" {
		return errors.New("url and storage id are required")
	}
	return nil
}

// EditInput changes title, category and tags. Empty fields keep the
// current value.
type EditInput struct {
	Title    string
	Category string
	Tags     []string
}

func (in EditInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.RuneLength(0, maxTitleLength)),
	)
}

// ModerationService owns create, edit, delete and the approve/reject
// lifecycle of user submissions.
type ModerationService struct {
	store  WallpaperStore
	sink   MediaSink
	purger MediaPurger
	cache  PageCache
	log    zerolog.Logger
	now    func() time.Time
}

func NewModerationService(store WallpaperStore, sink MediaSink, purger MediaPurger, cache PageCache, log zerolog.Logger) *ModerationService {
	return &ModerationService{
		store:  store,
		sink:   sink,
		purger: purger,
		cache:  cache,
		log:    log,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Create normalizes and validates input, applies partition defaults and
// assigns the first free slug. A lost slug race retries with the next
// candidate.
func (s *ModerationService) Create(ctx context.Context, input CreateInput) (models.Wallpaper, error) {
	const op = "create"

	w := models.Wallpaper{
		ID:          ids.New(),
		Partition:   input.Partition,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Tags:        input.Tags,
		MediaRefs:   append([]models.MediaRef(nil), input.MediaRefs...),
		Resolution:  input.Resolution,
		ByteSize:    input.ByteSize,
		MediaKind:   input.MediaKind,
		Owner:       input.Owner,
	}
	content.Normalize(&w)

	normalized := input
	normalized.Title, normalized.Category = w.Title, w.Category
	if err := normalized.Validate(); err != nil {
		return models.Wallpaper{}, apperr.Invalid(op, err)
	}

	content.ApplyPartitionDefaults(&w)
	w.CreatedAt = s.now()
	w.UpdatedAt = w.CreatedAt

	base := content.Slugify(w.Title)
	inserts := 0
	for n := 0; inserts < maxSlugInserts; n++ {
		candidate := content.SlugCandidate(base, n)
		taken, err := s.store.SlugExists(ctx, w.Partition, candidate)
		if err != nil {
			return models.Wallpaper{}, apperr.Internal(op, err)
		}
		if taken {
			continue
		}

		w.Slug = candidate
		inserts++
		err = s.store.Create(ctx, w)
		if errors.Is(err, repository.ErrSlugTaken) {
			s.log.Debug().Str("slug", candidate).Msg("slug taken concurrently, retrying")
			continue
		}
		if err != nil {
			return models.Wallpaper{}, apperr.Internal(op, err)
		}

		s.invalidate(ctx)
		s.log.Info().
			Str("wallpaper_id", w.ID).
			Str("partition", string(w.Partition)).
			Str("slug", w.Slug).
			Msg("wallpaper created")
		created, err := s.store.Get(ctx, w.Partition, w.ID)
		if err != nil {
			return models.Wallpaper{}, storeError(op, err)
		}
		return created, nil
	}
	return models.Wallpaper{}, apperr.Conflict(op, "could not assign a unique slug")
}

// Edit applies an owner's patch. The slug stays as assigned at create.
func (s *ModerationService) Edit(ctx context.Context, id, actor string, patch EditInput) (models.Wallpaper, error) {
	const op = "edit"
	if err := patch.Validate(); err != nil {
		return models.Wallpaper{}, apperr.Invalid(op, err)
	}
	w, err := s.owned(ctx, op, id, actor)
	if err != nil {
		return models.Wallpaper{}, err
	}

	if patch.Title != "" {
		w.Title = patch.Title
	}
	if patch.Category != "" {
		w.Category = patch.Category
	}
	if patch.Tags != nil {
		w.Tags = patch.Tags
	}
	content.Normalize(&w)
	if w.Title == "" || w.Category == "" {
		return models.Wallpaper{}, apperr.InvalidArgument(op, "title and category cannot be blank")
	}

	updated, err := s.store.UpdateDetails(ctx, w.Partition, w.ID, w.Title, w.Category, w.Tags)
	if err != nil {
		return models.Wallpaper{}, storeError(op, err)
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes an owner's item, then schedules its media for purge. The
// record is gone once the store delete succeeds, so a failed enqueue is
// only logged.
func (s *ModerationService) Delete(ctx context.Context, id, actor string) error {
	const op = "delete"
	w, err := s.owned(ctx, op, id, actor)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, w.Partition, w.ID); err != nil {
		return storeError(op, err)
	}
	s.invalidate(ctx)

	if s.purger != nil {
		if err := s.purger.EnqueuePurge(ctx, w.ID, w.StorageIDs()); err != nil {
			s.log.Error().Err(err).Str("wallpaper_id", w.ID).Strs("storage_ids", w.StorageIDs()).Msg("enqueue media purge failed")
		}
	}
	return nil
}

// Approve is permissive: approving an approved item succeeds.
func (s *ModerationService) Approve(ctx context.Context, id string) (models.Wallpaper, error) {
	const op = "approve"
	if !ids.Valid(id) {
		return models.Wallpaper{}, apperr.InvalidArgument(op, "malformed id")
	}
	w, err := s.store.Approve(ctx, models.PartitionUser, id)
	if err != nil {
		return models.Wallpaper{}, storeError(op, err)
	}
	s.invalidate(ctx)
	s.log.Info().Str("wallpaper_id", id).Msg("wallpaper approved")
	return w, nil
}

// Reject removes the first media object from the sink and then deletes
// the record. When the sink fails the record is kept.
func (s *ModerationService) Reject(ctx context.Context, id string) error {
	const op = "reject"
	if !ids.Valid(id) {
		return apperr.InvalidArgument(op, "malformed id")
	}
	w, err := s.store.Get(ctx, models.PartitionUser, id)
	if err != nil {
		return storeError(op, err)
	}
	if len(w.MediaRefs) == 0 {
		return apperr.InvalidArgument(op, "wallpaper has no media")
	}

	if err := s.sink.Delete(ctx, w.MediaRefs[0].StorageID); err != nil {
		return apperr.Internal(op, err)
	}
	if err := s.store.Delete(ctx, models.PartitionUser, id); err != nil {
		return storeError(op, err)
	}
	s.invalidate(ctx)
	s.log.Info().Str("wallpaper_id", id).Msg("wallpaper rejected")
	return nil
}

func (s *ModerationService) ListPending(ctx context.Context, page, limit int) (Page, error) {
	w := content.NewWindow(page, limit)
	items, total, err := s.store.ListPending(ctx, w.Offset(), w.Limit)
	if err != nil {
		return Page{}, apperr.Internal("list pending", err)
	}
	return newPage(items, total, w), nil
}

func (s *ModerationService) owned(ctx context.Context, op, id, actor string) (models.Wallpaper, error) {
	if !ids.Valid(id) {
		return models.Wallpaper{}, apperr.InvalidArgument(op, "malformed id")
	}
	w, err := s.store.Get(ctx, models.PartitionUser, id)
	if err != nil {
		return models.Wallpaper{}, storeError(op, err)
	}
	if w.Owner != actor {
		return models.Wallpaper{}, apperr.Forbidden(op, "not the owner")
	}
	return w, nil
}

func (s *ModerationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("listing cache invalidate failed")
	}
}
