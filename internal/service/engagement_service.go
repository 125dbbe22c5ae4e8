package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"wallhub/internal/apperr"
	"wallhub/internal/content"
	"wallhub/internal/models"
	"wallhub/internal/repository"
)

type DownloadResult struct {
	DownloadCount int64
	URL           string
}

// EngagementService keeps the per-actor view, like and download ledgers
// and their counters. Each operation is a single store transaction.
type EngagementService struct {
	store  WallpaperStore
	signer AttachmentSigner
	log    zerolog.Logger
}

// NewEngagementService builds the service. A nil signer makes Download
// return the public media URL with the disposition as a query parameter.
func NewEngagementService(store WallpaperStore, signer AttachmentSigner, log zerolog.Logger) *EngagementService {
	return &EngagementService{store: store, signer: signer, log: log}
}

// View counts an actor once per item.
func (s *EngagementService) View(ctx context.Context, id, actor string) (models.ViewResult, error) {
	const op = "view"
	if actor == "" {
		return models.ViewResult{}, apperr.InvalidArgument(op, "actor is required")
	}
	w, err := resolve(ctx, s.store, op, id)
	if err != nil {
		return models.ViewResult{}, err
	}

	result, err := s.store.AddView(ctx, w.Partition, w.ID, actor)
	if err != nil {
		return models.ViewResult{}, storeError(op, err)
	}
	return result, nil
}

// ToggleLike flips the actor's like. The item ledger, the actor's liked
// list and the counter change together or not at all.
func (s *EngagementService) ToggleLike(ctx context.Context, id, actor string) (models.LikeResult, error) {
	const op = "toggle like"
	if actor == "" {
		return models.LikeResult{}, apperr.InvalidArgument(op, "actor is required")
	}
	w, err := resolve(ctx, s.store, op, id)
	if err != nil {
		return models.LikeResult{}, err
	}

	result, err := s.store.ToggleLike(ctx, w.Partition, w.ID, actor)
	if err != nil {
		return models.LikeResult{}, storeError(op, err)
	}
	s.log.Debug().Str("wallpaper_id", w.ID).Str("actor", actor).Bool("liked", result.Liked).Msg("like toggled")
	return result, nil
}

// Download counts every call. actor may be empty for anonymous callers; a
// known actor lands in the download ledger at most once.
func (s *EngagementService) Download(ctx context.Context, id, actor string) (DownloadResult, error) {
	const op = "download"
	w, err := resolve(ctx, s.store, op, id)
	if err != nil {
		return DownloadResult{}, err
	}
	if w.Partition == models.PartitionCurated && w.LifecycleState != models.StateApproved {
		return DownloadResult{}, apperr.Forbidden(op, "wallpaper is not approved")
	}
	if len(w.MediaRefs) == 0 {
		return DownloadResult{}, apperr.Internal(op, errors.New("wallpaper has no media"))
	}

	link, err := s.downloadLink(ctx, w)
	if err != nil {
		return DownloadResult{}, apperr.Internal(op, err)
	}

	count, err := s.store.RecordDownload(ctx, w.Partition, w.ID, actor, w.Partition == models.PartitionCurated)
	if err != nil {
		return DownloadResult{}, storeError(op, err)
	}
	return DownloadResult{DownloadCount: count, URL: link}, nil
}

func (s *EngagementService) downloadLink(ctx context.Context, w models.Wallpaper) (string, error) {
	ref := w.MediaRefs[0]
	if s.signer == nil || ref.StorageID == "" {
		return content.AttachmentURL(ref.URL, w.Title)
	}
	return s.signer.SignAttachment(ctx, ref.StorageID, w.Title)
}

// storeError maps store sentinels onto error kinds.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrWallpaperNotFound):
		return apperr.NotFound(op, "wallpaper not found")
	case errors.Is(err, repository.ErrUserNotFound):
		return apperr.NotFound(op, "user not found")
	case errors.Is(err, repository.ErrNotApproved):
		return apperr.Forbidden(op, "wallpaper is not approved")
	default:
		return apperr.Internal(op, err)
	}
}
