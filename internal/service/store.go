package service

import (
	"context"
	"io"

	"wallhub/internal/content"
	"wallhub/internal/models"
)

// WallpaperStore is the content store both partitions live in. Every
// mutating method is atomic: either all of its writes land or none do.
type WallpaperStore interface {
	Create(ctx context.Context, w models.Wallpaper) error
	Get(ctx context.Context, partition models.Partition, id string) (models.Wallpaper, error)
	SlugExists(ctx context.Context, partition models.Partition, slug string) (bool, error)
	CountApproved(ctx context.Context, partition models.Partition) (int, error)
	ListApproved(ctx context.Context, partition models.Partition, limit int) ([]models.Wallpaper, error)
	Search(ctx context.Context, partition models.Partition, query string, approvedOnly bool) ([]models.Wallpaper, error)
	Related(ctx context.Context, partition models.Partition, criteria content.RelatedCriteria, approvedOnly bool, limit int) ([]models.Wallpaper, error)
	ListByOwner(ctx context.Context, owner string, offset, limit int) ([]models.Wallpaper, int, error)
	ListPending(ctx context.Context, offset, limit int) ([]models.Wallpaper, int, error)
	UpdateDetails(ctx context.Context, partition models.Partition, id, title, category string, tags []string) (models.Wallpaper, error)
	Approve(ctx context.Context, partition models.Partition, id string) (models.Wallpaper, error)
	Delete(ctx context.Context, partition models.Partition, id string) error
	AddView(ctx context.Context, partition models.Partition, id, actor string) (models.ViewResult, error)
	ToggleLike(ctx context.Context, partition models.Partition, id, actor string) (models.LikeResult, error)
	RecordDownload(ctx context.Context, partition models.Partition, id, actor string, requireApproved bool) (int64, error)
	LikedWallpapers(ctx context.Context, actor string) ([]models.LikedWallpaper, error)
}

type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
}

// MediaSink stores media bytes and removes them by storage id.
type MediaSink interface {
	Put(ctx context.Context, id, ext, contentType string, body io.Reader, size int64) (models.MediaRef, error)
	Delete(ctx context.Context, storageID string) error
}

// MediaPurger schedules asynchronous removal of media whose record is gone.
type MediaPurger interface {
	EnqueuePurge(ctx context.Context, wallpaperID string, storageIDs []string) error
}

// AttachmentSigner hands out a time-limited link that makes the object
// store serve storageID as an attachment named filename.
type AttachmentSigner interface {
	SignAttachment(ctx context.Context, storageID, title string) (string, error)
}

// PageCache is advisory: misses and errors fall through to the store.
// Get reports the generation it read; Set stores under that generation so
// a page computed before an Invalidate is never served after it.
type PageCache interface {
	Get(ctx context.Context, key string, dst any) (gen int64, hit bool, err error)
	Set(ctx context.Context, gen int64, key string, value any) error
	Invalidate(ctx context.Context) error
}

// LookupOrder is the partition probe order for id lookups. Ids are unique
// across partitions, so the order only matters for cost.
var LookupOrder = []models.Partition{models.PartitionCurated, models.PartitionUser}
