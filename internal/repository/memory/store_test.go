package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallhub/internal/models"
	"wallhub/internal/repository"
)

func wallpaper(id string, partition models.Partition, slug string) models.Wallpaper {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.Wallpaper{
		ID:             id,
		Partition:      partition,
		Title:          id,
		Category:       "nature",
		Slug:           slug,
		LifecycleState: models.StateApproved,
		IsApproved:     true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCreateEnforcesSlugPerPartition(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, wallpaper("a", models.PartitionUser, "sunset")))
	require.NoError(t, s.Create(ctx, wallpaper("b", models.PartitionCurated, "sunset")))
	assert.ErrorIs(t, s.Create(ctx, wallpaper("c", models.PartitionUser, "sunset")), repository.ErrSlugTaken)

	_, err := s.Get(ctx, models.PartitionCurated, "a")
	assert.ErrorIs(t, err, repository.ErrWallpaperNotFound)
}

func TestReturnedItemsAreCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	w := wallpaper("a", models.PartitionUser, "a")
	w.Tags = []string{"sky"}
	require.NoError(t, s.Create(ctx, w))

	got, err := s.Get(ctx, models.PartitionUser, "a")
	require.NoError(t, err)
	got.Tags[0] = "changed"

	again, err := s.Get(ctx, models.PartitionUser, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"sky"}, again.Tags)
}

func TestReconcileCounters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	s.PutUser(models.User{ID: "alice"})
	s.PutUser(models.User{ID: "bob"})

	w := wallpaper("a", models.PartitionUser, "a")
	w.LikedBy = []string{"alice"}
	w.LikeCount = 5
	w.ViewedBy = []string{"alice", "bob"}
	w.ViewCount = 0
	w.DownloadedBy = []string{"alice"}
	w.DownloadCount = 9
	require.NoError(t, s.Create(ctx, w))
	s.liked["bob"] = []models.LikedWallpaper{{WallpaperID: "a", Partition: models.PartitionUser}}

	touched, err := s.ReconcileCounters(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), touched)

	got, err := s.Get(ctx, models.PartitionUser, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikeCount)
	assert.Equal(t, int64(2), got.ViewCount)
	assert.Equal(t, int64(9), got.DownloadCount)

	alice, err := s.LikedWallpapers(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, "a", alice[0].WallpaperID)

	bob, err := s.LikedWallpapers(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bob)

	touched, err = s.ReconcileCounters(ctx)
	require.NoError(t, err)
	assert.Zero(t, touched)
}

func TestUsers(t *testing.T) {
	users := NewStore().Users()
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, models.User{ID: "u1", Email: "alice@example.com"}))
	assert.ErrorIs(t, users.Create(ctx, models.User{ID: "u2", Email: "ALICE@example.com"}), repository.ErrEmailTaken)

	byEmail, err := users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	_, err = users.GetByID(ctx, "u2")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
