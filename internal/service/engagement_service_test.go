package service

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallhub/internal/apperr"
	"wallhub/internal/models"
	"wallhub/internal/repository/memory"
)

func TestViewIsIdempotentPerActor(t *testing.T) {
	f := newFixture(t)
	w := f.seed(t, models.PartitionUser, "view me", 1)

	first, err := f.engagement.View(context.Background(), w.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ViewResult{ViewCount: 1, Counted: true}, first)

	again, err := f.engagement.View(context.Background(), w.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ViewResult{ViewCount: 1, Counted: false}, again)

	other, err := f.engagement.View(context.Background(), w.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), other.ViewCount)

	stored, err := f.aggregate.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, stored.ViewedBy)
	assert.Equal(t, int64(len(stored.ViewedBy)), stored.ViewCount)
}

func TestViewValidatesInput(t *testing.T) {
	f := newFixture(t)
	w := f.seed(t, models.PartitionUser, "view me", 1)

	_, err := f.engagement.View(context.Background(), "bad id", "alice")
	assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))

	_, err = f.engagement.View(context.Background(), w.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindInvalidArgument))
}

func TestToggleLikeTwiceIsItsOwnInverse(t *testing.T) {
	f := newFixture(t)
	f.user("alice")
	w := f.seed(t, models.PartitionCurated, "like me", 1)

	liked, err := f.engagement.ToggleLike(context.Background(), w.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.LikeResult{Liked: true, LikeCount: 1}, liked)

	entries, err := f.store.LikedWallpapers(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, w.ID, entries[0].WallpaperID)
	assert.Equal(t, models.PartitionCurated, entries[0].Partition)

	unliked, err := f.engagement.ToggleLike(context.Background(), w.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.LikeResult{Liked: false, LikeCount: 0}, unliked)

	stored, err := f.aggregate.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.LikedBy)
	assert.Equal(t, int64(0), stored.LikeCount)

	entries, err = f.store.LikedWallpapers(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestToggleLikeUnknownActor(t *testing.T) {
	f := newFixture(t)
	w := f.seed(t, models.PartitionUser, "like me", 1)

	_, err := f.engagement.ToggleLike(context.Background(), w.ID, "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

// failingLikeStore fails the like transaction before it commits anything.
type failingLikeStore struct {
	*memory.Store
}

func (failingLikeStore) ToggleLike(context.Context, models.Partition, string, string) (models.LikeResult, error) {
	return models.LikeResult{}, errors.New("connection reset")
}

func TestToggleLikeStoreFailureIsInternalWithoutPartialState(t *testing.T) {
	f := newFixture(t)
	f.user("alice")
	w := f.seed(t, models.PartitionUser, "like me", 1)
	engagement := NewEngagementService(failingLikeStore{f.store}, nil, zerolog.Nop())

	_, err := engagement.ToggleLike(context.Background(), w.ID, "alice")
	assert.True(t, apperr.Is(err, apperr.KindInternal))

	stored, err := f.aggregate.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.LikedBy)
	assert.Equal(t, int64(0), stored.LikeCount)

	entries, err := f.store.LikedWallpapers(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadCountsEveryCallAndLedgersOnce(t *testing.T) {
	f := newFixture(t)
	w := f.seed(t, models.PartitionCurated, "Mountain View!", 1)

	for i := 1; i <= 3; i++ {
		res, err := f.engagement.Download(context.Background(), w.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(i), res.DownloadCount)
	}
	res, err := f.engagement.Download(context.Background(), w.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.DownloadCount)

	stored, err := f.aggregate.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, stored.DownloadedBy)
	assert.Equal(t, int64(4), stored.DownloadCount)

	u, err := url.Parse(res.URL)
	require.NoError(t, err)
	assert.Equal(t, "media.example.com", u.Host)
	assert.Equal(t, `attachment; filename="Mountain_View_"`, u.Query().Get("response-content-disposition"))
}

type fakeSigner struct {
	err    error
	signed []string
}

func (f *fakeSigner) SignAttachment(_ context.Context, storageID, title string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.signed = append(f.signed, storageID+"|"+title)
	return "https://media.example.com/signed/" + storageID + "?X-Amz-Signature=abc", nil
}

func TestDownloadUsesSignerWhenConfigured(t *testing.T) {
	f := newFixture(t)
	w := f.seed(t, models.PartitionCurated, "Mountain View!", 1)
	signer := &fakeSigner{}
	engagement := NewEngagementService(f.store, signer, zerolog.Nop())

	res, err := engagement.Download(context.Background(), w.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.DownloadCount)
	assert.Equal(t, []string{w.MediaRefs[0].StorageID + "|Mountain View!"}, signer.signed)
	assert.Contains(t, res.URL, "X-Amz-Signature=")
}

func TestDownloadSigningFailureCountsNothing(t *testing.T) {
	f := newFixture(t)
	w := f.seed(t, models.PartitionCurated, "sky", 1)
	engagement := NewEngagementService(f.store, &fakeSigner{err: errors.New("no credentials")}, zerolog.Nop())

	_, err := engagement.Download(context.Background(), w.ID, "alice")
	assert.True(t, apperr.Is(err, apperr.KindInternal))

	stored, err := f.aggregate.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.DownloadCount)
	assert.Empty(t, stored.DownloadedBy)
}

func TestDownloadUnapprovedCuratedIsForbidden(t *testing.T) {
	f := newFixture(t)
	curated := f.seed(t, models.PartitionCurated, "hidden", 1, withState(models.StatePending))
	user := f.seed(t, models.PartitionUser, "pending upload", 2, withState(models.StatePending))

	_, err := f.engagement.Download(context.Background(), curated.ID, "alice")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	stored, err := f.aggregate.GetByID(context.Background(), curated.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.DownloadCount)

	res, err := f.engagement.Download(context.Background(), user.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.DownloadCount)
}

func TestDownloadMalformedMediaURLIsInternal(t *testing.T) {
	f := newFixture(t)
	w := f.seed(t, models.PartitionUser, "broken", 1, withMedia(models.MediaRef{URL: "::not a url", StorageID: "x"}))

	_, err := f.engagement.Download(context.Background(), w.ID, "alice")
	assert.True(t, apperr.Is(err, apperr.KindInternal))

	stored, err := f.aggregate.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.DownloadCount)
}

func TestDownloadMissingItem(t *testing.T) {
	f := newFixture(t)
	w := f.seed(t, models.PartitionUser, "gone", 1)
	require.NoError(t, f.store.Delete(context.Background(), models.PartitionUser, w.ID))

	_, err := f.engagement.Download(context.Background(), w.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
