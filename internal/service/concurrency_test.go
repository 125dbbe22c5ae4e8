package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallhub/internal/models"
)

func TestConcurrentViewsBySameActorCountOnce(t *testing.T) {
	f := newFixture(t)
	w := f.seed(t, models.PartitionUser, "busy", 1)

	const workers = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		counted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.engagement.View(context.Background(), w.ID, "alice")
			assert.NoError(t, err)
			if result.Counted {
				mu.Lock()
				counted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, counted)
	stored, err := f.aggregate.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ViewCount)
	assert.Equal(t, []string{"alice"}, stored.ViewedBy)
}

func TestConcurrentToggleLikeKeepsLedgerAndMirrorInStep(t *testing.T) {
	f := newFixture(t)
	w := f.seed(t, models.PartitionCurated, "popular", 1)

	const actors = 10
	names := make([]string, actors)
	for i := range names {
		names[i] = fmt.Sprintf("actor-%d", i)
		f.user(names[i])
	}
	f.user("flipper")

	var wg sync.WaitGroup
	toggle := func(actor string) {
		defer wg.Done()
		_, err := f.engagement.ToggleLike(context.Background(), w.ID, actor)
		assert.NoError(t, err)
	}
	// Each named actor toggles three times and ends liked; flipper toggles
	// an even number of times and ends where it started.
	for _, actor := range names {
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go toggle(actor)
		}
	}
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go toggle("flipper")
	}
	wg.Wait()

	stored, err := f.aggregate.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(len(stored.LikedBy)), stored.LikeCount)
	assert.ElementsMatch(t, names, stored.LikedBy)

	for _, actor := range names {
		entries, err := f.store.LikedWallpapers(context.Background(), actor)
		require.NoError(t, err)
		require.Len(t, entries, 1, actor)
		assert.Equal(t, w.ID, entries[0].WallpaperID)
	}
	entries, err := f.store.LikedWallpapers(context.Background(), "flipper")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConcurrentCreatesGetUniqueSlugs(t *testing.T) {
	f := newFixture(t)

	const workers = 20
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		slugs = make(map[string]int)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := f.moderation.Create(context.Background(), userInput("Mountain View"))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			slugs[created.Slug]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, slugs, workers)
	assert.Contains(t, slugs, "mountain-view")
	for slug, n := range slugs {
		assert.Equal(t, 1, n, slug)
	}
}
