package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"wallhub/internal/ids"
	"wallhub/internal/models"
	"wallhub/internal/repository/memory"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeSink struct {
	mu        sync.Mutex
	n         int
	objects   map[string][]byte
	deleted   []string
	deleteErr error
}

func newFakeSink() *fakeSink {
	return &fakeSink{objects: make(map[string][]byte)}
}

func (f *fakeSink) Put(_ context.Context, id, ext, _ string, body io.Reader, _ int64) (models.MediaRef, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return models.MediaRef{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	key := fmt.Sprintf("wallpapers/%s.%s", id, ext)
	f.objects[key] = data
	return models.MediaRef{URL: "https://media.example.com/bucket/" + key, StorageID: key}, nil
}

func (f *fakeSink) Delete(_ context.Context, storageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, storageID)
	f.deleted = append(f.deleted, storageID)
	return nil
}

type purgeCall struct {
	wallpaperID string
	storageIDs  []string
}

type fakePurger struct {
	calls []purgeCall
	err   error
}

func (f *fakePurger) EnqueuePurge(_ context.Context, wallpaperID string, storageIDs []string) error {
	f.calls = append(f.calls, purgeCall{wallpaperID: wallpaperID, storageIDs: storageIDs})
	return f.err
}

// fakeCache keys pages by generation the way the redis cache does;
// Invalidate retires the current generation.
type fakeCache struct {
	mu          sync.Mutex
	gen         int64
	pages       map[string]Page
	hits        int
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{pages: make(map[string]Page)}
}

func (f *fakeCache) Get(_ context.Context, key string, dst any) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page, ok := f.pages[fmt.Sprintf("%d:%s", f.gen, key)]
	if !ok {
		return f.gen, false, nil
	}
	f.hits++
	*dst.(*Page) = page
	return f.gen, true, nil
}

func (f *fakeCache) Set(_ context.Context, gen int64, key string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[fmt.Sprintf("%d:%s", gen, key)] = value.(Page)
	return nil
}

func (f *fakeCache) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	f.gen++
	return nil
}

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	now := epoch
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type fixture struct {
	store      *memory.Store
	sink       *fakeSink
	purger     *fakePurger
	aggregate  *AggregationService
	engagement *EngagementService
	moderation *ModerationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	sink := newFakeSink()
	purger := &fakePurger{}
	log := zerolog.Nop()

	moderation := NewModerationService(store, sink, purger, nil, log)
	moderation.now = stepClock()

	return &fixture{
		store:      store,
		sink:       sink,
		purger:     purger,
		aggregate:  NewAggregationService(store, nil, log),
		engagement: NewEngagementService(store, nil, log),
		moderation: moderation,
	}
}

type seedOption func(*models.Wallpaper)

func withState(state models.LifecycleState) seedOption {
	return func(w *models.Wallpaper) {
		w.LifecycleState = state
		w.IsApproved = state == models.StateApproved
	}
}

func withCategory(category string, tags ...string) seedOption {
	return func(w *models.Wallpaper) {
		w.Category = category
		w.Tags = tags
	}
}

func withOwner(owner string) seedOption {
	return func(w *models.Wallpaper) { w.Owner = owner }
}

func withMedia(refs ...models.MediaRef) seedOption {
	return func(w *models.Wallpaper) { w.MediaRefs = refs }
}

// seed writes an item straight into the store, bypassing moderation, so a
// test controls timestamps and lifecycle. Items are approved unless an
// option says otherwise; minute offsets from epoch order them.
func (f *fixture) seed(t *testing.T, partition models.Partition, title string, minute int, opts ...seedOption) models.Wallpaper {
	t.Helper()
	created := epoch.Add(time.Duration(minute) * time.Minute)
	id := ids.New()
	w := models.Wallpaper{
		ID:             id,
		Partition:      partition,
		Title:          title,
		Category:       "nature",
		Tags:           []string{},
		MediaRefs:      []models.MediaRef{{URL: "https://media.example.com/bucket/" + id + ".jpg", StorageID: id + ".jpg"}},
		MediaKind:      models.MediaImage,
		Owner:          "owner-1",
		LifecycleState: models.StateApproved,
		IsApproved:     true,
		Slug:           id,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	if partition == models.PartitionCurated {
		w.Owner = models.CuratedOwner
	}
	for _, opt := range opts {
		opt(&w)
	}
	require.NoError(t, f.store.Create(context.Background(), w))
	stored, err := f.store.Get(context.Background(), partition, id)
	require.NoError(t, err)
	return stored
}

func (f *fixture) user(id string) {
	f.store.PutUser(models.User{ID: id, Email: id + "@example.com", Role: models.UserRoleUser, Status: models.UserStatusActive})
}

func titles(items []models.Wallpaper) []string {
	out := make([]string, 0, len(items))
	for _, w := range items {
		out = append(out, w.Title)
	}
	return out
}
