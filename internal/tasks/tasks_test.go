package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	published []map[string]any
}

func (f *fakePublisher) Publish(_ context.Context, values map[string]any) (string, error) {
	f.published = append(f.published, values)
	return "1-0", nil
}

type fakeRemover struct {
	deleted []string
	fail    map[string]bool
}

func (f *fakeRemover) Delete(_ context.Context, storageID string) error {
	if f.fail[storageID] {
		return errors.New("boom")
	}
	f.deleted = append(f.deleted, storageID)
	return nil
}

type fakeReconciler struct {
	calls int
}

func (f *fakeReconciler) ReconcileCounters(context.Context) (int64, error) {
	f.calls++
	return 3, nil
}

func TestQueueEncodesPurge(t *testing.T) {
	pub := &fakePublisher{}
	q := NewQueue(pub)

	require.NoError(t, q.EnqueuePurge(context.Background(), "w1", []string{"a", "b"}))
	require.NoError(t, q.EnqueuePurge(context.Background(), "w2", nil))
	require.Len(t, pub.published, 1)

	task, err := Decode(pub.published[0])
	require.NoError(t, err)
	assert.Equal(t, Task{Type: TypePurgeMedia, WallpaperID: "w1", StorageIDs: []string{"a", "b"}}, task)
}

func TestProcessorPurgesEveryStorageID(t *testing.T) {
	remover := &fakeRemover{fail: map[string]bool{"b": true}}
	p := NewProcessor(remover, &fakeReconciler{}, zerolog.Nop())

	err := p.Handle(context.Background(), message(t, Task{Type: TypePurgeMedia, WallpaperID: "w1", StorageIDs: []string{"a", "b", "c"}}))
	assert.Error(t, err)
	assert.Equal(t, []string{"a", "c"}, remover.deleted)
}

func TestProcessorReconciles(t *testing.T) {
	reconciler := &fakeReconciler{}
	p := NewProcessor(&fakeRemover{}, reconciler, zerolog.Nop())

	require.NoError(t, p.Handle(context.Background(), message(t, Task{Type: TypeReconcileCounters})))
	assert.Equal(t, 1, reconciler.calls)
}

func TestProcessorDropsMalformedEntries(t *testing.T) {
	p := NewProcessor(&fakeRemover{}, &fakeReconciler{}, zerolog.Nop())

	err := p.Handle(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]interface{}{"type": "purge_media"}})
	assert.NoError(t, err)
}

func message(t *testing.T, task Task) redis.XMessage {
	t.Helper()
	values, err := Encode(task)
	require.NoError(t, err)
	return redis.XMessage{ID: "1-0", Values: values}
}
