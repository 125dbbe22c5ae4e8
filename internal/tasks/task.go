package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type Type string

const (
	TypePurgeMedia        Type = "purge_media"
	TypeReconcileCounters Type = "reconcile_counters"
)

// Task is the payload carried by one stream entry.
type Task struct {
	Type        Type     `json:"type"`
	WallpaperID string   `json:"wallpaperId,omitempty"`
	StorageIDs  []string `json:"storageIds,omitempty"`
}

const payloadField = "payload"

// Encode produces stream entry values; the task body travels as one JSON
// field since stream values are flat strings.
func Encode(task Task) (map[string]any, error) {
	raw, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":       string(task.Type),
		payloadField: string(raw),
	}, nil
}

func Decode(values map[string]interface{}) (Task, error) {
	raw, ok := values[payloadField].(string)
	if !ok {
		return Task{}, errors.New("missing payload field")
	}
	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return Task{}, fmt.Errorf("decode payload: %w", err)
	}
	return task, nil
}

type publisher interface {
	Publish(ctx context.Context, values map[string]any) (string, error)
}

// Queue enqueues typed tasks on the worker stream.
type Queue struct {
	pub publisher
}

func NewQueue(pub publisher) *Queue {
	return &Queue{pub: pub}
}

func (q *Queue) EnqueuePurge(ctx context.Context, wallpaperID string, storageIDs []string) error {
	if len(storageIDs) == 0 {
		return nil
	}
	return q.enqueue(ctx, Task{Type: TypePurgeMedia, WallpaperID: wallpaperID, StorageIDs: storageIDs})
}

func (q *Queue) EnqueueReconcile(ctx context.Context) error {
	return q.enqueue(ctx, Task{Type: TypeReconcileCounters})
}

func (q *Queue) enqueue(ctx context.Context, task Task) error {
	values, err := Encode(task)
	if err != nil {
		return fmt.Errorf("encode %s: %w", task.Type, err)
	}
	_, err = q.pub.Publish(ctx, values)
	return err
}
