package models

import "time"

type Partition string

const (
	PartitionUser    Partition = "user"
	PartitionCurated Partition = "curated"
)

func (p Partition) Valid() bool {
	return p == PartitionUser || p == PartitionCurated
}

type LifecycleState string

const (
	StatePending  LifecycleState = "pending"
	StateApproved LifecycleState = "approved"
	StateRejected LifecycleState = "rejected"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// CuratedOwner marks admin-owned items; it never refers to a user row.
const CuratedOwner = "admin"

type MediaRef struct {
	URL       string `json:"url"`
	StorageID string `json:"storageId"`
}

type Wallpaper struct {
	ID             string
	Partition      Partition
	Title          string
	Description    string
	Category       string
	Tags           []string
	MediaRefs      []MediaRef
	Resolution     string
	ByteSize       int64
	MediaKind      MediaKind
	Owner          string
	LifecycleState LifecycleState
	IsApproved     bool
	Slug           string
	LikeCount      int64
	DownloadCount  int64
	ViewCount      int64
	LikedBy        []string
	ViewedBy       []string
	DownloadedBy   []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StorageIDs lists the sink references in media order.
func (w Wallpaper) StorageIDs() []string {
	out := make([]string, 0, len(w.MediaRefs))
	for _, ref := range w.MediaRefs {
		out = append(out, ref.StorageID)
	}
	return out
}

// LikedWallpaper is the actor-side mirror of a Wallpaper's LikedBy ledger.
type LikedWallpaper struct {
	WallpaperID string
	Partition   Partition
	LikedAt     time.Time
}
