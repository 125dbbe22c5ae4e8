package models

type ViewResult struct {
	ViewCount int64
	// Counted is false when the actor had already viewed the item.
	Counted bool
}

type LikeResult struct {
	Liked     bool
	LikeCount int64
}
