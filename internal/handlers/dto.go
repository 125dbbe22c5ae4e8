package handlers

import (
	"time"

	"wallhub/internal/models"
	"wallhub/internal/service"
)

type mediaRefResponse struct {
	URL       string `json:"url"`
	StorageID string `json:"storageId"`
}

type wallpaperResponse struct {
	ID             string             `json:"id"`
	Partition      string             `json:"partition"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Category       string             `json:"category"`
	Tags           []string           `json:"tags"`
	MediaRefs      []mediaRefResponse `json:"mediaRefs"`
	Resolution     string             `json:"resolution"`
	ByteSize       int64              `json:"byteSize"`
	MediaKind      string             `json:"mediaKind"`
	Owner          string             `json:"owner"`
	LifecycleState string             `json:"lifecycleState"`
	IsApproved     bool               `json:"isApproved"`
	Slug           string             `json:"slug"`
	LikeCount      int64              `json:"likeCount"`
	DownloadCount  int64              `json:"downloadCount"`
	ViewCount      int64              `json:"viewCount"`
	LikedBy        []string           `json:"likedBy"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

func toWallpaperResponse(w models.Wallpaper) wallpaperResponse {
	refs := make([]mediaRefResponse, 0, len(w.MediaRefs))
	for _, ref := range w.MediaRefs {
		refs = append(refs, mediaRefResponse{URL: ref.URL, StorageID: ref.StorageID})
	}
	tags := w.Tags
	if tags == nil {
		tags = []string{}
	}
	likedBy := w.LikedBy
	if likedBy == nil {
		likedBy = []string{}
	}

	return wallpaperResponse{
		ID:             w.ID,
		Partition:      string(w.Partition),
		Title:          w.Title,
		Description:    w.Description,
		Category:       w.Category,
		Tags:           tags,
		MediaRefs:      refs,
		Resolution:     w.Resolution,
		ByteSize:       w.ByteSize,
		MediaKind:      string(w.MediaKind),
		Owner:          w.Owner,
		LifecycleState: string(w.LifecycleState),
		IsApproved:     w.IsApproved,
		Slug:           w.Slug,
		LikeCount:      w.LikeCount,
		DownloadCount:  w.DownloadCount,
		ViewCount:      w.ViewCount,
		LikedBy:        likedBy,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

func toWallpaperResponses(items []models.Wallpaper) []wallpaperResponse {
	out := make([]wallpaperResponse, 0, len(items))
	for _, w := range items {
		out = append(out, toWallpaperResponse(w))
	}
	return out
}

type pageResponse struct {
	Items      []wallpaperResponse `json:"items"`
	TotalCount int                 `json:"totalCount"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"totalPages"`
}

func toPageResponse(p service.Page) pageResponse {
	return pageResponse{
		Items:      toWallpaperResponses(p.Items),
		TotalCount: p.TotalCount,
		Page:       p.Page,
		TotalPages: p.TotalPages,
	}
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		Status:      string(user.Status),
	}
}
