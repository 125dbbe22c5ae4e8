package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wallhub/internal/middleware"
	"wallhub/internal/models"
	"wallhub/internal/service"
)

func (h HandlerSet) ListWallpapers(c *gin.Context) {
	filter, err := service.ParseListFilter(c.Query("filter"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	page, limit := pagination(c)

	result, err := h.services.Aggregate.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(result))
}

func (h HandlerSet) SearchWallpapers(c *gin.Context) {
	page, limit := pagination(c)

	result, err := h.services.Aggregate.Search(c.Request.Context(), c.Query("query"), page, limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(result))
}

func (h HandlerSet) GetWallpaper(c *gin.Context) {
	w, err := h.services.Aggregate.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toWallpaperResponse(w))
}

func (h HandlerSet) RelatedWallpapers(c *gin.Context) {
	limit := min(queryInt(c, "limit", 0), maxLimit)

	items, err := h.services.Aggregate.Related(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toWallpaperResponses(items)})
}

func (h HandlerSet) ViewWallpaper(c *gin.Context) {
	result, err := h.services.Engagement.View(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"viewCount": result.ViewCount,
		"counted":   result.Counted,
	})
}

func (h HandlerSet) LikeWallpaper(c *gin.Context) {
	result, err := h.services.Engagement.ToggleLike(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"liked":     result.Liked,
		"likeCount": result.LikeCount,
	})
}

// DownloadWallpaper counts the download and returns a URL that makes the
// media host serve the first file as an attachment.
func (h HandlerSet) DownloadWallpaper(c *gin.Context) {
	result, err := h.services.Engagement.Download(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"downloadCount": result.DownloadCount,
		"url":           result.URL,
	})
}

func (h HandlerSet) UploadWallpaper(c *gin.Context) {
	h.upload(c, models.PartitionUser, "files[]")
}

type editRequest struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func (h HandlerSet) EditWallpaper(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	w, err := h.services.Moderation.Edit(c.Request.Context(), c.Param("id"), middleware.ActorID(c), service.EditInput{
		Title:    req.Title,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toWallpaperResponse(w))
}

func (h HandlerSet) DeleteWallpaper(c *gin.Context) {
	if err := h.services.Moderation.Delete(c.Request.Context(), c.Param("id"), middleware.ActorID(c)); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
