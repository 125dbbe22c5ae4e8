package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wallhub/internal/middleware"
)

func (h HandlerSet) MyWallpapers(c *gin.Context) {
	page, limit := pagination(c)

	result, err := h.services.Aggregate.ListByOwner(c.Request.Context(), middleware.ActorID(c), page, limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(result))
}

func (h HandlerSet) MyWallpaper(c *gin.Context) {
	w, err := h.services.Aggregate.GetOwned(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toWallpaperResponse(w))
}

func (h HandlerSet) MyLikes(c *gin.Context) {
	items, err := h.services.Aggregate.LikedWallpapers(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toWallpaperResponses(items)})
}
