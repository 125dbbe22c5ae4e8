package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wallhub/internal/models"
	"wallhub/internal/service"
)

func (h HandlerSet) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	result, err := h.services.Auth.AdminLogin(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	sendAuthResponse(c, http.StatusOK, result)
}

// AdminUploadWallpaper publishes a curated item; curated items skip review.
func (h HandlerSet) AdminUploadWallpaper(c *gin.Context) {
	h.upload(c, models.PartitionCurated, "file")
}

func (h HandlerSet) AdminPendingWallpapers(c *gin.Context) {
	page, limit := pagination(c)

	result, err := h.services.Moderation.ListPending(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(result))
}

func (h HandlerSet) AdminApproveWallpaper(c *gin.Context) {
	w, err := h.services.Moderation.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toWallpaperResponse(w))
}

func (h HandlerSet) AdminRejectWallpaper(c *gin.Context) {
	if err := h.services.Moderation.Reject(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
