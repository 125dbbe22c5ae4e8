package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wallhub/internal/middleware"
	"wallhub/internal/models"
	"wallhub/internal/service"
)

type registerRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	AccessToken string       `json:"accessToken"`
	User        userResponse `json:"user"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	result, err := h.services.Auth.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	sendAuthResponse(c, http.StatusCreated, result)
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	result, err := h.services.Auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	sendAuthResponse(c, http.StatusOK, result)
}

func sendAuthResponse(c *gin.Context, status int, result service.AuthResult) {
	c.JSON(status, authResponse{
		AccessToken: result.AccessToken,
		User:        toUserResponse(result.User),
	})
}

func (h HandlerSet) Me(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	if identity.Role == models.UserRoleAdmin && identity.ActorID == models.CuratedOwner {
		c.JSON(http.StatusOK, gin.H{"user": userResponse{
			ID:          models.CuratedOwner,
			Email:       h.cfg.Admin.Email,
			DisplayName: "Administrator",
			Role:        string(models.UserRoleAdmin),
			Status:      string(models.UserStatusActive),
		}})
		return
	}

	user, err := h.services.Auth.Me(c.Request.Context(), identity.ActorID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}
