package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"wallhub/internal/apperr"
	"wallhub/internal/middleware"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindInvalidArgument: http.StatusBadRequest,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindConflict:        http.StatusConflict,
}

// writeError renders err as {"error": {"code", "message"}}. Internal errors
// are logged and masked.
func writeError(c *gin.Context, log zerolog.Logger, err error) {
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		log.Error().Err(err).
			Str("request_id", middleware.RequestIDFrom(c)).
			Str("route", c.FullPath()).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"code": "internal_server_error", "message": "internal_server_error"},
		})
		return
	}

	c.JSON(status, gin.H{
		"error": gin.H{"code": string(kind), "message": apperr.MessageOf(err)},
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{"code": string(apperr.KindInvalidArgument), "message": message},
	})
}

// pagination reads page and limit leniently: unparsable values fall back to
// the defaults and limit is capped.
func pagination(c *gin.Context) (page, limit int) {
	page = queryInt(c, "page", 1)
	limit = queryInt(c, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
