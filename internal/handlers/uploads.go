package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"wallhub/internal/apperr"
	"wallhub/internal/content"
	"wallhub/internal/middleware"
	"wallhub/internal/models"
	"wallhub/internal/service"
)

// readUpload parses a multipart request into an upload. The returned func
// closes the opened parts and must be called once the upload is done.
func (h HandlerSet) readUpload(c *gin.Context, partition models.Partition, field string) (service.UploadInput, func(), error) {
	const op = "read upload"
	if limit := h.cfg.HTTP.MaxUploadBytes; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.UploadInput{}, nil, apperr.InvalidArgument(op, "request too large")
		}
		return service.UploadInput{}, nil, apperr.InvalidArgument(op, "multipart form required")
	}

	headers := form.File[field]
	if len(headers) == 0 {
		return service.UploadInput{}, nil, apperr.InvalidArgument(op, field+" is required")
	}

	var opened []multipart.File
	release := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	files := make([]service.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			release()
			return service.UploadInput{}, nil, apperr.InvalidArgument(op, "invalid file payload")
		}
		opened = append(opened, f)
		files = append(files, service.UploadFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        f,
		})
	}

	return service.UploadInput{
		Partition:   partition,
		Owner:       middleware.ActorID(c),
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Tags:        content.ParseTags(c.PostForm("tags")),
		Files:       files,
	}, release, nil
}

func (h HandlerSet) upload(c *gin.Context, partition models.Partition, field string) {
	input, release, err := h.readUpload(c, partition, field)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	defer release()

	w, err := h.services.Upload.Upload(c.Request.Context(), input)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, toWallpaperResponse(w))
}
