package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"skoropad/internal/infra/storage/s3"
)

type UploadHTTP interface {
	UploadImage(c *gin.Context)
}

// UploadHandler accepts advertisement images and returns their public URLs.
type UploadHandler struct {
	Uploader s3.Uploader
	Logger   *slog.Logger
}

func (h UploadHandler) UploadImage(c *gin.Context) {
	p, ok := requireSignIn(c)
	if !ok {
		return
	}
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage unavailable"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	contentType := file.Header.Get("Content-Type")
	if err := s3.ValidateImage(contentType, file.Size); err != nil {
		h.respondUploadError(c, err)
		return
	}

	reader, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image"})
		return
	}
	defer reader.Close()

	key := s3.ImageKey(string(p.ID()), file.Filename)
	url, err := h.Uploader.Upload(c.Request.Context(), key, reader, contentType)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("image upload failed", "key", key, "error", err)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "image storage unavailable"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func (h UploadHandler) respondUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, s3.ErrNotAnImage):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only images are accepted"})
	case errors.Is(err, s3.ErrImageTooBig):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds 5MB"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
	}
}

var _ UploadHTTP = (*UploadHandler)(nil)
