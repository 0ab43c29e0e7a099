package handlers

import (
	"errors"
	"net/http"

	"storefront/firebase"
	"storefront/utils"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	Storage firebase.StorageClient
}

// UploadImage stores the multipart "file" field and returns its public URL.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()

	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "file is required")
		return
	}
	if err := utils.ValidateFileUpload(fh); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Could not read uploaded file")
		return
	}
	defer f.Close()

	url, err := h.Storage.UploadImage(ctx, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, firebase.ErrNotConfigured) {
			respondError(c, http.StatusServiceUnavailable, "Image storage is not configured")
			return
		}
		requestLogger(c).ErrorContext(ctx, "image upload failed", "filename", fh.Filename, "error", err)
		respondError(c, http.StatusBadGateway, "Failed to upload image")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "url": url})
}

// DeleteImage removes an image previously returned by UploadImage (?url=).
func (h *UploadHandler) DeleteImage(c *gin.Context) {
	ctx := c.Request.Context()
	url := c.Query("url")

	err := h.Storage.DeleteFile(ctx, url)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, utils.ErrNotStorageURL):
		respondError(c, http.StatusBadRequest, "url is not a stored image")
	case errors.Is(err, firebase.ErrNotConfigured):
		respondError(c, http.StatusServiceUnavailable, "Image storage is not configured")
	default:
		requestLogger(c).ErrorContext(ctx, "image delete failed", "url", url, "error", err)
		respondError(c, http.StatusBadGateway, "Failed to delete image")
	}
}
