// internal/handlers/files.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"healcheck-back/internal/storage"
	"healcheck-back/pkg/imaging"

	"github.com/gin-gonic/gin"
)

// ServeUpload streams a stored image by its public name.
func ServeUpload(store storage.Store, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")

		locator, err := store.Locate(name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}

		rc, size, err := store.Open(c.Request.Context(), locator)
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		if err != nil {
			logger.WarnContext(c.Request.Context(), "failed to open stored image", "name", name, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to get file"})
			return
		}
		defer rc.Close()

		c.DataFromReader(http.StatusOK, size, imaging.MimeType(name), rc, map[string]string{
			"Cache-Control": "public, max-age=86400",
		})
	}
}
