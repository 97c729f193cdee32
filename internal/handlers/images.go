// internal/handlers/images.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"healcheck-back/internal/middleware"
	"healcheck-back/internal/nutrition"
	"healcheck-back/pkg/imaging"

	"github.com/gin-gonic/gin"
)

// writeServiceError maps pipeline outcomes to HTTP responses.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, nutrition.ErrOwnerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, nutrition.ErrImageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
	case errors.Is(err, nutrition.ErrStorageFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to store image"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image analysis"})
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

func UploadImage(svc *nutrition.Service, maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = imaging.DefaultMaxBytes
	}

	return func(c *gin.Context) {
		userID := c.GetUint(middleware.UserIDKey)

		ownerID := userID
		if raw := c.PostForm("user_id"); raw != "" {
			id, err := parseID(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
				return
			}
			if id != userID {
				c.JSON(http.StatusForbidden, gin.H{"error": "Cannot upload images for another user"})
				return
			}
			ownerID = id
		}

		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": imaging.ErrEmptyFile.Error()})
			return
		}
		if file.Size > maxBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s (%d MB)", imaging.ErrTooLarge, maxBytes>>20)})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}

		if err := imaging.ValidateUpload(file.Filename, data, maxBytes); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := svc.UploadAndAnalyze(c.Request.Context(), ownerID, data, file.Filename)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func GetImage(svc *nutrition.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image id"})
			return
		}

		result, err := svc.GetAnalysis(c.Request.Context(), id)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// ListImages returns every analysis, or one user's when ?user_id= is given.
func ListImages(svc *nutrition.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ownerID *uint
		if raw := c.Query("user_id"); raw != "" {
			id, err := parseID(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
				return
			}
			ownerID = &id
		}

		results, err := svc.ListAnalyses(c.Request.Context(), ownerID)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, results)
	}
}

func DeleteImage(svc *nutrition.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image id"})
			return
		}

		deleted, err := svc.DeleteImage(c.Request.Context(), id)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		if !deleted {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Image deleted"})
	}
}
