package nutrition

import (
	"context"
	"errors"
	"fmt"

	"healcheck-back/internal/models"

	"gorm.io/gorm"
)

// Repository persists Image aggregates and their Measurements.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateImage stores an Image without measurements.
func (r *Repository) CreateImage(ctx context.Context, img *models.Image) error {
	if err := r.db.WithContext(ctx).Omit("Measurements").Create(img).Error; err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	return nil
}

// CreateAnalyzedImage stores an Image and its measurements in one transaction.
func (r *Repository) CreateAnalyzedImage(ctx context.Context, img *models.Image, measurements []models.Measurement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Measurements").Create(img).Error; err != nil {
			return fmt.Errorf("failed to create image: %w", err)
		}
		for i := range measurements {
			measurements[i].ImageID = img.ID
		}
		if err := tx.Omit("Nutrient").Create(&measurements).Error; err != nil {
			return fmt.Errorf("failed to create measurements: %w", err)
		}
		return nil
	})
}

func withMeasurements(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Measurements", func(db *gorm.DB) *gorm.DB { return db.Order("nutrient_id") }).
		Preload("Measurements.Nutrient")
}

// FindImage loads an Image with its measurements and their nutrients.
func (r *Repository) FindImage(ctx context.Context, id uint) (*models.Image, error) {
	var img models.Image
	err := withMeasurements(r.db.WithContext(ctx)).First(&img, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load image %d: %w", id, err)
	}
	return &img, nil
}

// ListImages loads all Images, optionally only those of one owner, newest first.
func (r *Repository) ListImages(ctx context.Context, ownerID *uint) ([]models.Image, error) {
	q := withMeasurements(r.db.WithContext(ctx))
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}

	var images []models.Image
	if err := q.Order("created_at DESC").Order("id DESC").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

// DeleteImage removes an Image and its measurements atomically.
func (r *Repository) DeleteImage(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("image_id = ?", id).Delete(&models.Measurement{}).Error; err != nil {
			return fmt.Errorf("failed to delete measurements: %w", err)
		}
		res := tx.Delete(&models.Image{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete image: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrImageNotFound
		}
		return nil
	})
}
