// Package nutrition runs the meal photo pipeline: store the image, ask the
// model for a nutrition estimate, persist the Image with one Measurement per
// catalog nutrient, and read or delete the results.
package nutrition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"healcheck-back/internal/inference"
	"healcheck-back/internal/metrics"
	"healcheck-back/internal/models"
	"healcheck-back/internal/storage"
)

// DefaultConfidence is attached to every measurement until the model reports its own.
const DefaultConfidence = 0.95

// OwnerDirectory answers whether an account exists.
type OwnerDirectory interface {
	OwnerExists(ctx context.Context, id uint) (bool, error)
}

// BlobStore is the subset of storage.Store the pipeline uses.
type BlobStore interface {
	Put(ctx context.Context, ownerID uint, data []byte, fileName string) (storage.Object, error)
	Delete(ctx context.Context, locator string) error
}

// Analyzer produces an estimate for a stored image, or false when none is available.
type Analyzer interface {
	Analyze(ctx context.Context, locator string) (inference.Estimate, bool)
}

type Options struct {
	// Confidence in [0,1] recorded on each measurement. Zero means DefaultConfidence.
	Confidence float64
	// PublicBaseURL prefixes derived image URLs, e.g. https://api.example.com.
	PublicBaseURL string
	Metrics       *metrics.PipelineMetrics
	Logger        *slog.Logger
}

type Service struct {
	repo          *Repository
	owners        OwnerDirectory
	blobs         BlobStore
	analyzer      Analyzer
	catalog       *Catalog
	confidence    float64
	publicBaseURL string
	metrics       *metrics.PipelineMetrics
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(repo *Repository, owners OwnerDirectory, blobs BlobStore, analyzer Analyzer, catalog *Catalog, opts Options) *Service {
	confidence := opts.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = DefaultConfidence
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:          repo,
		owners:        owners,
		blobs:         blobs,
		analyzer:      analyzer,
		catalog:       catalog,
		confidence:    confidence,
		publicBaseURL: opts.PublicBaseURL,
		metrics:       opts.Metrics,
		logger:        logger.With("component", "nutrition"),
		now:           time.Now,
	}
}

// UploadAndAnalyze stores the image, analyzes it and persists the result.
// When no estimate is available the Image is still recorded, without
// nutrition data or measurements.
func (s *Service) UploadAndAnalyze(ctx context.Context, ownerID uint, data []byte, fileName string) (*ImageAnalysis, error) {
	exists, err := s.owners.OwnerExists(ctx, ownerID)
	if err != nil {
		s.metrics.ObserveUpload(metrics.OutcomePersistenceFailure)
		return nil, fmt.Errorf("%w: checking owner %d: %w", ErrPersistenceFailure, ownerID, err)
	}
	if !exists {
		s.metrics.ObserveUpload(metrics.OutcomeOwnerNotFound)
		return nil, fmt.Errorf("%w: %d", ErrOwnerNotFound, ownerID)
	}

	obj, err := s.blobs.Put(ctx, ownerID, data, fileName)
	if err != nil {
		s.metrics.ObserveUpload(metrics.OutcomeStorageFailure)
		return nil, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	start := time.Now()
	est, ok := s.analyzer.Analyze(ctx, obj.Locator)
	s.metrics.ObserveInference(time.Since(start).Seconds(), ok)

	now := s.now()
	img := &models.Image{
		UserID:     ownerID,
		Path:       obj.PublicPath,
		StorageKey: obj.Locator,
		CreatedAt:  now,
	}

	outcome := metrics.OutcomeFallback
	if ok {
		outcome = metrics.OutcomeAnalyzed
		img.Kcal = &est.Calories
		img.FoodName = &est.FoodName
		img.AISuggestion = &est.Suggestion
		err = s.repo.CreateAnalyzedImage(ctx, img, s.measurementsFor(est, now))
	} else {
		err = s.repo.CreateImage(ctx, img)
	}
	if err != nil {
		s.metrics.ObserveUpload(metrics.OutcomePersistenceFailure)
		s.discardBlob(ctx, obj)
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	s.metrics.ObserveUpload(outcome)
	s.logger.InfoContext(ctx, "image stored",
		"image_id", img.ID,
		"owner_id", ownerID,
		"analyzed", ok)

	result, err := s.GetAnalysis(ctx, img.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: reloading image %d: %w", ErrPersistenceFailure, img.ID, err)
	}
	return result, nil
}

// measurementsFor maps the estimate onto the catalog, one row per nutrient.
func (s *Service) measurementsFor(est inference.Estimate, at time.Time) []models.Measurement {
	values := map[string]float64{
		models.NutrientCalories:     est.Calories,
		models.NutrientProtein:      est.Protein,
		models.NutrientFat:          est.Fat,
		models.NutrientCarbohydrate: est.Carbohydrate,
	}

	entries := s.catalog.Entries()
	out := make([]models.Measurement, 0, len(entries))
	for _, e := range entries {
		confidence := s.confidence
		out = append(out, models.Measurement{
			NutrientID: e.ID,
			Value:      values[e.Name],
			Confidence: &confidence,
			CreatedAt:  at,
		})
	}
	return out
}

// discardBlob removes a stored file whose Image row could not be written.
func (s *Service) discardBlob(ctx context.Context, obj storage.Object) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), obj.Locator); err != nil {
		s.metrics.IncFileCleanupErrors()
		s.logger.WarnContext(ctx, "failed to remove orphaned upload", "path", obj.PublicPath, "error", err)
	}
}

// GetAnalysis returns the analysis for one image, or ErrImageNotFound.
func (s *Service) GetAnalysis(ctx context.Context, imageID uint) (*ImageAnalysis, error) {
	img, err := s.repo.FindImage(ctx, imageID)
	if errors.Is(err, ErrImageNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	result := toAnalysis(img, s.publicBaseURL)
	return &result, nil
}

// ListAnalyses returns all analyses, or only those of ownerID when it is non-nil.
func (s *Service) ListAnalyses(ctx context.Context, ownerID *uint) ([]ImageAnalysis, error) {
	images, err := s.repo.ListImages(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	out := make([]ImageAnalysis, 0, len(images))
	for i := range images {
		out = append(out, toAnalysis(&images[i], s.publicBaseURL))
	}
	return out, nil
}

// DeleteImage removes an image, its measurements and, best effort, its stored
// file. It reports false when the image does not exist.
func (s *Service) DeleteImage(ctx context.Context, imageID uint) (bool, error) {
	img, err := s.repo.FindImage(ctx, imageID)
	if errors.Is(err, ErrImageNotFound) {
		s.metrics.ObserveDeletion(metrics.DeleteNotFound)
		return false, nil
	}
	if err != nil {
		s.metrics.ObserveDeletion(metrics.DeleteFailed)
		return false, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	if img.StorageKey != "" {
		if err := s.blobs.Delete(ctx, img.StorageKey); err != nil {
			s.metrics.IncFileCleanupErrors()
			s.logger.WarnContext(ctx, "failed to delete stored image file",
				"image_id", img.ID,
				"path", img.Path,
				"error", err)
		}
	}

	err = s.repo.DeleteImage(ctx, imageID)
	if errors.Is(err, ErrImageNotFound) {
		// removed concurrently
		s.metrics.ObserveDeletion(metrics.DeleteNotFound)
		return false, nil
	}
	if err != nil {
		s.metrics.ObserveDeletion(metrics.DeleteFailed)
		return false, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	s.metrics.ObserveDeletion(metrics.DeleteDeleted)
	return true, nil
}
