package nutrition

import (
	"testing"
	"time"

	"healcheck-back/internal/database/dbtest"
	"healcheck-back/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func seedMeasurements(values ...float64) []models.Measurement {
	out := make([]models.Measurement, 0, len(values))
	for i, v := range values {
		out = append(out, models.Measurement{NutrientID: uint(i + 1), Value: v, Confidence: ptr(0.95)})
	}
	return out
}

func TestRepository_CreateAnalyzedImageAndFind(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	user := dbtest.CreateUser(t, db, "alice")

	img := &models.Image{
		UserID:     user.ID,
		Path:       "/uploads/a.jpg",
		StorageKey: "/data/a.jpg",
		Kcal:       ptr(450.0),
		FoodName:   ptr("Pho"),
	}
	// insert out of catalog order; reads come back sorted by nutrient
	ms := seedMeasurements(450, 25, 12, 55)
	ms[0], ms[3] = ms[3], ms[0]
	require.NoError(t, repo.CreateAnalyzedImage(testContext(t), img, ms))
	require.NotZero(t, img.ID)

	got, err := repo.FindImage(testContext(t), img.ID)
	require.NoError(t, err)
	require.Len(t, got.Measurements, 4)
	for i, m := range got.Measurements {
		assert.Equal(t, img.ID, m.ImageID)
		assert.EqualValues(t, i+1, m.NutrientID)
		assert.Equal(t, m.NutrientID, m.Nutrient.ID, "nutrient preloaded")
	}
	assert.Equal(t, "Calories", got.Measurements[0].Nutrient.Name)
	assert.InDelta(t, 450, got.Measurements[0].Value, 1e-9)
	assert.Equal(t, "Carbohydrate", got.Measurements[3].Nutrient.Name)
	assert.InDelta(t, 55, got.Measurements[3].Value, 1e-9)
}

func TestRepository_CreateAnalyzedImageRollsBack(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	user := dbtest.CreateUser(t, db, "alice")

	// duplicate nutrient violates the (image, nutrient) unique index
	ms := seedMeasurements(1, 2)
	ms[1].NutrientID = 1

	err := repo.CreateAnalyzedImage(testContext(t), &models.Image{UserID: user.ID, Path: "/uploads/a.jpg", StorageKey: "k"}, ms)
	require.Error(t, err)

	var images int64
	require.NoError(t, db.Model(&models.Image{}).Count(&images).Error)
	assert.Zero(t, images)
}

func TestRepository_FindImageNotFound(t *testing.T) {
	repo := NewRepository(dbtest.New(t))

	_, err := repo.FindImage(testContext(t), 12345)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestRepository_ListImages(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	alice := dbtest.CreateUser(t, db, "alice")
	bob := dbtest.CreateUser(t, db, "bob")

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, owner := range []uint{alice.ID, bob.ID, alice.ID} {
		require.NoError(t, repo.CreateImage(testContext(t), &models.Image{
			UserID:     owner,
			Path:       "/uploads/x.jpg",
			StorageKey: "k",
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := repo.ListImages(testContext(t), nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt), "newest first")

	mine, err := repo.ListImages(testContext(t), &alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, img := range mine {
		assert.Equal(t, alice.ID, img.UserID)
	}

	none, err := repo.ListImages(testContext(t), ptr(uint(999)))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_DeleteImage(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	user := dbtest.CreateUser(t, db, "alice")

	img := &models.Image{UserID: user.ID, Path: "/uploads/a.jpg", StorageKey: "k"}
	require.NoError(t, repo.CreateAnalyzedImage(testContext(t), img, seedMeasurements(1, 2, 3, 4)))

	require.NoError(t, repo.DeleteImage(testContext(t), img.ID))

	var measurements int64
	require.NoError(t, db.Model(&models.Measurement{}).Where("image_id = ?", img.ID).Count(&measurements).Error)
	assert.Zero(t, measurements)

	assert.ErrorIs(t, repo.DeleteImage(testContext(t), img.ID), ErrImageNotFound)
}

func TestRepository_ImageRemovalCascadesToMeasurements(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	user := dbtest.CreateUser(t, db, "alice")

	img := &models.Image{UserID: user.ID, Path: "/uploads/a.jpg", StorageKey: "k"}
	require.NoError(t, repo.CreateAnalyzedImage(testContext(t), img, seedMeasurements(1, 2, 3, 4)))

	require.NoError(t, db.Delete(&models.Image{}, img.ID).Error)

	var measurements int64
	require.NoError(t, db.Model(&models.Measurement{}).Count(&measurements).Error)
	assert.Zero(t, measurements)
}

func TestRepository_OwnerRemovalCascadesToImages(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	user := dbtest.CreateUser(t, db, "alice")

	img := &models.Image{UserID: user.ID, Path: "/uploads/a.jpg", StorageKey: "k"}
	require.NoError(t, repo.CreateAnalyzedImage(testContext(t), img, seedMeasurements(1, 2, 3, 4)))

	require.NoError(t, db.Unscoped().Delete(&user).Error)

	var images, measurements int64
	require.NoError(t, db.Model(&models.Image{}).Count(&images).Error)
	require.NoError(t, db.Model(&models.Measurement{}).Count(&measurements).Error)
	assert.Zero(t, images)
	assert.Zero(t, measurements)
}

func TestRepository_ReferencedNutrientCannotBeDeleted(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	user := dbtest.CreateUser(t, db, "alice")

	img := &models.Image{UserID: user.ID, Path: "/uploads/a.jpg", StorageKey: "k"}
	require.NoError(t, repo.CreateAnalyzedImage(testContext(t), img, seedMeasurements(1, 2, 3, 4)))

	assert.Error(t, db.Delete(&models.Nutrient{}, 1).Error)
}
