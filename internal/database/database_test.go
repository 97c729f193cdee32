package database_test

import (
	"testing"

	"healcheck-back/internal/database"
	"healcheck-back/internal/database/dbtest"
	"healcheck-back/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateDB_SeedsCatalog(t *testing.T) {
	db := dbtest.New(t)

	var nutrients []models.Nutrient
	require.NoError(t, db.Order("id").Find(&nutrients).Error)
	require.Len(t, nutrients, 4)

	assert.Equal(t, models.NutrientCalories, nutrients[0].Name)
	assert.Equal(t, "kcal", nutrients[0].Unit)
	for _, n := range nutrients[1:] {
		assert.Equal(t, "gram", n.Unit)
	}
}

func TestSeedNutrients_Idempotent(t *testing.T) {
	db := dbtest.New(t)

	require.NoError(t, database.SeedNutrients(db))
	require.NoError(t, database.MigrateDB(db))

	var count int64
	require.NoError(t, db.Model(&models.Nutrient{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestSeedNutrients_DoesNotMutateSeed(t *testing.T) {
	db := dbtest.New(t)
	require.NoError(t, database.SeedNutrients(db))

	assert.Equal(t, uint(1), database.CatalogSeed[0].ID)
	assert.Equal(t, models.NutrientCarbohydrate, database.CatalogSeed[3].Name)
}
