// internal/database/database.go
package database

import (
	"fmt"
	"log/slog"
	"time"

	"healcheck-back/internal/config"
	"healcheck-back/internal/logging"
	"healcheck-back/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const slowQueryThreshold = 200 * time.Millisecond

// CatalogSeed is the fixed nutrient catalog. IDs are stable across deployments.
var CatalogSeed = []models.Nutrient{
	{ID: 1, Name: models.NutrientCalories, Unit: "kcal", Description: "Total energy"},
	{ID: 2, Name: models.NutrientProtein, Unit: "gram", Description: "Protein"},
	{ID: 3, Name: models.NutrientFat, Unit: "gram", Description: "Fat"},
	{ID: 4, Name: models.NutrientCarbohydrate, Unit: "gram", Description: "Carbohydrate"},
}

// InitDB opens the configured database.
func InitDB(cfg config.DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.SQLitePath))
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.NewGormLogger(logger, slowQueryThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

// SQLiteDSN enables foreign key enforcement so cascades behave like postgres.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on", path)
}

// MigrateDB creates the schema and seeds the nutrient catalog.
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Nutrient{},
		&models.Image{},
		&models.Measurement{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return SeedNutrients(db)
}

// SeedNutrients inserts the catalog rows that are missing and leaves
// existing ones untouched.
func SeedNutrients(db *gorm.DB) error {
	seed := make([]models.Nutrient, len(CatalogSeed))
	copy(seed, CatalogSeed)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return fmt.Errorf("failed to seed nutrients: %w", err)
	}
	return nil
}
