// internal/models/models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Seeded nutrient names. The catalog is fixed at these four entries.
const (
	NutrientCalories     = "Calories"
	NutrientProtein      = "Protein"
	NutrientFat          = "Fat"
	NutrientCarbohydrate = "Carbohydrate"
)

type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Username  string         `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email     *string        `gorm:"size:100;uniqueIndex" json:"email,omitempty"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Images []Image `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

// Image is one uploaded meal photo. Path is the public reference under the
// uploads mount; StorageKey is the blob store locator and never leaves the server.
type Image struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Path         string    `gorm:"size:255;not null" json:"path"`
	StorageKey   string    `gorm:"size:512;not null" json:"-"`
	Kcal         *float64  `json:"kcal"`
	Gam          *float64  `json:"gam"`
	FoodName     *string   `gorm:"size:255" json:"food_name"`
	AISuggestion *string   `gorm:"column:ai_suggestion;type:text" json:"ai_suggestion"`
	CreatedAt    time.Time `json:"created_at"`

	Measurements []Measurement `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE" json:"measurements,omitempty"`
}

type Nutrient struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Unit        string `gorm:"size:20;not null" json:"unit"`
	Description string `json:"description"`
}

// Measurement is one nutrient value derived from an analyzed Image.
type Measurement struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	ImageID    uint      `gorm:"not null;index;uniqueIndex:idx_measurement_image_nutrient" json:"image_id"`
	NutrientID uint      `gorm:"not null;uniqueIndex:idx_measurement_image_nutrient" json:"nutrient_id"`
	Value      float64   `gorm:"not null" json:"value"`
	Confidence *float64  `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`

	Nutrient Nutrient `gorm:"foreignKey:NutrientID;constraint:OnDelete:RESTRICT" json:"nutrient"`
}
