package nutrition

import (
	"path"
	"time"

	"healcheck-back/internal/models"
	"healcheck-back/internal/storage"
)

// ImageAnalysis is the externally visible view of an Image and its measurements.
type ImageAnalysis struct {
	ID               uint               `json:"id"`
	UserID           uint               `json:"user_id"`
	Path             string             `json:"path"`
	ImagePath        string             `json:"image_path"`
	Kcal             *float64           `json:"kcal"`
	Gam              *float64           `json:"gam"`
	FoodName         *string            `json:"food_name"`
	AISuggestion     *string            `json:"ai_suggestion"`
	CreatedAt        time.Time          `json:"created_at"`
	NutrientAnalysis []NutrientAnalysis `json:"nutrient_analysis"`
}

type NutrientAnalysis struct {
	NutrientName string   `json:"nutrient_name"`
	Unit         string   `json:"unit"`
	Value        float64  `json:"value"`
	Confidence   *float64 `json:"confidence"`
}

// toAnalysis projects a loaded Image. Measurements must have Nutrient preloaded.
func toAnalysis(img *models.Image, publicBaseURL string) ImageAnalysis {
	out := ImageAnalysis{
		ID:               img.ID,
		UserID:           img.UserID,
		Path:             img.Path,
		ImagePath:        publicBaseURL + storage.PublicPath(path.Base(img.Path)),
		Kcal:             img.Kcal,
		Gam:              img.Gam,
		FoodName:         img.FoodName,
		AISuggestion:     img.AISuggestion,
		CreatedAt:        img.CreatedAt,
		NutrientAnalysis: make([]NutrientAnalysis, 0, len(img.Measurements)),
	}
	for _, m := range img.Measurements {
		out.NutrientAnalysis = append(out.NutrientAnalysis, NutrientAnalysis{
			NutrientName: m.Nutrient.Name,
			Unit:         m.Nutrient.Unit,
			Value:        m.Value,
			Confidence:   m.Confidence,
		})
	}
	return out
}
