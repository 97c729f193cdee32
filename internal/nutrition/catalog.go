package nutrition

import (
	"context"
	"fmt"

	"healcheck-back/internal/models"

	"gorm.io/gorm"
)

// CatalogEntry is one seeded nutrient kind.
type CatalogEntry struct {
	ID          uint
	Name        string
	Unit        string
	Description string
}

// Catalog is the immutable nutrient catalog, built once at startup and
// shared read-only between requests.
type Catalog struct {
	byName  map[string]CatalogEntry
	ordered []CatalogEntry
}

var requiredNutrients = []string{
	models.NutrientCalories,
	models.NutrientProtein,
	models.NutrientFat,
	models.NutrientCarbohydrate,
}

// NewCatalog builds a catalog from seeded rows. It requires exactly the four
// known nutrients, once each.
func NewCatalog(rows []models.Nutrient) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]CatalogEntry, len(rows))}
	for _, r := range rows {
		if _, dup := c.byName[r.Name]; dup {
			return nil, fmt.Errorf("duplicate nutrient %q in catalog", r.Name)
		}
		c.byName[r.Name] = CatalogEntry{ID: r.ID, Name: r.Name, Unit: r.Unit, Description: r.Description}
	}

	for _, name := range requiredNutrients {
		e, ok := c.byName[name]
		if !ok {
			return nil, fmt.Errorf("nutrient %q missing from catalog", name)
		}
		c.ordered = append(c.ordered, e)
	}
	if len(c.byName) != len(requiredNutrients) {
		return nil, fmt.Errorf("catalog has %d nutrients, want %d", len(c.byName), len(requiredNutrients))
	}
	return c, nil
}

// LoadCatalog reads the seeded nutrients from the database.
func LoadCatalog(ctx context.Context, db *gorm.DB) (*Catalog, error) {
	var rows []models.Nutrient
	if err := db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load nutrient catalog: %w", err)
	}
	return NewCatalog(rows)
}

func (c *Catalog) Lookup(name string) (CatalogEntry, bool) {
	e, ok := c.byName[name]
	return e, ok
}

// Entries returns the catalog in Calories, Protein, Fat, Carbohydrate order.
func (c *Catalog) Entries() []CatalogEntry {
	out := make([]CatalogEntry, len(c.ordered))
	copy(out, c.ordered)
	return out
}
