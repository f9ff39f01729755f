package database

import (
	"encoding/json"
	"fmt"
	"os"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lessonhub/pkg/models"
)

func LoadCatalogFromJSON(jsonPath string) ([]models.CatalogProduct, error) {
	b, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read catalog json: %w", err)
	}

	var list []models.CatalogProduct
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("unmarshal catalog json: %w", err)
	}

	return list, nil
}

// SeedCatalog inserts products and their lessons, skipping ids that already
// exist. It returns the number of newly inserted lessons.
func SeedCatalog(db *gorm.DB, catalog []models.CatalogProduct) (int, error) {
	inserted := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, p := range catalog {
			if p.ID == 0 || p.Name == "" {
				return fmt.Errorf("catalog product needs id and name (got id=%d)", p.ID)
			}
			product := models.Product{ID: p.ID, Name: p.Name}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&product).Error; err != nil {
				return fmt.Errorf("insert product %d: %w", p.ID, err)
			}

			for _, l := range p.Lessons {
				if l.ID == 0 {
					return fmt.Errorf("catalog lesson without id in product %d", p.ID)
				}
				lesson := models.Lesson{
					ID:              l.ID,
					ProductID:       p.ID,
					Title:           l.Title,
					VideoURL:        l.VideoURL,
					DurationSeconds: l.DurationSeconds,
				}
				res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&lesson)
				if res.Error != nil {
					return fmt.Errorf("insert lesson %d: %w", l.ID, res.Error)
				}
				if res.RowsAffected > 0 {
					inserted++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
