package lesson

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lessonhub/pkg/models"
)

var ErrNotFound = errors.New("lesson not found")

func GetByID(ctx context.Context, db *gorm.DB, id uint) (models.Lesson, error) {
	var l models.Lesson
	if id == 0 {
		return l, ErrNotFound
	}
	err := db.WithContext(ctx).First(&l, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Lesson{}, ErrNotFound
	}
	if err != nil {
		return models.Lesson{}, fmt.Errorf("get lesson %d: %w", id, err)
	}
	return l, nil
}

func ListByProduct(ctx context.Context, db *gorm.DB, productID uint) ([]models.Lesson, error) {
	lessons := []models.Lesson{}
	err := db.WithContext(ctx).Where("product_id = ?", productID).Order("id").Find(&lessons).Error
	if err != nil {
		return nil, fmt.Errorf("list lessons of product %d: %w", productID, err)
	}
	return lessons, nil
}
