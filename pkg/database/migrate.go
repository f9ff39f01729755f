package database

import (
	"fmt"

	"gorm.io/gorm"

	"lessonhub/pkg/models"
)

func Migrate(db *gorm.DB) error {
	tables := []any{
		&models.User{},
		&models.Product{},
		&models.Lesson{},
		&models.LessonView{},
	}
	for i, t := range tables {
		if err := db.AutoMigrate(t); err != nil {
			return fmt.Errorf("migrate table %d: %w", i, err)
		}
	}
	return nil
}
