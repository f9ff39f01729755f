package testutil

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"lessonhub/pkg/database"
	"lessonhub/pkg/logger"
	"lessonhub/pkg/models"
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	l, err := logger.New("test")
	if err != nil {
		tb.Fatalf("failed to init logger: %v", err)
	}
	return l
}

// DB returns a fresh, migrated in-memory sqlite database.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	tb.Cleanup(func() { _ = database.Close(db) })
	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}

func CreateUser(tb testing.TB, db *gorm.DB, username string) models.User {
	tb.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pass-"+username), bcrypt.MinCost)
	if err != nil {
		tb.Fatalf("hash password: %v", err)
	}
	u := models.User{Username: username, PasswordHash: string(hash), Email: username + "@example.com"}
	if err := db.WithContext(context.Background()).Create(&u).Error; err != nil {
		tb.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func CreateProduct(tb testing.TB, db *gorm.DB, name string) models.Product {
	tb.Helper()
	p := models.Product{Name: name}
	if err := db.Create(&p).Error; err != nil {
		tb.Fatalf("create product %s: %v", name, err)
	}
	return p
}

func CreateLesson(tb testing.TB, db *gorm.DB, productID uint, title string, durationSeconds int) models.Lesson {
	tb.Helper()
	l := models.Lesson{ProductID: productID, Title: title, DurationSeconds: durationSeconds}
	if err := db.Create(&l).Error; err != nil {
		tb.Fatalf("create lesson %s: %v", title, err)
	}
	return l
}

func CreateView(tb testing.TB, db *gorm.DB, userID, lessonID uint, viewed bool, seconds int) models.LessonView {
	tb.Helper()
	v := models.LessonView{UserID: userID, LessonID: lessonID, Viewed: viewed, ViewedTimeSeconds: seconds}
	if err := db.Create(&v).Error; err != nil {
		tb.Fatalf("create lesson view: %v", err)
	}
	return v
}

func CountViews(tb testing.TB, db *gorm.DB) int64 {
	tb.Helper()
	var n int64
	if err := db.Model(&models.LessonView{}).Count(&n).Error; err != nil {
		tb.Fatalf("count lesson views: %v", err)
	}
	return n
}
