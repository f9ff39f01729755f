package models

import "time"

// users table
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Email        string    `gorm:"size:254" json:"email"`
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// products table
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Lessons   []Lesson  `gorm:"constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// lessons table
type Lesson struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	ProductID       uint   `gorm:"not null;index" json:"product"`
	Title           string `gorm:"not null" json:"title"`
	VideoURL        string `json:"video_url"`
	DurationSeconds int    `gorm:"not null;default:0" json:"duration_seconds"`
}

// lesson_views table; at most one row per (user, lesson).
type LessonView struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"not null;uniqueIndex:idx_lesson_view_user_lesson" json:"user"`
	User              *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	LessonID          uint      `gorm:"not null;uniqueIndex:idx_lesson_view_user_lesson;index" json:"lesson"`
	Lesson            *Lesson   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Viewed            bool      `gorm:"not null;default:false;index" json:"viewed"`
	ViewedTimeSeconds int       `gorm:"not null;default:0" json:"viewed_time_seconds"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProductStats is one row of the product statistics report.
type ProductStats struct {
	ID                 uint    `json:"id"`
	Name               string  `json:"name"`
	TotalViews         int64   `json:"total_views"`
	TotalViewTime      int64   `json:"total_view_time"`
	TotalStudents      int64   `json:"total_students"`
	PurchasePercentage float64 `json:"purchase_percentage"`
}

// catalog.json seed format
type CatalogProduct struct {
	ID      uint            `json:"id"`
	Name    string          `json:"name"`
	Lessons []CatalogLesson `json:"lessons"`
}

type CatalogLesson struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	VideoURL        string `json:"video_url"`
	DurationSeconds int    `json:"duration_seconds"`
}
