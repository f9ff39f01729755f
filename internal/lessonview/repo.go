package lessonview

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lessonhub/internal/lesson"
	"lessonhub/pkg/models"
)

const DefaultViewedThresholdPercent = 80

var ErrNegativeTime = errors.New("viewed_time_seconds must be zero or positive")

// Request is a subscribe/progress call for one lesson. A nil ViewedTimeSeconds
// keeps the stored value on update and means 0 on create.
type Request struct {
	LessonID          uint
	ViewedTimeSeconds *int
}

type Result struct {
	View    models.LessonView
	Created bool
}

// Subscribe records the caller's progress on a lesson: the (user, lesson) row
// is created on first call and its viewed_time_seconds overwritten after that.
// Lookup and write share one transaction, and the insert yields to the unique
// (user_id, lesson_id) index so concurrent first calls never produce two rows.
func Subscribe(ctx context.Context, db *gorm.DB, userID uint, req Request, thresholdPercent int) (Result, error) {
	if thresholdPercent <= 0 {
		thresholdPercent = DefaultViewedThresholdPercent
	}

	var res Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := lesson.GetByID(ctx, tx, req.LessonID)
		if err != nil {
			return err
		}
		if req.ViewedTimeSeconds != nil && *req.ViewedTimeSeconds < 0 {
			return ErrNegativeTime
		}

		existing, found, err := find(tx, userID, l.ID)
		if err != nil {
			return err
		}
		if found {
			res.View, err = update(tx, existing, l, req.ViewedTimeSeconds, thresholdPercent)
			return err
		}

		seconds := 0
		if req.ViewedTimeSeconds != nil {
			seconds = *req.ViewedTimeSeconds
		}
		view := models.LessonView{
			UserID:            userID,
			LessonID:          l.ID,
			ViewedTimeSeconds: seconds,
			Viewed:            IsViewed(seconds, l.DurationSeconds, thresholdPercent),
		}
		ins := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).Create(&view)
		if ins.Error != nil {
			return fmt.Errorf("insert lesson view: %w", ins.Error)
		}
		if ins.RowsAffected > 0 {
			res.View = view
			res.Created = true
			return nil
		}

		// Another request inserted the row first.
		existing, found, err = find(tx, userID, l.ID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("lesson view for user %d lesson %d vanished after conflict", userID, l.ID)
		}
		res.View, err = update(tx, existing, l, req.ViewedTimeSeconds, thresholdPercent)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// ListByUser returns every lesson view owned by userID.
func ListByUser(ctx context.Context, db *gorm.DB, userID uint) ([]models.LessonView, error) {
	views := []models.LessonView{}
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&views).Error; err != nil {
		return nil, fmt.Errorf("list lesson views of user %d: %w", userID, err)
	}
	return views, nil
}

// IsViewed reports whether seconds watched reach thresholdPercent of the
// lesson duration. Lessons without a duration count as viewed once any time
// has been recorded.
func IsViewed(seconds, durationSeconds, thresholdPercent int) bool {
	if durationSeconds <= 0 {
		return seconds > 0
	}
	return int64(seconds)*100 >= int64(durationSeconds)*int64(thresholdPercent)
}

func find(tx *gorm.DB, userID, lessonID uint) (models.LessonView, bool, error) {
	var v models.LessonView
	err := tx.Where("user_id = ? AND lesson_id = ?", userID, lessonID).Limit(1).Find(&v).Error
	if err != nil {
		return models.LessonView{}, false, fmt.Errorf("find lesson view: %w", err)
	}
	return v, v.ID != 0, nil
}

func update(tx *gorm.DB, v models.LessonView, l models.Lesson, seconds *int, thresholdPercent int) (models.LessonView, error) {
	if seconds != nil {
		v.ViewedTimeSeconds = *seconds
	}
	v.Viewed = IsViewed(v.ViewedTimeSeconds, l.DurationSeconds, thresholdPercent)

	err := tx.Model(&v).Updates(map[string]any{
		"viewed_time_seconds": v.ViewedTimeSeconds,
		"viewed":              v.Viewed,
	}).Error
	if err != nil {
		return models.LessonView{}, fmt.Errorf("update lesson view %d: %w", v.ID, err)
	}
	return v, nil
}
