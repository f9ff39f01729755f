package stats

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lessonhub/internal/user"
	"lessonhub/pkg/models"
)

type productRow struct {
	ID            uint
	Name          string
	TotalViews    int64
	TotalViewTime int64
	TotalStudents int64
}

// ProductStats aggregates viewed lesson views per product. Products without
// any viewed lesson are reported with zero counters.
func ProductStats(ctx context.Context, db *gorm.DB) ([]models.ProductStats, error) {
	var rows []productRow
	err := db.WithContext(ctx).
		Table("products AS p").
		Select(`p.id AS id, p.name AS name,
			COUNT(lv.id) AS total_views,
			COALESCE(SUM(lv.viewed_time_seconds), 0) AS total_view_time,
			COUNT(DISTINCT lv.user_id) AS total_students`).
		Joins("LEFT JOIN lessons AS l ON l.product_id = p.id").
		Joins("LEFT JOIN lesson_views AS lv ON lv.lesson_id = l.id AND lv.viewed = ?", true).
		Group("p.id, p.name").
		Order("p.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate product stats: %w", err)
	}

	totalUsers, err := user.Count(ctx, db)
	if err != nil {
		return nil, err
	}

	out := make([]models.ProductStats, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ProductStats{
			ID:                 r.ID,
			Name:               r.Name,
			TotalViews:         r.TotalViews,
			TotalViewTime:      r.TotalViewTime,
			TotalStudents:      r.TotalStudents,
			PurchasePercentage: PurchasePercentage(r.TotalStudents, totalUsers),
		})
	}
	return out, nil
}

// PurchasePercentage is students/users*100, 0 when there are no users. It is
// not clamped.
func PurchasePercentage(students, totalUsers int64) float64 {
	if totalUsers == 0 {
		return 0
	}
	return float64(students) / float64(totalUsers) * 100
}
