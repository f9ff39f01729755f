package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lessonhub/internal/apierr"
	"lessonhub/internal/auth"
	"lessonhub/internal/lesson"
	"lessonhub/internal/lessonview"
	"lessonhub/internal/stats"
	"lessonhub/internal/user"
	"lessonhub/pkg/logger"
)

func handleRegister(c *gin.Context, db *gorm.DB, log *logger.Logger) {
	var req struct {
		Username  string `json:"username" binding:"required,max=150"`
		Password  string `json:"password" binding:"required"`
		Email     string `json:"email" binding:"omitempty,email"`
		FirstName string `json:"first_name" binding:"max=150"`
		LastName  string `json:"last_name" binding:"max=150"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, err)
		return
	}

	u, err := user.Create(c.Request.Context(), db, user.Registration{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		apierr.Respond(c, log, err)
		return
	}
	log.Info("user registered", "user_id", u.ID, "username", u.Username)
	c.JSON(http.StatusCreated, u)
}

func handleLogin(c *gin.Context, db *gorm.DB, log *logger.Logger, secret []byte, ttl time.Duration) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("username/password required"))
		return
	}

	u, err := user.VerifyLogin(c.Request.Context(), db, req.Username, req.Password)
	if err != nil {
		apierr.Respond(c, log, err)
		return
	}

	token, err := auth.SignJWT(secret, u.ID, u.Username, ttl)
	if err != nil {
		apierr.Respond(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func handleListUsers(c *gin.Context, db *gorm.DB, log *logger.Logger) {
	users, err := user.List(c.Request.Context(), db)
	if err != nil {
		apierr.Respond(c, log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func handleGetUser(c *gin.Context, db *gorm.DB, log *logger.Logger) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apierr.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid user id"))
		return
	}
	u, err := user.GetByID(c.Request.Context(), db, uint(id))
	if err != nil {
		apierr.Respond(c, log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func handleMe(c *gin.Context, db *gorm.DB, log *logger.Logger) {
	u, err := user.GetByID(c.Request.Context(), db, auth.UserID(c))
	if err != nil {
		apierr.Respond(c, log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func handleLessonStatus(c *gin.Context, db *gorm.DB, log *logger.Logger) {
	views, err := lessonview.ListByUser(c.Request.Context(), db, auth.UserID(c))
	if err != nil {
		apierr.Respond(c, log, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// lessonRef accepts a lesson id as a JSON number or a numeric string.
type lessonRef uint

func (r *lessonRef) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("lesson: %q is not an id", raw)
	}
	*r = lessonRef(n)
	return nil
}

func handleSubscribe(c *gin.Context, db *gorm.DB, log *logger.Logger, thresholdPercent int) {
	var req struct {
		Lesson            *lessonRef `json:"lesson"`
		ViewedTimeSeconds *int       `json:"viewed_time_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid json"))
		return
	}
	if req.Lesson == nil {
		apierr.RespondError(c, http.StatusNotFound, apierr.CodeNotFound, lesson.ErrNotFound)
		return
	}
	userID := auth.UserID(c)

	res, err := lessonview.Subscribe(c.Request.Context(), db, userID, lessonview.Request{
		LessonID:          uint(*req.Lesson),
		ViewedTimeSeconds: req.ViewedTimeSeconds,
	}, thresholdPercent)
	if err != nil {
		apierr.Respond(c, log, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	log.Debug("lesson progress saved",
		"user_id", userID, "lesson_id", res.View.LessonID,
		"viewed_time_seconds", res.View.ViewedTimeSeconds, "created", res.Created)
	c.JSON(status, res.View)
}

func handleProductStats(c *gin.Context, db *gorm.DB, log *logger.Logger) {
	rows, err := stats.ProductStats(c.Request.Context(), db)
	if err != nil {
		apierr.Respond(c, log, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
