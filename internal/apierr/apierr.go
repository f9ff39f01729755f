package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"lessonhub/internal/lesson"
	"lessonhub/internal/lessonview"
	"lessonhub/internal/user"
	"lessonhub/pkg/logger"
)

const (
	CodeValidation   = "validation"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeInternal     = "internal"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func envelope(code string, err error) ErrorEnvelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ErrorEnvelope{Error: APIError{Message: msg, Code: code}}
}

func RespondError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, envelope(code, err))
}

func Abort(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, envelope(code, err))
}

// Classify maps domain errors onto an API error. Unknown errors become a 500
// without leaking their text.
func Classify(err error) *Error {
	var ae *Error
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, lesson.ErrNotFound), errors.Is(err, user.ErrNotFound):
		return New(http.StatusNotFound, CodeNotFound, err)
	case errors.Is(err, user.ErrUsernameTaken), errors.Is(err, user.ErrPasswordTooLong),
		errors.Is(err, lessonview.ErrNegativeTime):
		return New(http.StatusBadRequest, CodeValidation, err)
	case errors.Is(err, user.ErrInvalidCredentials):
		return New(http.StatusUnauthorized, CodeUnauthorized, err)
	default:
		return New(http.StatusInternalServerError, CodeInternal, errors.New("internal server error"))
	}
}

// Respond writes err as an error envelope, logging anything that maps to 5xx.
func Respond(c *gin.Context, log *logger.Logger, err error) {
	ae := Classify(err)
	if ae.Status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}
