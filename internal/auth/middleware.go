package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lessonhub/internal/apierr"
)

const CtxUserIDKey = "user_id"
const CtxUsernameKey = "username"

func RequireJWT(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("missing bearer token"))
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		claims, err := ParseJWT(secret, tokenStr)
		if err != nil {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("invalid token"))
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUsernameKey, claims.Username)
		c.Next()
	}
}

// UserID returns the authenticated caller; zero when RequireJWT did not run.
func UserID(c *gin.Context) uint {
	return c.GetUint(CtxUserIDKey)
}
