package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/nonprofit-edge/evaluation-api/pkg/errors"
	"github.com/nonprofit-edge/evaluation-api/pkg/response"
)

// CronSecret guards scheduler-invoked endpoints with a shared bearer
// secret. An empty configured secret disables the routes entirely.
func CronSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "cron endpoints are disabled"))
			c.Abort()
			return
		}

		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") ||
			subtle.ConstantTimeCompare([]byte(parts[1]), []byte(secret)) != 1 {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Next()
	}
}
