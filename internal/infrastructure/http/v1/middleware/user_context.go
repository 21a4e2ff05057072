package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "stockroom/internal/core/context"
	"stockroom/pkg/logger"
)

// UserContext adds the username and role of the authenticated user to the
// request logger. The user id is added by logger.WithContext already.
//
// This middleware must run AFTER Auth.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if user := appctx.GetUser(ctx); user != nil {
			ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With(
				"username", user.Username,
				"role", user.Role,
			))
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
