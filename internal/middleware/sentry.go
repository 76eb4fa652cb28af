package middleware

import (
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-api/internal/constants"
)

// SentryHub gives every request its own hub so scope data set while
// handling one request never leaks into another.
func SentryHub() gin.HandlerFunc {
	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetTag("request_id", c.GetString(constants.ContextKeyRequestID))
		c.Request = c.Request.WithContext(sentry.SetHubOnContext(c.Request.Context(), hub))
		c.Next()
	}
}
