package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ecampus-api/internal/models"
)

// AuditRecorder accepts audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog)
}

// Audit records an audit entry after requests that succeeded. The entry is
// handed to the recorder detached from the request context.
func Audit(recorder AuditRecorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if recorder == nil || c.Writer.Status() >= 400 {
			return
		}

		var accountID *string
		if claims, ok := CurrentUser(c); ok {
			id := claims.AccountID
			accountID = &id
		}

		var resourceID *string
		for _, param := range []string{"id", "trackId"} {
			if value := c.Param(param); value != "" {
				resourceID = &value
				break
			}
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})
		values := string(body)

		recorder.Record(context.Background(), models.AuditLog{
			AccountID:  accountID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  &values,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
			CreatedAt:  start,
		})
	}
}
