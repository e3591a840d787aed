package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-eca-api/internal/models"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit creates a middleware that records audit logs after successful requests.
// The term in the route is stored as the resource id.
func Audit(recorder AuditRecorder, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if recorder == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		status := c.Writer.Status()
		if status >= 400 || len(c.Errors) > 0 {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			Status:    status,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if value, ok := c.Get(ContextUserKey); ok {
			if claims, ok := value.(*models.JWTClaims); ok && claims != nil {
				entry.UserID = optional(claims.UserID)
				entry.SchoolID = optional(claims.SchoolID)
			}
		}
		if entry.SchoolID == nil {
			entry.SchoolID = optional(c.Query("schoolId"))
		}
		entry.ResourceID = optional(c.Param("termId"))

		details, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  status,
			"latency": time.Since(start).Milliseconds(),
		})
		entry.Details = details

		if err := recorder.CreateAuditLog(c.Request.Context(), entry); err != nil {
			logger.Warn("audit log write failed",
				zap.String("action", action),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
