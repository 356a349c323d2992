// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/alucqrd/license-for-all-smart-contract/internal/models"
)

// AuditLogMiddleware records every mutating request: who called, what they
// hit, the request body and the response status. Reads are not audited.
func AuditLogMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		callerAddress, _ := c.Get("caller_address")
		caller, _ := callerAddress.(string)

		var requestData map[string]interface{}
		if len(requestBody) > 0 {
			json.Unmarshal(requestBody, &requestData)
		}
		// Never persist credentials.
		delete(requestData, "password")
		delete(requestData, "new_password")

		auditLog := &models.AuditLog{
			CallerAddress: caller,
			Action:        c.Request.Method + " " + c.Request.URL.Path,
			ResourceType:  extractResourceType(c.Request.URL.Path),
			IPAddress:     c.ClientIP(),
			UserAgent:     c.Request.UserAgent(),
			RequestData:   models.JSONB(requestData),
			StatusCode:    c.Writer.Status(),
		}

		go func() {
			if err := db.Create(auditLog).Error; err != nil {
				logrus.WithError(err).Error("Failed to create audit log")
			}
		}()

		logrus.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": duration.Milliseconds(),
			"ip":       c.ClientIP(),
			"caller":   caller,
		}).Info("Request processed")
	}
}

func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "v1" {
		return parts[1]
	}
	if len(parts) >= 1 {
		return parts[0]
	}
	return "unknown"
}
