package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyjia/budget-ledger/internal/domain/entity"
)

const (
	// HeaderRequestID carries the correlation id of a request
	HeaderRequestID = "X-Request-ID"
	// HeaderUserID carries the authenticated user, set by the upstream auth gateway
	HeaderUserID = "X-User-ID"

	ctxKeyRequestID = "request_id"
	ctxKeyActor     = "actor"
)

// requestIDMiddleware propagates the caller's request id or assigns a new one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// actorMiddleware records the acting user for the lifecycle operations
func actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if actor == "" {
			actor = entity.SystemUser
		}
		c.Set(ctxKeyActor, actor)
		c.Next()
	}
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(ctxKeyRequestID),
		)
	}
}

func actorOf(c *gin.Context) string {
	if actor := c.GetString(ctxKeyActor); actor != "" {
		return actor
	}
	return entity.SystemUser
}
