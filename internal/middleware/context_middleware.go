package middleware

import (
	"github.com/yusuke-yano-01/Timelog/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContextLogger attaches a logger tagged with the request id to the request
// context so services can log without knowing about gin. AuthMiddleware adds
// the caller's identity once the token is verified.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := contextutil.GetRequestID(c.Request.Context())
		if rid == "" {
			rid = c.GetHeader(HeaderRequestID)
		}
		if rid == "" {
			rid = uuid.New().String()
			c.Header(HeaderRequestID, rid)
		}

		ctx := c.Request.Context()
		ctx = contextutil.WithRequestID(ctx, rid)
		ctx = contextutil.WithLogger(ctx, logger.With(zap.String("request_id", rid)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// bindCaller records the authenticated caller on the gin context and tags the
// request scoped logger with it.
func bindCaller(c *gin.Context, userID, role string) {
	c.Set(ContextUserID, userID)
	c.Set(ContextRole, role)

	ctx := c.Request.Context()
	logger := contextutil.GetLogger(ctx, zap.L()).With(
		zap.String("user_id", userID),
		zap.String("role", role),
	)
	ctx = contextutil.WithUserID(ctx, userID)
	ctx = contextutil.WithLogger(ctx, logger)
	c.Request = c.Request.WithContext(ctx)
}
