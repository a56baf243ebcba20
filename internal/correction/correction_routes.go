package correction

import (
	"github.com/yusuke-yano-01/Timelog/internal/middleware"
	"github.com/yusuke-yano-01/Timelog/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service, authMW gin.HandlerFunc, rdb *redis.Client) {
	r.PUT("/timelogs",
		authMW,
		middleware.RateLimitByUser(2, 10),
		middleware.RBACAuthorize(rbacService, rbac.ResourceTimelog, rbac.ActionWrite),
		middleware.Idempotency(rdb),
		h.Submit,
	)

	corrections := r.Group("/corrections")
	corrections.Use(authMW)
	{
		corrections.GET("", middleware.RBACAuthorize(rbacService, rbac.ResourceCorrection, rbac.ActionRead), h.List)
		corrections.GET("/:id", middleware.RBACAuthorize(rbacService, rbac.ResourceCorrection, rbac.ActionRead), h.GetByID)
		corrections.POST("/:id/approve",
			middleware.RBACAuthorize(rbacService, rbac.ResourceCorrection, rbac.ActionApprove),
			h.Approve,
		)
	}
}
