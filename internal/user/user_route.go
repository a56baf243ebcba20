package user

import (
	"github.com/yusuke-yano-01/Timelog/internal/middleware"
	"github.com/yusuke-yano-01/Timelog/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service, authMW gin.HandlerFunc) {
	staff := r.Group("/admin/staff")
	staff.Use(authMW)
	{
		staff.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, rbac.ResourceStaff, rbac.ActionRead),
			handler.ListStaff,
		)
		staff.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, rbac.ResourceStaff, rbac.ActionRead),
			handler.GetByID,
		)
	}
}
