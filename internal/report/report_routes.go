package report

import (
	"github.com/yusuke-yano-01/Timelog/internal/middleware"
	"github.com/yusuke-yano-01/Timelog/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service, authMW gin.HandlerFunc) {
	timelogs := r.Group("/timelogs")
	timelogs.Use(authMW)
	{
		timelogs.GET("", middleware.RBACAuthorize(rbacService, rbac.ResourceTimelog, rbac.ActionRead), h.Month)
		timelogs.GET("/day", middleware.RBACAuthorize(rbacService, rbac.ResourceTimelog, rbac.ActionRead), h.Day)
		timelogs.GET("/export", middleware.RBACAuthorize(rbacService, rbac.ResourceTimelog, rbac.ActionExport), h.Export)
	}

	r.GET("/admin/attendances",
		authMW,
		middleware.RBACAuthorize(rbacService, rbac.ResourceTimelog, rbac.ActionReadAll),
		h.Daily,
	)
}
