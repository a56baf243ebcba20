package attendance

import (
	"github.com/yusuke-yano-01/Timelog/internal/middleware"
	"github.com/yusuke-yano-01/Timelog/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service, authMW gin.HandlerFunc) {
	attendance := r.Group("/attendance")
	attendance.Use(authMW)
	{
		attendance.GET("/today", middleware.RBACAuthorize(rbacService, rbac.ResourceAttendance, rbac.ActionRead), h.Today)

		clock := attendance.Group("", middleware.RateLimitByUser(1, 5), middleware.RBACAuthorize(rbacService, rbac.ResourceAttendance, rbac.ActionClock))
		clock.POST("/clock-in", h.ClockIn)
		clock.POST("/clock-out", h.ClockOut)
		clock.POST("/breaks/start", h.StartBreak)
		clock.POST("/breaks/end", h.EndBreak)
	}
}
