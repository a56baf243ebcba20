package audit

import (
	"github.com/yusuke-yano-01/Timelog/internal/middleware"
	"github.com/yusuke-yano-01/Timelog/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service, authMW gin.HandlerFunc) {
	r.GET("/admin/audit-logs",
		authMW,
		middleware.RBACAuthorize(rbacService, rbac.ResourceAudit, rbac.ActionRead),
		h.List,
	)
}
