package correction

import (
	"net/http"

	"github.com/yusuke-yano-01/Timelog/internal/middleware"
	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
	"github.com/yusuke-yano-01/Timelog/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	service Service
	rdb     *redis.Client
}

// NewHandler builds the handler. rdb may be nil, which disables idempotent replay.
func NewHandler(service Service, rdb *redis.Client) *Handler {
	return &Handler{service: service, rdb: rdb}
}

func writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Submit(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.FinishIdempotent(c, h.rdb, 0, nil)
		writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), actor, req)
	if err != nil {
		middleware.FinishIdempotent(c, h.rdb, 0, nil)
		writeServiceError(c, err)
		return
	}
	status := http.StatusAccepted
	if resp.Result == SubmitApplied {
		status = http.StatusOK
	}
	middleware.FinishIdempotent(c, h.rdb, status, resp)
	response.Success(c, status, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	resp, err := h.service.Approve(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

// List accepts ?status=pending|approved; omitted means both.
func (h *Handler) List(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	resp, err := h.service.List(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	page, meta := response.Paginate(c, resp)
	response.Success(c, http.StatusOK, page, &meta)
}

func (h *Handler) GetByID(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
