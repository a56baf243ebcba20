package attendance

import (
	"context"
	"net/http"

	"github.com/yusuke-yano-01/Timelog/internal/domain"
	"github.com/yusuke-yano-01/Timelog/internal/middleware"
	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
	"github.com/yusuke-yano-01/Timelog/internal/shared/response"
	"github.com/yusuke-yano-01/Timelog/internal/timerecord"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Today(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	resp, err := h.service.Today(c.Request.Context(), actor)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ClockIn(c *gin.Context) {
	h.mutate(c, http.StatusCreated, h.service.ClockIn)
}

func (h *Handler) ClockOut(c *gin.Context) {
	h.mutate(c, http.StatusOK, h.service.ClockOut)
}

func (h *Handler) StartBreak(c *gin.Context) {
	h.mutate(c, http.StatusCreated, h.service.StartBreak)
}

func (h *Handler) EndBreak(c *gin.Context) {
	h.mutate(c, http.StatusOK, h.service.EndBreak)
}

func (h *Handler) mutate(
	c *gin.Context,
	status int,
	op func(ctx context.Context, actor domain.Actor) (timerecord.TimeRecordResponse, error),
) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	resp, err := op(c.Request.Context(), actor)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, status, resp, nil)
}
