package report

import (
	"net/http"
	"strconv"

	"github.com/yusuke-yano-01/Timelog/internal/middleware"
	reporterrors "github.com/yusuke-yano-01/Timelog/internal/report/errors"
	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
	"github.com/yusuke-yano-01/Timelog/internal/shared/response"

	"github.com/gin-gonic/gin"
)

const csvContentType = "text/csv; charset=utf-8"

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

// monthQuery reads ?year=&month=&user_id=. Missing year and month select the current month.
func monthQuery(c *gin.Context) (MonthQuery, error) {
	q := MonthQuery{UserID: c.Query("user_id")}
	y, m := c.Query("year"), c.Query("month")
	if y == "" && m == "" {
		return q, nil
	}
	var err1, err2 error
	q.Year, err1 = strconv.Atoi(y)
	q.Month, err2 = strconv.Atoi(m)
	if err1 != nil || err2 != nil {
		return MonthQuery{}, reporterrors.ErrInvalidMonth
	}
	return q, nil
}

func (h *Handler) Month(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		writeServiceError(c, apperror.ErrUnauthorized)
		return
	}
	q, err := monthQuery(c)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp, err := h.service.Month(c.Request.Context(), actor, q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Day(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	resp, err := h.service.Day(c.Request.Context(), actor, c.Query("user_id"), c.Query("date"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Export(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		writeServiceError(c, apperror.ErrUnauthorized)
		return
	}
	q, err := monthQuery(c)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	file, err := h.service.ExportCSV(c.Request.Context(), actor, q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Attachment(c, file.Filename, csvContentType, file.Data)
}

// Daily lists every active staff member for ?date= (default today).
func (h *Handler) Daily(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	resp, err := h.service.Daily(c.Request.Context(), actor, c.Query("date"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
