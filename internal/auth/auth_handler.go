package auth

import (
	"net/http"
	"strings"

	"github.com/yusuke-yano-01/Timelog/internal/middleware"
	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
	"github.com/yusuke-yano-01/Timelog/internal/shared/response"

	"github.com/gin-gonic/gin"
)

const accessTokenCookie = "access_token"

type Handler struct {
	service      Service
	secureCookie bool
}

func NewHandler(s Service, secureCookie bool) *Handler {
	return &Handler{service: s, secureCookie: secureCookie}
}

func writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// isWebClient decides whether the token also goes into a cookie. Native
// clients announce themselves with X-Client-Type.
func isWebClient(c *gin.Context) bool {
	switch strings.ToLower(c.GetHeader("X-Client-Type")) {
	case "mobile", "cli", "api":
		return false
	}
	return true
}

func (h *Handler) setTokenCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res, nil)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if isWebClient(c) {
		h.setTokenCookie(c, res.AccessToken, int(AccessTokenTTL.Seconds()))
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) Logout(c *gin.Context) {
	h.setTokenCookie(c, "", -1)
	response.Success(c, http.StatusOK, "logged out", nil)
}

func (h *Handler) Me(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	res, err := h.service.GetMe(c.Request.Context(), actor.UserID.String())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}
