package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yusuke-yano-01/Timelog/internal/auth"
	autherrors "github.com/yusuke-yano-01/Timelog/internal/auth/errors"
	authMock "github.com/yusuke-yano-01/Timelog/internal/auth/mock"
	"github.com/yusuke-yano-01/Timelog/internal/domain"
	"github.com/yusuke-yano-01/Timelog/internal/middleware"
	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	apperror.Init()
	return gin.New()
}

func postJSON(router *gin.Engine, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := authMock.NewMockService(ctrl)
	router := setupAuthRouter()
	router.POST("/login", auth.NewHandler(mockService, false).Login)

	reqBody := auth.LoginRequest{Email: "test@example.com", Password: "password123"}
	resp := auth.LoginResponse{
		User:        auth.AuthResponse{ID: uuid.NewString(), Email: reqBody.Email, Role: domain.RoleStaff},
		AccessToken: "access-token",
	}

	t.Run("web client receives a cookie", func(t *testing.T) {
		mockService.EXPECT().Login(gomock.Any(), reqBody.Email, reqBody.Password).Return(resp, nil)

		w := postJSON(router, "/login", reqBody, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		assert.Len(t, cookies, 1)
		assert.Equal(t, "access_token", cookies[0].Name)
		assert.Equal(t, "access-token", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("mobile client gets the token in the body only", func(t *testing.T) {
		mockService.EXPECT().Login(gomock.Any(), reqBody.Email, reqBody.Password).Return(resp, nil)

		w := postJSON(router, "/login", reqBody, map[string]string{"X-Client-Type": "mobile"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Result().Cookies())
		assert.Contains(t, w.Body.String(), `"access_token":"access-token"`)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		mockService.EXPECT().Login(gomock.Any(), reqBody.Email, "nope").Return(auth.LoginResponse{}, autherrors.ErrInvalidCredentials)

		w := postJSON(router, "/login", auth.LoginRequest{Email: reqBody.Email, Password: "nope"}, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed email never reaches the service", func(t *testing.T) {
		w := postJSON(router, "/login", map[string]string{"email": "not-an-email", "password": "x"}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})
}

func TestHandler_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := authMock.NewMockService(ctrl)
	router := setupAuthRouter()
	router.POST("/register", auth.NewHandler(mockService, false).Register)

	t.Run("created", func(t *testing.T) {
		req := auth.RegisterRequest{Name: "Ren", Email: "ren@example.com", Password: "password123", PasswordConfirmation: "password123"}
		mockService.EXPECT().Register(gomock.Any(), req).Return(auth.AuthResponse{ID: uuid.NewString(), Role: domain.RoleStaff}, nil)

		w := postJSON(router, "/register", req, nil)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("short password", func(t *testing.T) {
		req := auth.RegisterRequest{Name: "Ren", Email: "ren@example.com", Password: "pass123", PasswordConfirmation: "pass123"}

		w := postJSON(router, "/register", req, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"password"`)
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		req := auth.RegisterRequest{Name: "Ren", Email: "ren@example.com", Password: "password123", PasswordConfirmation: "password456"}

		w := postJSON(router, "/register", req, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"password_confirmation"`)
	})
}

func TestHandler_Me(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := authMock.NewMockService(ctrl)
	h := auth.NewHandler(mockService, false)
	gin.SetMode(gin.TestMode)
	userID := uuid.NewString()

	mockService.EXPECT().GetMe(gomock.Any(), userID).Return(auth.AuthResponse{ID: userID, Role: domain.RoleAdmin}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserID, userID)
	c.Set(middleware.ContextRole, domain.RoleAdmin)
	h.Me(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"ADMIN"`)
}
