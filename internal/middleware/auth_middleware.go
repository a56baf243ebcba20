package middleware

import (
	"errors"
	"fmt"
	"strings"

	autherrors "github.com/yusuke-yano-01/Timelog/internal/auth/errors"
	"github.com/yusuke-yano-01/Timelog/internal/domain"
	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"
	"github.com/yusuke-yano-01/Timelog/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// AuthMiddleware accepts a Bearer token or the access_token cookie and
// stores the caller's user id and role on the gin context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}
		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			abortWith(c, autherrors.ErrTokenNotFound)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			errObj := autherrors.ErrInvalidToken
			if errors.Is(err, jwt.ErrTokenExpired) {
				errObj = autherrors.ErrTokenExpired
			}
			abortWith(c, errObj)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortWith(c, autherrors.ErrInvalidToken)
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			abortWith(c, autherrors.ErrInvalidToken)
			return
		}
		if _, err := uuid.Parse(userID); err != nil {
			abortWith(c, autherrors.ErrInvalidToken)
			return
		}

		role, _ := claims["role"].(string)
		role = strings.ToUpper(strings.TrimSpace(role))
		if role != domain.RoleAdmin && role != domain.RoleStaff {
			abortWith(c, autherrors.ErrInvalidToken)
			return
		}

		bindCaller(c, userID, role)
		c.Next()
	}
}

// ActorFromContext rebuilds the authenticated actor set by AuthMiddleware.
func ActorFromContext(c *gin.Context) (domain.Actor, bool) {
	id, err := uuid.Parse(c.GetString(ContextUserID))
	if err != nil {
		return domain.Actor{}, false
	}
	role := c.GetString(ContextRole)
	if role == "" {
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: id, Role: role}, true
}

func abortWith(c *gin.Context, err *apperror.AppError) {
	response.Error(c, err.HTTPStatus, err.Code, err.Message, nil)
	c.Abort()
}
