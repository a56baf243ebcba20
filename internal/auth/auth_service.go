package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	autherrors "github.com/yusuke-yano-01/Timelog/internal/auth/errors"
	"github.com/yusuke-yano-01/Timelog/internal/domain"
	"github.com/yusuke-yano-01/Timelog/internal/shared/clock"
	"github.com/yusuke-yano-01/Timelog/internal/user"
	usererrors "github.com/yusuke-yano-01/Timelog/internal/user/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const AccessTokenTTL = 24 * time.Hour

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (AuthResponse, error)
	Login(ctx context.Context, email, password string) (LoginResponse, error)
	GetMe(ctx context.Context, userID string) (AuthResponse, error)
	// EnsureAdmin creates the administrator account when it does not exist yet.
	EnsureAdmin(ctx context.Context, name, email, password string) error
}

type service struct {
	repo   user.Repository
	secret []byte
	clock  clock.Clock
	logger *zap.Logger
}

func NewService(repo user.Repository, secret string, clk clock.Clock, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	if clk == nil {
		clk = clock.New(time.UTC)
	}
	return &service{repo: repo, secret: []byte(secret), clock: clk, logger: l}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	email := normalizeEmail(req.Email)
	u, err := s.create(ctx, strings.TrimSpace(req.Name), email, req.Password, domain.RoleStaff)
	if err != nil {
		return AuthResponse{}, err
	}
	s.logger.Info("staff registered", zap.String("user_id", u.ID.String()))
	return toResponse(*u), nil
}

func (s *service) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("login lookup failed", zap.Error(err))
			return LoginResponse{}, err
		}
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		s.logger.Warn("login rejected: wrong password", zap.String("user_id", u.ID.String()))
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}
	if !u.IsActive {
		return LoginResponse{}, autherrors.ErrInactiveUser
	}

	expires := s.clock.Now().Add(AccessTokenTTL)
	token, err := s.generateToken(u.ID.String(), u.Role, expires)
	if err != nil {
		s.logger.Error("sign token failed", zap.Error(err))
		return LoginResponse{}, autherrors.ErrTokenGenerationFailed
	}

	s.logger.Info("login success", zap.String("user_id", u.ID.String()), zap.String("role", u.Role))
	return LoginResponse{User: toResponse(*u), AccessToken: token, ExpiresAt: expires.Unix()}, nil
}

func (s *service) GetMe(ctx context.Context, userID string) (AuthResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return AuthResponse{}, usererrors.ErrInvalidUserID
	}
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthResponse{}, usererrors.ErrUserNotFound
		}
		return AuthResponse{}, err
	}
	return toResponse(*u), nil
}

func (s *service) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.logger.Info("admin bootstrap skipped: no credentials configured")
		return nil
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			s.logger.Warn("admin bootstrap email belongs to a staff account", zap.String("user_id", existing.ID.String()))
		}
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	u, err := s.create(ctx, name, email, password, domain.RoleAdmin)
	if err != nil {
		return err
	}
	s.logger.Info("admin account created", zap.String("user_id", u.ID.String()))
	return nil
}

func (s *service) create(ctx context.Context, name, email, password, role string) (*user.User, error) {
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, autherrors.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &user.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     role,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, gorm.ErrDuplicatedKey) || (errors.As(err, &pgErr) && pgErr.Code == "23505") {
			return nil, autherrors.ErrEmailAlreadyRegistered
		}
		s.logger.Error("create user failed", zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (s *service) generateToken(userID, role string, expires time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     expires.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toResponse(u user.User) AuthResponse {
	return AuthResponse{
		ID:    u.ID.String(),
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}
