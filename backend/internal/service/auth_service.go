package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"liberal-checkin/backend/config"
	"liberal-checkin/backend/internal/dto"
	"liberal-checkin/backend/pkg/jwt"
)

var ErrInvalidCredentials = errors.New("管理员密码错误")

const adminRole = "admin"

// TokenRevoker Token 吊销存储（Redis 黑名单）
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService 管理端认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type authService struct {
	passwordHash []byte
	jwtMgr       *jwt.Manager
	revoker      TokenRevoker
	logger       *zap.Logger
}

// NewAuthService 创建 AuthService 实例
// 启动时即对共享密码做 bcrypt 哈希，内存中不保留明文比较
func NewAuthService(cfg *config.AuthConfig, jwtMgr *jwt.Manager, revoker TokenRevoker, logger *zap.Logger) (AuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("生成管理员密码哈希失败: %w", err)
	}
	return &authService{
		passwordHash: hash,
		jwtMgr:       jwtMgr,
		revoker:      revoker,
		logger:       logger,
	}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	// 1. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)); err != nil {
		s.logger.Warn("管理员登录失败：密码错误")
		return nil, ErrInvalidCredentials
	}

	// 2. 签发 Access Token
	accessToken, err := s.jwtMgr.GenerateAccessToken(adminRole, adminRole)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("管理员登录成功")

	return &dto.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
	}, nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("写入 Token 黑名单失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}
