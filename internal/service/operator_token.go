package service

import (
	"errors"
	"strings"
	"time"

	"github.com/crewpay-next/internal/config"
	"github.com/crewpay-next/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

// 操作员令牌错误
var (
	ErrOperatorTokenInvalid = errors.New("operator token is invalid")
	ErrOperatorRoleInvalid  = errors.New("operator role is invalid")
	ErrJWTSecretMissing     = errors.New("jwt secret is not configured")
)

// OperatorClaims 操作员令牌声明
type OperatorClaims struct {
	OperatorID string `json:"operator_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// OperatorTokenService 操作员令牌服务
type OperatorTokenService struct {
	cfg config.JWTConfig
}

// NewOperatorTokenService 创建操作员令牌服务
func NewOperatorTokenService(cfg config.JWTConfig) *OperatorTokenService {
	return &OperatorTokenService{cfg: cfg}
}

// IsOperatorRole 判断是否为已知角色
func IsOperatorRole(role string) bool {
	switch role {
	case constants.OperatorRoleAdmin, constants.OperatorRoleManager, constants.OperatorRoleViewer:
		return true
	default:
		return false
	}
}

// Issue 签发操作员令牌（用于种子数据与本地调试）
func (s *OperatorTokenService) Issue(operatorID, role string) (string, time.Time, error) {
	if strings.TrimSpace(s.cfg.SecretKey) == "" {
		return "", time.Time{}, ErrJWTSecretMissing
	}
	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" {
		return "", time.Time{}, ErrOperatorRequired
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !IsOperatorRole(role) {
		return "", time.Time{}, ErrOperatorRoleInvalid
	}
	hours := s.cfg.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	claims := OperatorClaims{
		OperatorID: operatorID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Parse 解析并校验操作员令牌
func (s *OperatorTokenService) Parse(tokenString string) (*OperatorClaims, error) {
	if s == nil || strings.TrimSpace(s.cfg.SecretKey) == "" {
		return nil, ErrJWTSecretMissing
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, ErrOperatorTokenInvalid
	}
	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid || strings.TrimSpace(claims.OperatorID) == "" {
		return nil, ErrOperatorTokenInvalid
	}
	if !IsOperatorRole(claims.Role) {
		return nil, ErrOperatorRoleInvalid
	}
	return claims, nil
}
