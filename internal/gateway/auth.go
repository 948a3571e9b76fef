package gateway

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jacl-coder/PixelStorm-Survivor/config"
)

var (
	// ErrInvalidToken 令牌无效或已过期
	ErrInvalidToken = errors.New("无效的令牌")
	// ErrTokenRunMismatch 令牌不属于这一局
	ErrTokenRunMismatch = errors.New("令牌与对局不匹配")
)

// RunClaims 渲染端连接令牌，绑定到一局游戏
type RunClaims struct {
	RunID    string `json:"run_id"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// TokenService 签发和校验连接令牌
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService 创建令牌服务，未配置密钥时生成随机密钥
func NewTokenService(cfg config.AuthConfig) (*TokenService, error) {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("生成令牌密钥失败: %w", err)
		}
		log.Printf("未配置 auth.jwt_secret，使用随机密钥，重启后旧令牌失效")
	}

	ttl := time.Duration(cfg.TokenTTLSecs) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &TokenService{
		secret: secret,
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue 为一局游戏签发令牌
func (s *TokenService) Issue(runID, username string) (string, error) {
	now := s.now()
	claims := RunClaims{
		RunID:    runID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   runID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, nil
}

// Verify 校验令牌，runID 非空时要求令牌属于该局
func (s *TokenService) Verify(tokenString, runID string) (*RunClaims, error) {
	claims := &RunClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if runID != "" && claims.RunID != runID {
		return nil, ErrTokenRunMismatch
	}
	return claims, nil
}

// AuthHandler 令牌校验接口
type AuthHandler struct {
	tokens *TokenService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(tokens *TokenService) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

// ValidateRequest 校验请求
type ValidateRequest struct {
	Token string `json:"token"`
	RunID string `json:"run_id"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RunID     string `json:"run_id,omitempty"`
	Username  string `json:"username,omitempty"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}

// RegisterHandlers 注册HTTP处理器
func (h *AuthHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/auth/validate", h.handleValidate)
}

// handleValidate 校验令牌是否可以连接对局
func (h *AuthHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持POST方法", http.StatusMethodNotAllowed)
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "无效的请求格式", http.StatusBadRequest)
		return
	}

	resp := AuthResponse{Success: false, Message: "令牌无效"}
	status := http.StatusUnauthorized
	if claims, err := h.tokens.Verify(req.Token, req.RunID); err == nil {
		resp = AuthResponse{
			Success:  true,
			Message:  "令牌有效",
			RunID:    claims.RunID,
			Username: claims.Username,
		}
		if claims.ExpiresAt != nil {
			resp.ExpiresAt = claims.ExpiresAt.Unix()
		}
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
