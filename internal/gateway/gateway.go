// gateway.go

package gateway

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jacl-coder/PixelStorm-Survivor/config"
)

// Options 网关依赖，存储未启用时对应字段为 nil
type Options struct {
	Tokens      *TokenService
	Skills      SkillLookup
	Players     PlayerReader
	Leaderboard LeaderboardReader
	Runs        RunHistoryReader
}

// Gateway HTTP 入口，负责中间件和查询接口
type Gateway struct {
	config      *config.Config
	rateLimiter *RateLimiter
	cache       *CacheMiddleware

	auth       *AuthHandler
	characters *CharacterHandler
	profiles   *ProfileHandler
	stats      *StatsHandler
}

// NewGateway 创建新的网关
func NewGateway(cfg *config.Config, opts Options) *Gateway {
	g := &Gateway{
		config:      cfg,
		rateLimiter: NewRateLimiter(cfg.Server.RateLimitPerMin),
		cache:       NewCacheMiddleware(),
		characters:  NewCharacterHandler(opts.Skills),
		profiles:    NewProfileHandler(opts.Players),
		stats:       NewStatsHandler(opts.Leaderboard, opts.Runs),
	}
	if opts.Tokens != nil {
		g.auth = NewAuthHandler(opts.Tokens)
	}
	return g
}

// RegisterHandlers 注册查询接口
func (g *Gateway) RegisterHandlers(mux *http.ServeMux) {
	if g.auth != nil {
		g.auth.RegisterHandlers(mux)
	}
	g.characters.RegisterHandlers(mux)
	g.profiles.RegisterHandlers(mux)
	g.stats.RegisterHandlers(mux)
}

// Wrap 应用中间件（从外到内）
func (g *Gateway) Wrap(h http.Handler) http.Handler {
	return Chain(h,
		LoggingMiddleware,
		SecurityMiddleware,
		CORSMiddleware,
		g.rateLimiter.Middleware,
		g.cache.Middleware,
	)
}

// Stop 停止后台协程
func (g *Gateway) Stop() {
	g.rateLimiter.Stop()
}

// APIResponse 统一响应格式
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// sendSuccessResponse 发送成功响应
func sendSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// sendErrorResponse 发送错误响应
func sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, APIResponse{
		Success: false,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("编码响应失败: %v", err)
	}
}
