package gateway

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

// PlayerReader 玩家档案查询
type PlayerReader interface {
	GetPlayer(ctx context.Context, username string) (*models.Player, error)
}

// ProfileHandler 玩家档案处理器
type ProfileHandler struct {
	players PlayerReader
}

// NewProfileHandler 创建玩家档案处理器，players 为空时接口返回 503
func NewProfileHandler(players PlayerReader) *ProfileHandler {
	return &ProfileHandler{players: players}
}

// RegisterHandlers 注册HTTP处理器
func (h *ProfileHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/players/", h.handlePlayerProfile)
}

// PlayerProfileInfo 玩家档案信息
type PlayerProfileInfo struct {
	*models.Player
	Statistics PlayerStatistics `json:"statistics"`
}

// PlayerStatistics 由档案计算的统计
type PlayerStatistics struct {
	AverageKills   float64 `json:"average_kills"`
	BestSurvivalMs int64   `json:"best_survival_ms"`
}

// handlePlayerProfile 路径格式: /players/{username}
func (h *ProfileHandler) handlePlayerProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}
	if h.players == nil {
		sendErrorResponse(w, "数据库未启用", http.StatusServiceUnavailable)
		return
	}

	username := strings.Trim(strings.TrimPrefix(r.URL.Path, "/players/"), "/")
	if username == "" || strings.Contains(username, "/") {
		sendErrorResponse(w, "无效的用户名", http.StatusBadRequest)
		return
	}

	player, err := h.players.GetPlayer(r.Context(), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			sendErrorResponse(w, "玩家不存在", http.StatusNotFound)
			return
		}
		log.Printf("查询玩家信息失败: %v", err)
		sendErrorResponse(w, "查询玩家信息失败", http.StatusInternalServerError)
		return
	}

	stats := PlayerStatistics{BestSurvivalMs: player.BestSurvivalMs}
	if player.TotalRuns > 0 {
		stats.AverageKills = float64(player.TotalKills) / float64(player.TotalRuns)
	}

	sendSuccessResponse(w, "查询成功", &PlayerProfileInfo{Player: player, Statistics: stats})
}
