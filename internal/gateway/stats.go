// stats.go

package gateway

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

// LeaderboardReader 排行榜查询
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, t models.LeaderboardType, limit int) ([]models.LeaderboardEntry, error)
	GetRunRank(ctx context.Context, runID string, t models.LeaderboardType) (int, error)
}

// RunHistoryReader 历史对局查询
type RunHistoryReader interface {
	RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error)
}

// StatsHandler 战绩处理器，未启用的存储返回 503
type StatsHandler struct {
	leaderboard LeaderboardReader
	runs        RunHistoryReader
}

// NewStatsHandler 创建战绩处理器
func NewStatsHandler(leaderboard LeaderboardReader, runs RunHistoryReader) *StatsHandler {
	return &StatsHandler{
		leaderboard: leaderboard,
		runs:        runs,
	}
}

// RegisterHandlers 注册HTTP处理器
func (h *StatsHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/stats/leaderboard", h.handleLeaderboard)
	mux.HandleFunc("/stats/rank/", h.handleRunRank)
	mux.HandleFunc("/stats/runs", h.handleRecentRuns)
}

// RunRankData 单局排名
type RunRankData struct {
	RunID string                 `json:"run_id"`
	Type  models.LeaderboardType `json:"type"`
	Rank  int                    `json:"rank"` // 不在榜上时为 -1
}

// parseLimit 解析 limit 参数，范围 [1, 100]
func parseLimit(r *http.Request, def int) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 && l <= 100 {
			return l
		}
	}
	return def
}

// handleLeaderboard 处理排行榜查询
func (h *StatsHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}
	if h.leaderboard == nil {
		sendErrorResponse(w, "排行榜未启用", http.StatusServiceUnavailable)
		return
	}

	lbType, ok := models.ParseLeaderboardType(r.URL.Query().Get("type"))
	if !ok {
		sendErrorResponse(w, "无效的排行榜类型", http.StatusBadRequest)
		return
	}

	entries, err := h.leaderboard.GetLeaderboard(r.Context(), lbType, parseLimit(r, 50))
	if err != nil {
		log.Printf("查询排行榜失败: %v", err)
		sendErrorResponse(w, "查询排行榜失败", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	sendSuccessResponse(w, "查询成功", entries)
}

// handleRunRank 路径格式: /stats/rank/{run_id}?type=
func (h *StatsHandler) handleRunRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}
	if h.leaderboard == nil {
		sendErrorResponse(w, "排行榜未启用", http.StatusServiceUnavailable)
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/stats/rank/")
	if runID == "" {
		sendErrorResponse(w, "缺少对局ID", http.StatusBadRequest)
		return
	}
	lbType, ok := models.ParseLeaderboardType(r.URL.Query().Get("type"))
	if !ok {
		sendErrorResponse(w, "无效的排行榜类型", http.StatusBadRequest)
		return
	}

	rank, err := h.leaderboard.GetRunRank(r.Context(), runID, lbType)
	if err != nil {
		log.Printf("查询对局排名失败: %v", err)
		sendErrorResponse(w, "查询对局排名失败", http.StatusInternalServerError)
		return
	}

	sendSuccessResponse(w, "查询成功", RunRankData{RunID: runID, Type: lbType, Rank: rank})
}

// handleRecentRuns 最近结束的对局
func (h *StatsHandler) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}
	if h.runs == nil {
		sendErrorResponse(w, "数据库未启用", http.StatusServiceUnavailable)
		return
	}

	runs, err := h.runs.RecentRuns(r.Context(), parseLimit(r, 20))
	if err != nil {
		log.Printf("查询历史对局失败: %v", err)
		sendErrorResponse(w, "查询历史对局失败", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []models.RunRecord{}
	}

	sendSuccessResponse(w, "查询成功", runs)
}
