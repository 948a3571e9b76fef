// stats.go

package models

import (
	"time"
)

// RunRecord 单局记录，在房间销毁之后写入
type RunRecord struct {
	ID         string        `json:"id"`
	Username   string        `json:"username"`
	Character  string        `json:"character"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Level      int           `json:"level"`
	Exp        int           `json:"exp"`
	Kills      int           `json:"kills"`
	Survival   time.Duration `json:"survival"` // 模拟时间
	PlayerDied bool          `json:"player_died"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	RunID     string  `json:"run_id"`
	Username  string  `json:"username"`
	Character string  `json:"character"`
	Level     int     `json:"level"`
	Kills     int     `json:"kills"`
	Survival  int64   `json:"survival_ms"`
	Score     float64 `json:"score"`
	Rank      int     `json:"rank"` // 排名
}

// LeaderboardType 排行榜类型
type LeaderboardType string

const (
	// LeaderboardLevel 等级排行榜
	LeaderboardLevel LeaderboardType = "level"
	// LeaderboardKills 击杀排行榜
	LeaderboardKills LeaderboardType = "kills"
	// LeaderboardSurvival 存活时间排行榜
	LeaderboardSurvival LeaderboardType = "survival"
)

// ParseLeaderboardType 解析排行榜类型，未知类型返回 false
func ParseLeaderboardType(s string) (LeaderboardType, bool) {
	switch LeaderboardType(s) {
	case LeaderboardLevel, LeaderboardKills, LeaderboardSurvival:
		return LeaderboardType(s), true
	case "":
		return LeaderboardLevel, true
	}
	return "", false
}

// ScoreFor 取记录在指定排行榜上的分数
func (r *RunRecord) ScoreFor(t LeaderboardType) float64 {
	switch t {
	case LeaderboardKills:
		return float64(r.Kills)
	case LeaderboardSurvival:
		return float64(r.Survival.Milliseconds())
	default:
		// 同等级按经验排序
		return float64(r.Level) + float64(r.Exp)/1e6
	}
}

// 注意：表结构定义已移至 pkg/db/schema.go 统一管理
