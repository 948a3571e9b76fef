// player.go

package models

import (
	"time"
)

// Player 玩家档案，跨局累计的统计
type Player struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 战斗数据统计
	BestLevel      int   `json:"best_level"`
	BestSurvivalMs int64 `json:"best_survival_ms"`
	TotalKills     int   `json:"total_kills"`
	TotalRuns      int   `json:"total_runs"`
}

// 注意：表结构定义已移至 pkg/db/schema.go 统一管理
