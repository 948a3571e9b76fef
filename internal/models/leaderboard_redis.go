package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLeaderboard Redis排行榜管理器
type RedisLeaderboard struct {
	client *redis.Client
}

// NewRedisLeaderboard 创建Redis排行榜管理器
func NewRedisLeaderboard(client *redis.Client) *RedisLeaderboard {
	return &RedisLeaderboard{
		client: client,
	}
}

// 排行榜Redis键名
const (
	LeaderboardLevelKey    = "leaderboard:level"
	LeaderboardKillsKey    = "leaderboard:kills"
	LeaderboardSurvivalKey = "leaderboard:survival"

	// 单局详细信息键前缀
	RunInfoPrefix = "run:info:"

	// 单局信息缓存时间
	RunInfoTTL = 7 * 24 * time.Hour
)

// SubmitRun 把一局结果写入全部排行榜
func (rl *RedisLeaderboard) SubmitRun(ctx context.Context, rec *RunRecord) error {
	entry := LeaderboardEntry{
		RunID:     rec.ID,
		Username:  rec.Username,
		Character: rec.Character,
		Level:     rec.Level,
		Kills:     rec.Kills,
		Survival:  rec.Survival.Milliseconds(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("序列化排行榜条目失败: %w", err)
	}

	_, err = rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, t := range []LeaderboardType{LeaderboardLevel, LeaderboardKills, LeaderboardSurvival} {
			pipe.ZAdd(ctx, LeaderboardKey(t), &redis.Z{
				Score:  rec.ScoreFor(t),
				Member: rec.ID,
			})
		}
		pipe.Set(ctx, RunInfoPrefix+rec.ID, data, RunInfoTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("写入排行榜失败: %w", err)
	}
	return nil
}

// GetLeaderboard 获取排行榜（按分数降序）
func (rl *RedisLeaderboard) GetLeaderboard(ctx context.Context, scoreType LeaderboardType, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	members, err := rl.client.ZRevRangeWithScores(ctx, LeaderboardKey(scoreType), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(members))
	for i, member := range members {
		runID, ok := member.Member.(string)
		if !ok {
			continue
		}

		entry, err := rl.getRunInfo(ctx, runID)
		if err != nil {
			// 详细信息过期，只保留分数
			entry = &LeaderboardEntry{RunID: runID}
		}

		entry.Score = member.Score
		entry.Rank = i + 1
		entries = append(entries, *entry)
	}

	return entries, nil
}

// GetRunRank 获取单局排名，不在榜上时返回 -1
func (rl *RedisLeaderboard) GetRunRank(ctx context.Context, runID string, scoreType LeaderboardType) (int, error) {
	rank, err := rl.client.ZRevRank(ctx, LeaderboardKey(scoreType), runID).Result()
	if err != nil {
		if err == redis.Nil {
			return -1, nil
		}
		return -1, err
	}

	return int(rank) + 1, nil // Redis排名从0开始，转换为从1开始
}

// LeaderboardKey 获取排行榜键名
func LeaderboardKey(scoreType LeaderboardType) string {
	switch scoreType {
	case LeaderboardKills:
		return LeaderboardKillsKey
	case LeaderboardSurvival:
		return LeaderboardSurvivalKey
	default:
		return LeaderboardLevelKey
	}
}

// getRunInfo 从Redis获取单局信息
func (rl *RedisLeaderboard) getRunInfo(ctx context.Context, runID string) (*LeaderboardEntry, error) {
	data, err := rl.client.Get(ctx, RunInfoPrefix+runID).Result()
	if err != nil {
		return nil, err
	}

	var entry LeaderboardEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, err
	}

	return &entry, nil
}
