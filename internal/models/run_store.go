package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresRunStore 单局历史的PostgreSQL存储
type PostgresRunStore struct {
	db *sql.DB
}

// NewPostgresRunStore 创建单局历史存储
func NewPostgresRunStore(db *sql.DB) *PostgresRunStore {
	return &PostgresRunStore{db: db}
}

const insertRunSQL = `
INSERT INTO run_records (id, username, character_id, start_time, end_time, level, exp, kills, survival_ms, player_died)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING`

const upsertPlayerSQL = `
INSERT INTO players (username, best_level, best_survival_ms, total_kills, total_runs, created_at, updated_at)
VALUES ($1, $2, $3, $4, 1, $5, $5)
ON CONFLICT (username) DO UPDATE SET
    best_level = GREATEST(players.best_level, EXCLUDED.best_level),
    best_survival_ms = GREATEST(players.best_survival_ms, EXCLUDED.best_survival_ms),
    total_kills = players.total_kills + EXCLUDED.total_kills,
    total_runs = players.total_runs + 1,
    updated_at = EXCLUDED.updated_at`

// SaveRun 保存单局记录并更新玩家档案
func (s *PostgresRunStore) SaveRun(ctx context.Context, rec *RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertRunSQL,
		rec.ID, rec.Username, rec.Character, rec.StartTime, rec.EndTime,
		rec.Level, rec.Exp, rec.Kills, rec.Survival.Milliseconds(), rec.PlayerDied,
	); err != nil {
		return fmt.Errorf("写入单局记录失败: %w", err)
	}

	if _, err := tx.ExecContext(ctx, upsertPlayerSQL,
		rec.Username, rec.Level, rec.Survival.Milliseconds(), rec.Kills, time.Now(),
	); err != nil {
		return fmt.Errorf("更新玩家档案失败: %w", err)
	}

	return tx.Commit()
}

// RecentRuns 按结束时间倒序获取最近的单局记录
func (s *PostgresRunStore) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, character_id, start_time, end_time, level, exp, kills, survival_ms, player_died
		FROM run_records
		ORDER BY end_time DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询单局记录失败: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var survivalMs int64
		if err := rows.Scan(
			&rec.ID, &rec.Username, &rec.Character, &rec.StartTime, &rec.EndTime,
			&rec.Level, &rec.Exp, &rec.Kills, &survivalMs, &rec.PlayerDied,
		); err != nil {
			return nil, fmt.Errorf("解析单局记录失败: %w", err)
		}
		rec.Survival = time.Duration(survivalMs) * time.Millisecond
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetPlayer 按用户名获取玩家档案
func (s *PostgresRunStore) GetPlayer(ctx context.Context, username string) (*Player, error) {
	var p Player
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, best_level, best_survival_ms, total_kills, total_runs, created_at, updated_at
		FROM players WHERE username = $1`, username).Scan(
		&p.ID, &p.Username, &p.BestLevel, &p.BestSurvivalMs, &p.TotalKills, &p.TotalRuns, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
