// schema.go

package db

// 统一的数据库表结构定义

// CreateAllTablesSQL 创建所有表的SQL语句
const CreateAllTablesSQL = `
-- 玩家档案表
CREATE TABLE IF NOT EXISTS players (
    id SERIAL PRIMARY KEY,
    username VARCHAR(50) UNIQUE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,

    -- 最佳成绩和累计统计
    best_level INT DEFAULT 1,
    best_survival_ms BIGINT DEFAULT 0,
    total_kills INT DEFAULT 0,
    total_runs INT DEFAULT 0
);

-- 单局记录表
CREATE TABLE IF NOT EXISTS run_records (
    id VARCHAR(50) PRIMARY KEY,
    username VARCHAR(50) NOT NULL,
    character_id VARCHAR(50) NOT NULL,
    start_time TIMESTAMP WITH TIME ZONE NOT NULL,
    end_time TIMESTAMP WITH TIME ZONE NOT NULL,
    level INT NOT NULL,
    exp INT NOT NULL,
    kills INT NOT NULL,
    survival_ms BIGINT NOT NULL,
    player_died BOOLEAN DEFAULT false
);

-- 创建索引以提高查询性能
CREATE INDEX IF NOT EXISTS idx_players_username ON players(username);
CREATE INDEX IF NOT EXISTS idx_run_records_username ON run_records(username);
CREATE INDEX IF NOT EXISTS idx_run_records_end_time ON run_records(end_time);
`

// DropAllTablesSQL 删除所有表的SQL语句
const DropAllTablesSQL = `
DROP TABLE IF EXISTS run_records CASCADE;
DROP TABLE IF EXISTS players CASCADE;
`

// InitAllTables 初始化所有数据库表
func InitAllTables() error {
	_, err := DB.Exec(CreateAllTablesSQL)
	if err != nil {
		return err
	}
	return nil
}

// DropAllTables 删除所有数据库表
func DropAllTables() error {
	_, err := DB.Exec(DropAllTablesSQL)
	return err
}
