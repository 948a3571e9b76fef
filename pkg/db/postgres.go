package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/jacl-coder/PixelStorm-Survivor/config"
	_ "github.com/lib/pq"
)

var (
	// DB 全局数据库连接实例，未启用数据库时为 nil
	DB *sql.DB
)

// InitPostgres 初始化PostgreSQL连接
func InitPostgres(cfg *config.DatabaseConfig) error {
	conn, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	// 单局记录写入频率很低，小连接池即可
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("数据库Ping失败: %w", err)
	}

	DB = conn
	log.Printf("成功连接到PostgreSQL数据库 %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return nil
}

// Close 关闭数据库连接
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
		log.Println("数据库连接已关闭")
	}
}
