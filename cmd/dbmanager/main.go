// main.go

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jacl-coder/PixelStorm-Survivor/config"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
	"github.com/jacl-coder/PixelStorm-Survivor/pkg/db"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	action := flag.String("action", "help", "操作类型: reset, init, seed, help")
	flag.Parse()

	// 显示帮助信息
	if *action == "help" {
		showHelp()
		return
	}

	if err := config.LoadEnvFile(".env"); err != nil {
		log.Fatalf("%v", err)
	}

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库连接
	if err := db.InitPostgres(&config.GlobalConfig.Database); err != nil {
		log.Fatalf("初始化PostgreSQL失败: %v", err)
	}
	defer db.Close()

	// 执行操作
	switch *action {
	case "reset":
		resetDatabase()
	case "init":
		initDatabase()
	case "seed":
		seedRuns()
	default:
		log.Fatalf("未知操作: %s", *action)
	}
}

// showHelp 显示帮助信息
func showHelp() {
	log.Println("PixelStorm Survivor 数据库管理工具")
	log.Println("")
	log.Println("用法:")
	log.Println("  go run ./cmd/dbmanager -action=<操作> [-config=<配置文件>]")
	log.Println("")
	log.Println("操作:")
	log.Println("  reset  - 重置数据库（删除所有表和数据）")
	log.Println("  init   - 初始化数据库（创建表结构）")
	log.Println("  seed   - 写入示例对局记录，Redis 启用时同时写入排行榜")
	log.Println("  help   - 显示此帮助信息")
}

// resetDatabase 重置数据库
func resetDatabase() {
	log.Println("正在重置数据库，这将删除所有表和数据")

	if err := db.DropAllTables(); err != nil {
		log.Fatalf("重置数据库失败: %v", err)
	}

	log.Println("数据库重置完成")
}

// initDatabase 初始化数据库
func initDatabase() {
	log.Println("正在初始化数据库...")

	if err := db.InitAllTables(); err != nil {
		log.Fatalf("初始化数据库表失败: %v", err)
	}

	log.Println("数据库初始化完成，已创建表: players, run_records")
}

// seedRuns 写入示例对局
func seedRuns() {
	if err := db.InitAllTables(); err != nil {
		log.Fatalf("初始化数据库表失败: %v", err)
	}

	store := models.NewPostgresRunStore(db.DB)

	var leaderboard *models.RedisLeaderboard
	if config.GlobalConfig.Redis.Enabled {
		if err := db.InitRedis(&config.GlobalConfig.Redis); err != nil {
			log.Fatalf("初始化Redis失败: %v", err)
		}
		defer db.CloseRedis()
		leaderboard = models.NewRedisLeaderboard(db.RedisClient)
	}

	samples := []struct {
		username  string
		character string
		level     int
		kills     int
		survival  time.Duration
	}{
		{"testuser1", "survivor", 5, 42, 3 * time.Minute},
		{"testuser2", "survivor", 9, 130, 8*time.Minute + 20*time.Second},
		{"testuser2", "mage", 3, 17, 95 * time.Second},
		{"testuser3", "mage", 7, 88, 6 * time.Minute},
	}

	ctx := context.Background()
	end := time.Now()
	for _, s := range samples {
		rec := &models.RunRecord{
			ID:         uuid.New().String(),
			Username:   s.username,
			Character:  s.character,
			StartTime:  end.Add(-s.survival),
			EndTime:    end,
			Level:      s.level,
			Kills:      s.kills,
			Survival:   s.survival,
			PlayerDied: true,
		}
		if err := store.SaveRun(ctx, rec); err != nil {
			log.Fatalf("写入对局记录失败: %v", err)
		}
		if leaderboard != nil {
			if err := leaderboard.SubmitRun(ctx, rec); err != nil {
				log.Fatalf("写入排行榜失败: %v", err)
			}
		}
	}

	log.Printf("已写入 %d 条示例对局记录", len(samples))
}
