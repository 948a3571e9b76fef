// main.go

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacl-coder/PixelStorm-Survivor/config"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/game"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
	"github.com/jacl-coder/PixelStorm-Survivor/pkg/db"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	envPath := flag.String("env", ".env", "环境变量文件路径")
	flag.Parse()

	if err := config.LoadEnvFile(*envPath); err != nil {
		log.Fatalf("%v", err)
	}

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	cfg := &config.GlobalConfig

	opts := game.ServerOptions{}
	var recorders game.MultiRecorder

	// 初始化数据库连接
	if cfg.Database.Enabled {
		if err := db.InitPostgres(&cfg.Database); err != nil {
			log.Fatalf("初始化PostgreSQL失败: %v", err)
		}
		defer db.Close()

		store := models.NewPostgresRunStore(db.DB)
		recorders = append(recorders, game.RecorderFunc(store.SaveRun))
		opts.Players = store
		opts.Runs = store
	} else {
		log.Println("数据库未启用，单局记录不会持久化")
	}

	// 初始化Redis连接
	if cfg.Redis.Enabled {
		if err := db.InitRedis(&cfg.Redis); err != nil {
			log.Fatalf("初始化Redis失败: %v", err)
		}
		defer db.CloseRedis()

		leaderboard := models.NewRedisLeaderboard(db.RedisClient)
		recorders = append(recorders, game.RecorderFunc(leaderboard.SubmitRun))
		opts.Leaderboard = leaderboard
	} else {
		log.Println("Redis未启用，排行榜不可用")
	}

	if len(recorders) > 0 {
		opts.Recorder = recorders
	} else {
		opts.Recorder = game.RecorderFunc(func(ctx context.Context, rec *models.RunRecord) error {
			log.Printf("对局 %s 结果: 等级 %d，击杀 %d，存活 %v", rec.ID, rec.Level, rec.Kills, rec.Survival)
			return nil
		})
	}

	server, err := game.NewGameServer(cfg, opts)
	if err != nil {
		log.Fatalf("创建游戏服务器失败: %v", err)
	}

	// 启动服务器
	if err := server.Start(); err != nil {
		log.Fatalf("启动游戏服务器失败: %v", err)
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("接收到关闭信号，正在关闭服务器...")

	if err := server.Stop(); err != nil {
		log.Printf("关闭服务器出错: %v", err)
	}

	log.Println("服务器已安全关闭")
}
