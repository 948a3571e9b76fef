// server.go

package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/jacl-coder/PixelStorm-Survivor/config"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/gateway"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

// ServerOptions 服务器依赖，存储未启用时对应字段为 nil
type ServerOptions struct {
	Tokens      *gateway.TokenService
	Recorder    RunRecorder
	Players     gateway.PlayerReader
	Leaderboard gateway.LeaderboardReader
	Runs        gateway.RunHistoryReader
}

// GameServer 游戏服务器
type GameServer struct {
	config     *config.Config
	rooms      map[string]*Room
	roomsMutex sync.RWMutex
	httpServer *http.Server

	tokens   *gateway.TokenService
	recorder RunRecorder
	gateway  *gateway.Gateway

	// 每局只允许一个渲染端连接
	connections map[string]*RendererConnection
	connMutex   sync.Mutex

	// 关闭信号
	shutdown  chan struct{}
	isRunning bool
}

// NewGameServer 创建新的游戏服务器
func NewGameServer(cfg *config.Config, opts ServerOptions) (*GameServer, error) {
	tokens := opts.Tokens
	if tokens == nil {
		var err error
		tokens, err = gateway.NewTokenService(cfg.Auth)
		if err != nil {
			return nil, err
		}
	}

	return &GameServer{
		config:   cfg,
		rooms:    make(map[string]*Room),
		tokens:   tokens,
		recorder: opts.Recorder,
		gateway: gateway.NewGateway(cfg, gateway.Options{
			Tokens:      tokens,
			Skills:      LookupSkill,
			Players:     opts.Players,
			Leaderboard: opts.Leaderboard,
			Runs:        opts.Runs,
		}),
		connections: make(map[string]*RendererConnection),
		shutdown:    make(chan struct{}),
	}, nil
}

// Start 启动游戏服务器
func (s *GameServer) Start() error {
	if s.isRunning {
		return fmt.Errorf("服务器已经在运行")
	}

	// 初始化HTTP服务器
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Server.GamePort),
		Handler: s.Handler(),
	}

	// 启动HTTP服务器
	go func() {
		log.Printf("游戏服务器启动，监听端口: %d", s.config.Server.GamePort)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP服务器错误: %v", err)
		}
	}()

	// 启动房间管理
	go s.roomManager()

	s.isRunning = true
	return nil
}

// Stop 停止游戏服务器
func (s *GameServer) Stop() error {
	if !s.isRunning {
		s.stopRooms()
		s.gateway.Stop()
		WaitRecorded()
		return nil
	}

	// 发送关闭信号
	close(s.shutdown)

	// 关闭HTTP服务器，已升级的 WebSocket 连接不受影响
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)

	// 关闭所有房间，渲染端连接随房间结束关闭
	s.stopRooms()
	s.gateway.Stop()
	WaitRecorded()

	s.isRunning = false
	if err != nil {
		return fmt.Errorf("HTTP服务器关闭错误: %w", err)
	}
	log.Println("游戏服务器已停止")
	return nil
}

func (s *GameServer) stopRooms() {
	s.roomsMutex.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.roomsMutex.Unlock()

	for _, room := range rooms {
		room.Stop()
	}
}

// Handler 创建HTTP处理器，包含中间件
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/runs", s.handleRuns)

	// WebSocket 连接端点
	mux.HandleFunc("/ws", s.handleWSConnection)

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	s.gateway.RegisterHandlers(mux)

	return s.gateway.Wrap(mux)
}

// roomManager 房间管理器
func (s *GameServer) roomManager() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupRooms()
		case <-s.shutdown:
			return
		}
	}
}

// cleanupRooms 清理已结束的房间
func (s *GameServer) cleanupRooms() int {
	s.roomsMutex.Lock()
	var ended []*Room
	for id, room := range s.rooms {
		if room.IsEnded() {
			ended = append(ended, room)
			delete(s.rooms, id)
		}
	}
	s.roomsMutex.Unlock()

	for _, room := range ended {
		log.Printf("清理已结束房间: %s", room.ID)
		room.Stop()
	}
	return len(ended)
}

// CreateRoom 创建并启动一局游戏
func (s *GameServer) CreateRoom(username, character string) (*Room, error) {
	s.roomsMutex.Lock()
	defer s.roomsMutex.Unlock()

	if limit := s.config.Server.MaxRoomCount; limit > 0 {
		active := 0
		for _, room := range s.rooms {
			if !room.IsEnded() {
				active++
			}
		}
		if active >= limit {
			return nil, ErrRoomLimit
		}
	}

	room, err := NewRoom(RoomOptions{
		Username:   username,
		Character:  character,
		Simulation: s.config.Simulation,
		Recorder:   s.recorder,
	})
	if err != nil {
		return nil, err
	}
	if err := room.Start(); err != nil {
		return nil, err
	}
	s.rooms[room.ID] = room

	log.Printf("创建房间: %s, 玩家: %s, 角色: %s", room.ID, username, room.Character().ID)
	return room, nil
}

// GetRoom 获取房间
func (s *GameServer) GetRoom(roomID string) (*Room, bool) {
	s.roomsMutex.RLock()
	defer s.roomsMutex.RUnlock()

	room, exists := s.rooms[roomID]
	return room, exists
}

// ListRooms 列出所有房间，按创建时间排序
func (s *GameServer) ListRooms() []models.RoomInfo {
	s.roomsMutex.RLock()
	infos := make([]models.RoomInfo, 0, len(s.rooms))
	for _, room := range s.rooms {
		infos = append(infos, room.Info())
	}
	s.roomsMutex.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// 未提供用户名时的档案名
const defaultUsername = "guest"

// CreateRunRequest 创建对局请求，字段均可省略
type CreateRunRequest struct {
	Username  string `json:"username"`
	Character string `json:"character"`
}

// CreateRunResponse 创建对局响应，token 用于连接 /ws
type CreateRunResponse struct {
	RunID     string `json:"run_id"`
	Token     string `json:"token"`
	Character string `json:"character"`
}

// handleRuns POST 创建对局，GET 列出对局
func (s *GameServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.ListRooms())
	case http.MethodPost:
		s.handleCreateRun(w, r)
	default:
		http.Error(w, "仅支持GET和POST方法", http.StatusMethodNotAllowed)
	}
}

func (s *GameServer) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "无效的请求格式", http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		req.Username = defaultUsername
	}

	room, err := s.CreateRoom(req.Username, req.Character)
	switch {
	case errors.Is(err, ErrRoomLimit):
		http.Error(w, "房间数量已达上限", http.StatusServiceUnavailable)
		return
	case errors.Is(err, ErrNotFound):
		http.Error(w, "角色不存在", http.StatusBadRequest)
		return
	case err != nil:
		log.Printf("创建房间失败: %v", err)
		http.Error(w, "创建房间失败", http.StatusInternalServerError)
		return
	}

	token, err := s.tokens.Issue(room.ID, req.Username)
	if err != nil {
		log.Printf("签发令牌失败: %v", err)
		room.Stop()
		http.Error(w, "签发令牌失败", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, CreateRunResponse{
		RunID:     room.ID,
		Token:     token,
		Character: room.Character().ID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("编码响应失败: %v", err)
	}
}
