// websocket.go

package game

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/protocol"
)

const (
	// 写入超时时间
	writeWait = 10 * time.Second

	// 读取超时时间
	pongWait = 60 * time.Second

	// 发送 ping 的间隔时间
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小，客户端只发送指令
	maxMessageSize = 4 * 1024

	// 发送队列长度，渲染端跟不上时丢弃旧快照
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// 允许所有跨域请求
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// outFrame 待发送的帧
type outFrame struct {
	messageType int
	data        []byte
}

// RendererConnection 渲染端连接，只订阅一局
type RendererConnection struct {
	ID     string
	Room   *Room
	format protocol.Format

	send    chan outFrame
	closed  chan struct{}
	once    sync.Once
	dropped int
	mutex   sync.Mutex
}

func newRendererConnection(room *Room, format protocol.Format) *RendererConnection {
	return &RendererConnection{
		ID:     room.ID,
		Room:   room,
		format: format,
		send:   make(chan outFrame, sendBufferSize),
		closed: make(chan struct{}),
	}
}

// OnSnapshot 在模拟协程中调用，编码后非阻塞地放入发送队列
func (c *RendererConnection) OnSnapshot(s *models.Snapshot) {
	data, err := protocol.EncodeSnapshotAs(c.format, s)
	if err != nil {
		log.Printf("编码快照失败: %v", err)
		return
	}
	frame := outFrame{messageType: websocket.TextMessage, data: data}
	if c.format.Binary() {
		frame.messageType = websocket.BinaryMessage
	}
	c.enqueue(frame)
}

// enqueue 队列满时丢弃最旧的一帧
func (c *RendererConnection) enqueue(frame outFrame) {
	for {
		select {
		case <-c.closed:
			return
		case c.send <- frame:
			return
		default:
		}
		select {
		case <-c.send:
			c.mutex.Lock()
			c.dropped++
			c.mutex.Unlock()
		default:
		}
	}
}

// sendMessage 发送文本消息
func (c *RendererConnection) sendMessage(msgType string, payload interface{}) {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		log.Printf("序列化消息失败: %v", err)
		return
	}
	c.enqueue(outFrame{messageType: websocket.TextMessage, data: data})
}

// Dropped 因渲染端过慢丢弃的帧数
func (c *RendererConnection) Dropped() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.dropped
}

func (c *RendererConnection) close() {
	c.once.Do(func() {
		close(c.closed)
	})
}

// handleWSConnection 处理WebSocket连接
func (s *GameServer) handleWSConnection(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")
	token := r.URL.Query().Get("token")
	if runID == "" || token == "" {
		http.Error(w, "未授权", http.StatusUnauthorized)
		return
	}

	if _, err := s.tokens.Verify(token, runID); err != nil {
		log.Printf("对局 %s 令牌校验失败: %v", runID, err)
		http.Error(w, "未授权", http.StatusUnauthorized)
		return
	}

	room, ok := s.GetRoom(runID)
	if !ok {
		http.Error(w, "对局不存在", http.StatusNotFound)
		return
	}
	if room.IsEnded() {
		http.Error(w, "对局已结束", http.StatusGone)
		return
	}

	format, ok := protocol.ParseFormat(r.URL.Query().Get("format"))
	if !ok {
		http.Error(w, "不支持的快照格式", http.StatusBadRequest)
		return
	}

	client := newRendererConnection(room, format)
	if !s.addConnection(client) {
		http.Error(w, "对局已有渲染端连接", http.StatusConflict)
		return
	}

	// 升级HTTP连接为WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket升级失败: %v", err)
		s.removeConnection(client)
		return
	}

	log.Printf("渲染端已连接对局 %s", runID)

	character := room.Character()
	client.sendMessage(protocol.MsgWelcome, protocol.WelcomePayload{
		RunID:     room.ID,
		Character: character,
		Skills:    initialRoster(character),
	})

	unsubscribe := room.Subscribe(client)

	// 启动读写协程
	go s.writePump(conn, client)
	go s.readPump(conn, client, unsubscribe)
}

// initialRoster 连接时的技能栏，冷却状态随后续快照更新
func initialRoster(c models.Character) []models.SkillInfo {
	roster := make([]models.SkillInfo, 0, len(c.Skills))
	for _, id := range c.Skills {
		def, ok := LookupSkill(id)
		if !ok {
			continue
		}
		roster = append(roster, models.SkillInfo{
			ID:            def.ID,
			Name:          def.Name,
			Level:         1,
			CooldownMs:    def.Cooldown.Milliseconds(),
			LastCastMs:    -1,
			AutoTriggered: def.AutoTriggered,
		})
	}
	return roster
}

func (s *GameServer) addConnection(c *RendererConnection) bool {
	s.connMutex.Lock()
	defer s.connMutex.Unlock()
	if _, exists := s.connections[c.ID]; exists {
		return false
	}
	s.connections[c.ID] = c
	return true
}

func (s *GameServer) removeConnection(c *RendererConnection) {
	s.connMutex.Lock()
	defer s.connMutex.Unlock()
	if s.connections[c.ID] == c {
		delete(s.connections, c.ID)
	}
}

// readPump 从WebSocket读取指令并投递到房间
func (s *GameServer) readPump(conn *websocket.Conn, client *RendererConnection, unsubscribe func()) {
	defer func() {
		unsubscribe()
		client.close()
		s.removeConnection(client)
		conn.Close()
		log.Printf("渲染端已断开对局 %s，丢弃帧数: %d", client.ID, client.Dropped())
	}()

	// 设置读取参数
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket错误: %v", err)
			}
			return
		}

		s.handleMessage(client, message)
	}
}

// handleMessage 解析客户端指令，房间结束后的指令直接忽略
func (s *GameServer) handleMessage(client *RendererConnection, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		client.sendMessage(protocol.MsgError, protocol.ErrorPayload{Message: err.Error()})
		return
	}

	var cmd any
	switch msg.Type {
	case protocol.MsgMove:
		var p protocol.MovePayload
		if err := protocol.DecodePayload(msg, &p); err != nil {
			client.sendMessage(protocol.MsgError, protocol.ErrorPayload{Message: err.Error()})
			return
		}
		cmd = MoveCommand{Direction: protocol.ConvertMoveToVector(p)}
	case protocol.MsgCast:
		var p protocol.CastPayload
		if err := protocol.DecodePayload(msg, &p); err != nil {
			client.sendMessage(protocol.MsgError, protocol.ErrorPayload{Message: err.Error()})
			return
		}
		cmd = CastCommand{SkillID: models.SkillID(p.SkillID)}
	default:
		client.sendMessage(protocol.MsgError, protocol.ErrorPayload{Message: "未知消息类型: " + msg.Type})
		return
	}

	if err := client.Room.Post(cmd); errors.Is(err, ErrInboxFull) {
		client.sendMessage(protocol.MsgError, protocol.ErrorPayload{Message: err.Error()})
	}
}

// writePump 向WebSocket写入数据，房间结束后发送剩余帧并关闭
func (s *GameServer) writePump(conn *websocket.Conn, client *RendererConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	write := func(frame outFrame) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(frame.messageType, frame.data) == nil
	}

	for {
		select {
		case frame := <-client.send:
			if !write(frame) {
				return
			}
		case <-client.Room.Done():
		drain:
			for {
				select {
				case frame := <-client.send:
					if !write(frame) {
						return
					}
				default:
					break drain
				}
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "对局结束"))
			return
		case <-client.closed:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
