package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

// 消息类型
const (
	MsgSnapshot = "snapshot"
	MsgMove     = "move"
	MsgCast     = "cast"
	MsgError    = "error"
	MsgWelcome  = "welcome"
)

// Message 文本帧的消息信封
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MovePayload 移动方向，不需要归一化
type MovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CastPayload 手动释放技能
type CastPayload struct {
	SkillID string `json:"skill_id"`
}

// ErrorPayload 错误提示
type ErrorPayload struct {
	Message string `json:"message"`
}

// WelcomePayload 连接建立后的第一条消息
type WelcomePayload struct {
	RunID     string             `json:"run_id"`
	Character models.Character   `json:"character"`
	Skills    []models.SkillInfo `json:"skills"`
}

// Encode 把载荷包装为消息信封
func Encode(msgType string, payload interface{}) ([]byte, error) {
	msg := Message{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("序列化 %s 载荷失败: %w", msgType, err)
		}
		msg.Payload = data
	}
	return json.Marshal(msg)
}

// Decode 解析消息信封
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("解析消息失败: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("消息缺少类型")
	}
	return &msg, nil
}

// DecodePayload 解析信封中的载荷
func DecodePayload(msg *Message, v interface{}) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s 消息缺少载荷", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("解析 %s 载荷失败: %w", msg.Type, err)
	}
	return nil
}

// ConvertMoveToVector 把移动载荷转换为方向向量
func ConvertMoveToVector(p MovePayload) models.Vector2D {
	return models.Vector2D{X: p.X, Y: p.Y}
}

// EncodeSnapshotJSON 文本帧格式的快照
func EncodeSnapshotJSON(s *models.Snapshot) ([]byte, error) {
	return Encode(MsgSnapshot, s)
}
