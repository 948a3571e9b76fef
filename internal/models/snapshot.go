package models

import "time"

// EventType 离散通知类型
type EventType string

const (
	EventEnemyHit    EventType = "enemy_hit"
	EventEnemyDeath  EventType = "enemy_death"
	EventLevelUp     EventType = "level_up"
	EventExplosion   EventType = "explosion"
	EventPlayerDeath EventType = "player_death"
)

// Event 离散通知，渲染端可以忽略而不影响模拟状态
type Event struct {
	Type     EventType     `json:"type"`
	At       time.Duration `json:"at"`
	EntityID string        `json:"entity_id,omitempty"`
	Position Vector2D      `json:"position"`
	Value    int           `json:"value,omitempty"`  // 伤害或新等级
	Radius   float64       `json:"radius,omitempty"` // 范围效果半径
}

// PlayerView 快照中的玩家
type PlayerView struct {
	ID        string   `json:"id"`
	Position  Vector2D `json:"position"`
	Health    int      `json:"health"`
	MaxHealth int      `json:"max_health"`
	Exp       int      `json:"exp"`
	ExpToNext int      `json:"exp_to_next"`
	Level     int      `json:"level"`
	Kills     int      `json:"kills"`
	IsAlive   bool     `json:"is_alive"`
	Shield    int      `json:"shield"` // 当前剩余吸收额度之和
}

// EnemyView 快照中的敌人
type EnemyView struct {
	ID       string   `json:"id"`
	Position Vector2D `json:"position"`
	Health   int      `json:"health"`
}

// BulletView 快照中的子弹
type BulletView struct {
	ID       string   `json:"id"`
	Position Vector2D `json:"position"`
}

// OrbView 快照中的经验球
type OrbView struct {
	ID        string   `json:"id"`
	Position  Vector2D `json:"position"`
	Value     int      `json:"value"`
	Collected bool     `json:"collected"`
}

// GolemView 快照中的召唤傀儡
type GolemView struct {
	ID        string        `json:"id"`
	Position  Vector2D      `json:"position"`
	Health    int           `json:"health"`
	ExpiresAt time.Duration `json:"expires_at"`
}

// Snapshot 每个tick发布一次的只读状态
type Snapshot struct {
	RoomID  string        `json:"room_id"`
	Tick    int64         `json:"tick"`
	Time    time.Duration `json:"time"`
	Status  RoomStatus    `json:"status"`
	Player  PlayerView    `json:"player"`
	Enemies []EnemyView   `json:"enemies"`
	Bullets []BulletView  `json:"bullets"`
	Orbs    []OrbView     `json:"orbs"`
	Golems  []GolemView   `json:"golems,omitempty"`
	Skills  []SkillInfo   `json:"skills"`
	Events  []Event       `json:"events,omitempty"`
}
