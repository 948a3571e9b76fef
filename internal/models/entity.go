// entity.go

package models

import (
	"math"
	"time"
)

// Vector2D 二维向量
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add 向量相加
func (v Vector2D) Add(o Vector2D) Vector2D {
	return Vector2D{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale 向量缩放
func (v Vector2D) Scale(k float64) Vector2D {
	return Vector2D{X: v.X * k, Y: v.Y * k}
}

// Length 向量长度
func (v Vector2D) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize 归一化，零向量保持不变
func (v Vector2D) Normalize() Vector2D {
	l := v.Length()
	if l == 0 {
		return v
	}
	return Vector2D{X: v.X / l, Y: v.Y / l}
}

// DistanceTo 两点之间的欧氏距离
func (v Vector2D) DistanceTo(o Vector2D) float64 {
	return math.Hypot(o.X-v.X, o.Y-v.Y)
}

// IsFinite 坐标是否为有限数
func (v Vector2D) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// AngleBetween 从 from 指向 to 的角度(弧度)
func AngleBetween(from, to Vector2D) float64 {
	return math.Atan2(to.Y-from.Y, to.X-from.X)
}

// FromAngle 由角度和模长构造向量
func FromAngle(angle, magnitude float64) Vector2D {
	return Vector2D{X: math.Cos(angle) * magnitude, Y: math.Sin(angle) * magnitude}
}

// EntityType 实体类型
type EntityType string

const (
	// EntityPlayer 玩家实体
	EntityPlayer EntityType = "player"
	// EntityEnemy 敌人实体
	EntityEnemy EntityType = "enemy"
	// EntityBullet 子弹实体
	EntityBullet EntityType = "bullet"
	// EntityExpOrb 经验球实体
	EntityExpOrb EntityType = "exp_orb"
	// EntityGolem 召唤傀儡实体
	EntityGolem EntityType = "golem"
)

// Entity 游戏实体基础接口
type Entity interface {
	GetID() string
	GetType() EntityType
	GetPosition() Vector2D
	GetVelocity() Vector2D
	GetCreatedAt() time.Duration
}

// BaseEntity 基础实体结构
type BaseEntity struct {
	ID        string        `json:"id"`
	Type      EntityType    `json:"type"`
	Position  Vector2D      `json:"position"`
	Velocity  Vector2D      `json:"velocity"`
	CreatedAt time.Duration `json:"created_at"` // 模拟时间
	Removed   bool          `json:"-"`          // 已标记销毁，等待回收
}

// GetID 获取实体ID
func (e *BaseEntity) GetID() string {
	return e.ID
}

// GetType 获取实体类型
func (e *BaseEntity) GetType() EntityType {
	return e.Type
}

// GetPosition 获取实体位置
func (e *BaseEntity) GetPosition() Vector2D {
	return e.Position
}

// GetVelocity 获取实体速度
func (e *BaseEntity) GetVelocity() Vector2D {
	return e.Velocity
}

// GetCreatedAt 获取实体创建时间
func (e *BaseEntity) GetCreatedAt() time.Duration {
	return e.CreatedAt
}

// DamageModifier 伤害减免修饰器，按顺序消耗吸收额度
type DamageModifier struct {
	ID        string        `json:"id"`
	SourceID  string        `json:"source_id"` // 产生该修饰器的技能
	Budget    int           `json:"budget"`    // 剩余吸收额度
	ExpiresAt time.Duration `json:"expires_at"`
}

// AttackModifier 下一次普攻的附加效果
type AttackModifier struct {
	SourceID     string  `json:"source_id"`
	BonusDamage  int     `json:"bonus_damage"`  // 对目标的额外伤害
	SplashDamage int     `json:"splash_damage"` // 对周围敌人的溅射伤害
	SplashRadius float64 `json:"splash_radius"`
}

// PlayerEntity 玩家实体
type PlayerEntity struct {
	BaseEntity
	Character string `json:"character"`

	// 战斗属性
	Health    int  `json:"health"`
	MaxHealth int  `json:"max_health"`
	IsAlive   bool `json:"is_alive"`

	// 成长
	Exp   int `json:"exp"`
	Level int `json:"level"`

	// 移动与普攻
	Speed          float64       `json:"speed"`
	MoveDirection  Vector2D      `json:"-"`
	AttackRange    float64       `json:"attack_range"`
	AttackDamage   int           `json:"attack_damage"`
	AttackCooldown time.Duration `json:"attack_cooldown"`
	LastAttack     time.Duration `json:"-"`
	HasAttacked    bool          `json:"-"`
	MagnetRange    float64       `json:"magnet_range"`

	Modifiers     []*DamageModifier `json:"modifiers,omitempty"`
	PendingAttack *AttackModifier   `json:"pending_attack,omitempty"`

	// 战斗统计
	Kills int `json:"kills"`
}

// EnemyEntity 敌人实体
type EnemyEntity struct {
	BaseEntity
	Health      int     `json:"health"`
	AttackPower int     `json:"attack_power"`
	Speed       float64 `json:"speed"`
	IsAlive     bool    `json:"is_alive"`
	ExpDropped  bool    `json:"-"`

	// 被击退后恢复追击前的剩余时间
	KnockbackLeft time.Duration `json:"-"`
	// 上一次接触伤害的时间，用于接触冷却
	LastContact time.Duration `json:"-"`
	HasContact  bool          `json:"-"`
}

// ExpOrbEntity 经验球实体
type ExpOrbEntity struct {
	BaseEntity
	Value     int  `json:"value"`
	Collected bool `json:"collected"`
}

// BulletEntity 子弹实体
type BulletEntity struct {
	BaseEntity
	OwnerID   string          `json:"owner_id"`
	Damage    int             `json:"damage"`
	ExpiresAt time.Duration   `json:"expires_at"`
	Modifier  *AttackModifier `json:"modifier,omitempty"`
	Resolved  bool            `json:"-"`
}

// GolemEntity 召唤傀儡实体
type GolemEntity struct {
	BaseEntity
	OwnerID     string        `json:"owner_id"`
	Health      int           `json:"health"`
	AttackPower int           `json:"attack_power"`
	ExpiresAt   time.Duration `json:"expires_at"`
	LastStrike  time.Duration `json:"-"`
	HasStruck   bool          `json:"-"`
}
