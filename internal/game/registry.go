package game

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

// 实体碰撞半径
const (
	PlayerRadius = 20.0
	EnemyRadius  = 16.0
	OrbRadius    = 8.0
	BulletRadius = 6.0
	GolemRadius  = 24.0
)

// 敌人模板
const (
	enemyHealth = 30
	enemyAttack = 10
	enemySpeed  = 80.0
)

// RandomSource 随机数来源，Between 返回 [lo, hi] 闭区间内的整数
type RandomSource interface {
	Between(lo, hi int) int
}

type mathRandSource struct {
	r *rand.Rand
}

// NewRandomSource 创建随机源，seed 为 0 时使用当前时间
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &mathRandSource{r: rand.New(rand.NewSource(seed))}
}

func (s *mathRandSource) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.Intn(hi-lo+1)
}

// Arena 场地范围
type Arena struct {
	Width  float64
	Height float64
	Margin float64 // 刷怪点距边缘的距离
}

// Contains 点是否在场地内
func (a Arena) Contains(p models.Vector2D) bool {
	return p.IsFinite() && p.X >= 0 && p.Y >= 0 && p.X <= a.Width && p.Y <= a.Height
}

// Clamp 把点限制在场地内
func (a Arena) Clamp(p models.Vector2D) models.Vector2D {
	if p.X < 0 {
		p.X = 0
	} else if p.X > a.Width {
		p.X = a.Width
	}
	if p.Y < 0 {
		p.Y = 0
	} else if p.Y > a.Height {
		p.Y = a.Height
	}
	return p
}

// Center 场地中心
func (a Arena) Center() models.Vector2D {
	return models.Vector2D{X: a.Width / 2, Y: a.Height / 2}
}

// edgePoint 随机选一条边，再在边上均匀取点
func (a Arena) edgePoint(rng RandomSource) models.Vector2D {
	m := int(a.Margin)
	w := int(a.Width) - m
	h := int(a.Height) - m

	switch rng.Between(0, 3) {
	case 0: // 上
		return models.Vector2D{X: float64(rng.Between(m, w)), Y: a.Margin}
	case 1: // 下
		return models.Vector2D{X: float64(rng.Between(m, w)), Y: a.Height - a.Margin}
	case 2: // 左
		return models.Vector2D{X: a.Margin, Y: float64(rng.Between(m, h))}
	default: // 右
		return models.Vector2D{X: a.Width - a.Margin, Y: float64(rng.Between(m, h))}
	}
}

type entityRecord struct {
	entity models.Entity
	base   *models.BaseEntity
}

// EntityRegistry 持有全部实体，负责创建和销毁
// 销毁是延迟的：Destroy 只做标记，Flush 时才真正移除
type EntityRegistry struct {
	arena  Arena
	rng    RandomSource
	timers Scheduler
	clock  func() time.Duration

	entities map[string]*entityRecord
	order    []string // 插入顺序
	pending  []string // 等待 Flush 的实体
	player   *models.PlayerEntity
}

// NewEntityRegistry 创建实体注册表
func NewEntityRegistry(arena Arena, rng RandomSource, timers Scheduler, clock func() time.Duration) *EntityRegistry {
	return &EntityRegistry{
		arena:    arena,
		rng:      rng,
		timers:   timers,
		clock:    clock,
		entities: make(map[string]*entityRecord),
	}
}

// Arena 场地范围
func (r *EntityRegistry) Arena() Arena {
	return r.arena
}

// Player 当前玩家，未创建时为 nil
func (r *EntityRegistry) Player() *models.PlayerEntity {
	return r.player
}

func (r *EntityRegistry) now() time.Duration {
	if r.clock == nil {
		return 0
	}
	return r.clock()
}

func (r *EntityRegistry) newBase(kind models.EntityType, pos models.Vector2D) models.BaseEntity {
	return models.BaseEntity{
		ID:        uuid.New().String(),
		Type:      kind,
		Position:  pos,
		CreatedAt: r.now(),
	}
}

func (r *EntityRegistry) insert(e models.Entity, base *models.BaseEntity) {
	if _, exists := r.entities[base.ID]; exists {
		log.Panicf("实体ID重复: %s", base.ID)
	}
	r.entities[base.ID] = &entityRecord{entity: e, base: base}
	r.order = append(r.order, base.ID)
}

func (r *EntityRegistry) checkPosition(pos models.Vector2D) error {
	if !r.arena.Contains(pos) {
		return fmt.Errorf("%w: (%v, %v)", ErrInvalidPosition, pos.X, pos.Y)
	}
	return nil
}

// SpawnPlayer 按角色预设创建玩家，每个注册表只有一个玩家
func (r *EntityRegistry) SpawnPlayer(c models.Character, pos models.Vector2D) (*models.PlayerEntity, error) {
	if err := r.checkPosition(pos); err != nil {
		return nil, err
	}
	p := &models.PlayerEntity{
		BaseEntity:     r.newBase(models.EntityPlayer, pos),
		Character:      c.ID,
		Health:         c.MaxHP,
		MaxHealth:      c.MaxHP,
		IsAlive:        true,
		Level:          1,
		Speed:          c.Speed,
		AttackRange:    c.AttackRange,
		AttackDamage:   c.AttackDamage,
		AttackCooldown: c.AttackCooldown,
		MagnetRange:    c.MagnetRange,
	}
	r.insert(p, &p.BaseEntity)
	r.player = p
	return p, nil
}

// SpawnEnemy 创建敌人，pos 为 nil 时在场地边缘随机生成
func (r *EntityRegistry) SpawnEnemy(pos *models.Vector2D) (*models.EnemyEntity, error) {
	var at models.Vector2D
	if pos == nil {
		at = r.arena.edgePoint(r.rng)
	} else {
		if err := r.checkPosition(*pos); err != nil {
			return nil, err
		}
		at = *pos
	}

	e := &models.EnemyEntity{
		BaseEntity:  r.newBase(models.EntityEnemy, at),
		Health:      enemyHealth,
		AttackPower: enemyAttack,
		Speed:       enemySpeed,
		IsAlive:     true,
	}
	r.insert(e, &e.BaseEntity)
	return e, nil
}

// SpawnExpOrb 创建经验球，数值只能是 1、5、10
func (r *EntityRegistry) SpawnExpOrb(pos models.Vector2D, value int) (*models.ExpOrbEntity, error) {
	switch value {
	case 1, 5, 10:
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrbValue, value)
	}
	if err := r.checkPosition(pos); err != nil {
		return nil, err
	}

	o := &models.ExpOrbEntity{
		BaseEntity: r.newBase(models.EntityExpOrb, pos),
		Value:      value,
	}
	r.insert(o, &o.BaseEntity)
	return o, nil
}

// SpawnBullet 创建子弹，lifetime 之后自动销毁
func (r *EntityRegistry) SpawnBullet(origin, velocity models.Vector2D, damage int, owner string, lifetime time.Duration) (*models.BulletEntity, error) {
	if err := r.checkPosition(origin); err != nil {
		return nil, err
	}
	if !velocity.IsFinite() {
		return nil, fmt.Errorf("%w: 子弹速度", ErrInvalidPosition)
	}

	b := &models.BulletEntity{
		BaseEntity: r.newBase(models.EntityBullet, origin),
		OwnerID:    owner,
		Damage:     damage,
		ExpiresAt:  r.now() + lifetime,
	}
	b.Velocity = velocity
	r.insert(b, &b.BaseEntity)
	return b, nil
}

// SpawnGolem 创建召唤傀儡，ttl 之后自动销毁
func (r *EntityRegistry) SpawnGolem(pos models.Vector2D, health, attack int, ttl time.Duration, owner string) (*models.GolemEntity, error) {
	pos = r.arena.Clamp(pos)
	if err := r.checkPosition(pos); err != nil {
		return nil, err
	}

	g := &models.GolemEntity{
		BaseEntity:  r.newBase(models.EntityGolem, pos),
		OwnerID:     owner,
		Health:      health,
		AttackPower: attack,
		ExpiresAt:   r.now() + ttl,
	}
	r.insert(g, &g.BaseEntity)

	id := g.ID
	r.timers.ScheduleAt(ttl, id, func(time.Duration) {
		_ = r.Destroy(id)
	})
	return g, nil
}

// Destroy 标记实体销毁并取消它拥有的定时器，重复调用无副作用
func (r *EntityRegistry) Destroy(id string) error {
	rec, ok := r.entities[id]
	if !ok {
		return fmt.Errorf("销毁实体 %s: %w", id, ErrNotFound)
	}
	if rec.base.Removed {
		return nil
	}
	rec.base.Removed = true
	r.pending = append(r.pending, id)
	r.timers.CancelOwner(id)
	return nil
}

// Get 获取未销毁的实体
func (r *EntityRegistry) Get(id string) (models.Entity, bool) {
	rec, ok := r.entities[id]
	if !ok || rec.base.Removed {
		return nil, false
	}
	return rec.entity, true
}

// ForEachAlive 按插入顺序遍历某类未销毁的实体，fn 返回 false 时停止
// 遍历开始后新建的实体不会被访问，遍历中被销毁的实体会被跳过
func (r *EntityRegistry) ForEachAlive(kind models.EntityType, fn func(models.Entity) bool) {
	ids := make([]string, len(r.order))
	copy(ids, r.order)

	for _, id := range ids {
		rec, ok := r.entities[id]
		if !ok || rec.base.Removed || rec.base.Type != kind {
			continue
		}
		if !fn(rec.entity) {
			return
		}
	}
}

// AliveEnemies 按插入顺序返回存活的敌人
func (r *EntityRegistry) AliveEnemies() []*models.EnemyEntity {
	var out []*models.EnemyEntity
	r.ForEachAlive(models.EntityEnemy, func(e models.Entity) bool {
		if enemy := e.(*models.EnemyEntity); enemy.IsAlive {
			out = append(out, enemy)
		}
		return true
	})
	return out
}

// Count 某类未销毁的实体数量
func (r *EntityRegistry) Count(kind models.EntityType) int {
	n := 0
	r.ForEachAlive(kind, func(models.Entity) bool {
		n++
		return true
	})
	return n
}

// Len 注册表中的实体总数，包括等待 Flush 的
func (r *EntityRegistry) Len() int {
	return len(r.entities)
}

// Flush 真正移除本 tick 标记销毁的实体
func (r *EntityRegistry) Flush() int {
	if len(r.pending) == 0 {
		return 0
	}
	for _, id := range r.pending {
		delete(r.entities, id)
	}
	n := len(r.pending)
	r.pending = r.pending[:0]

	kept := r.order[:0]
	for _, id := range r.order {
		if _, ok := r.entities[id]; ok {
			kept = append(kept, id)
		}
	}
	for i := len(kept); i < len(r.order); i++ {
		r.order[i] = ""
	}
	r.order = kept
	return n
}

// Release 释放全部实体，用于房间销毁
func (r *EntityRegistry) Release() {
	for id, rec := range r.entities {
		rec.base.Removed = true
		r.timers.CancelOwner(id)
	}
	r.entities = make(map[string]*entityRecord)
	r.order = nil
	r.pending = nil
	r.player = nil
}

// RollOrbValue 按掉落概率决定经验球数值
func RollOrbValue(rng RandomSource) int {
	roll := rng.Between(1, 100)
	switch {
	case roll > 90:
		return 10
	case roll > 60:
		return 5
	default:
		return 1
	}
}
