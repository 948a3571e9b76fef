package game

import (
	"fmt"
	"time"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

// World 技能效果可以使用的模拟能力
type World interface {
	Scheduler() Scheduler
	Player() *models.PlayerEntity
	// AliveEnemies 按插入顺序返回存活敌人
	AliveEnemies() []*models.EnemyEntity
	// DamageEnemy 对敌人造成伤害，敌人因此死亡时返回 true
	DamageEnemy(e *models.EnemyEntity, amount int) bool
	SpawnGolem(pos models.Vector2D, health, attack int, ttl time.Duration, owner string) (*models.GolemEntity, error)
	Emit(ev models.Event)
}

// skillEffect 技能效果，可以注册延迟子效果
type skillEffect func(w World, caster *models.PlayerEntity, now time.Duration)

// Skill 玩家持有的一个技能
type Skill struct {
	Def   models.SkillDefinition
	Level int

	owner    *models.PlayerEntity
	effect   skillEffect
	lastCast time.Duration
	hasCast  bool
}

// Ready 冷却是否结束，从未释放过的技能总是可用
func (s *Skill) Ready(now time.Duration) bool {
	return !s.hasCast || now-s.lastCast >= s.Def.Cooldown
}

// Remaining 剩余冷却时间
func (s *Skill) Remaining(now time.Duration) time.Duration {
	if s.Ready(now) {
		return 0
	}
	return s.Def.Cooldown - (now - s.lastCast)
}

// Info 技能栏展示信息
func (s *Skill) Info(now time.Duration) models.SkillInfo {
	last := int64(-1)
	if s.hasCast {
		last = s.lastCast.Milliseconds()
	}
	return models.SkillInfo{
		ID:            s.Def.ID,
		Name:          s.Def.Name,
		Level:         s.Level,
		CooldownMs:    s.Def.Cooldown.Milliseconds(),
		LastCastMs:    last,
		RemainingMs:   s.Remaining(now).Milliseconds(),
		AutoTriggered: s.Def.AutoTriggered,
	}
}

// SkillSystem 玩家技能栏，负责冷却和释放
type SkillSystem struct {
	world  World
	skills []*Skill
	byID   map[models.SkillID]*Skill
}

// NewSkillSystem 按技能ID列表创建技能栏
func NewSkillSystem(world World, owner *models.PlayerEntity, ids []models.SkillID) (*SkillSystem, error) {
	sys := &SkillSystem{
		world: world,
		byID:  make(map[models.SkillID]*Skill, len(ids)),
	}
	for _, id := range ids {
		entry, ok := skillCatalog[id]
		if !ok {
			return nil, fmt.Errorf("创建技能栏 %s: %w", id, ErrUnknownSkill)
		}
		if _, dup := sys.byID[id]; dup {
			continue
		}
		s := &Skill{
			Def:    entry.def,
			Level:  1,
			owner:  owner,
			effect: entry.effect,
		}
		sys.skills = append(sys.skills, s)
		sys.byID[id] = s
	}
	return sys, nil
}

// Get 按ID获取技能
func (sys *SkillSystem) Get(id models.SkillID) (*Skill, bool) {
	s, ok := sys.byID[id]
	return s, ok
}

// TryCast 释放技能，冷却中返回 ErrOnCooldown
// 没有目标时技能照样进入冷却
func (sys *SkillSystem) TryCast(id models.SkillID, now time.Duration) error {
	s, ok := sys.byID[id]
	if !ok {
		return fmt.Errorf("释放技能 %s: %w", id, ErrUnknownSkill)
	}
	if s.owner == nil || !s.owner.IsAlive {
		return fmt.Errorf("释放技能 %s: %w", id, ErrPlayerDead)
	}
	if !s.Ready(now) {
		return fmt.Errorf("释放技能 %s 剩余 %v: %w", id, s.Remaining(now), ErrOnCooldown)
	}

	s.lastCast = now
	s.hasCast = true
	s.effect(sys.world, s.owner, now)
	return nil
}

// AutoCastTick 释放所有冷却结束的自动技能，返回释放数量
func (sys *SkillSystem) AutoCastTick(now time.Duration) int {
	cast := 0
	for _, s := range sys.skills {
		if !s.Def.AutoTriggered || !s.Ready(now) {
			continue
		}
		if err := sys.TryCast(s.Def.ID, now); err == nil {
			cast++
		}
	}
	return cast
}

// Roster 技能栏快照，顺序与角色预设一致
func (sys *SkillSystem) Roster(now time.Duration) []models.SkillInfo {
	out := make([]models.SkillInfo, 0, len(sys.skills))
	for _, s := range sys.skills {
		out = append(out, s.Info(now))
	}
	return out
}
