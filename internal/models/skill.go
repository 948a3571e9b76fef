// skill.go

package models

import "time"

// SkillType 技能类型
type SkillType string

const (
	// ProjectileSkill 单体伤害技能
	ProjectileSkill SkillType = "projectile"
	// AOESkill 范围伤害技能
	AOESkill SkillType = "aoe"
	// BuffSkill 增益技能
	BuffSkill SkillType = "buff"
	// SummonSkill 召唤技能
	SummonSkill SkillType = "summon"
)

// SkillID 技能稳定标识
type SkillID string

const (
	SkillFireball       SkillID = "skill_fireball"
	SkillHealingAura    SkillID = "skill_healing_aura"
	SkillChainLightning SkillID = "skill_chain_lightning"
	SkillFrostShield    SkillID = "skill_frost_shield"
	SkillSummonGolem    SkillID = "skill_summon_golem"
	SkillExplosiveArrow SkillID = "skill_explosive_arrow"
)

// SkillDefinition 技能静态定义
type SkillDefinition struct {
	ID            SkillID       `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Type          SkillType     `json:"type"`
	Cooldown      time.Duration `json:"cooldown"`
	AutoTriggered bool          `json:"auto_triggered"` // 冷却结束后自动释放
}

// SkillInfo 技能栏展示信息，用于快照
type SkillInfo struct {
	ID            SkillID `json:"id"`
	Name          string  `json:"name"`
	Level         int     `json:"level"`
	CooldownMs    int64   `json:"cooldown_ms"`
	LastCastMs    int64   `json:"last_cast_ms"` // 从未释放时为 -1
	RemainingMs   int64   `json:"remaining_ms"`
	AutoTriggered bool    `json:"auto_triggered"`
}
