package game

import (
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

// 技能数值
const (
	fireballImpact   = 50
	fireballBurn     = 10
	fireballBurnHits = 3
	burnInterval     = time.Second

	healAmount   = 20
	healTicks    = 5
	healInterval = time.Second

	chainTargets = 3
	chainDamage  = 40
	chainFalloff = 10

	frostAbsorb   = 60
	frostRadius   = 120.0
	frostSlow     = 0.7
	frostDuration = 10 * time.Second

	golemHealth = 200
	golemAttack = 30
	golemOffset = 40.0
	golemTTL    = 20 * time.Second

	arrowBonus        = 40
	arrowSplash       = 20
	arrowSplashRadius = 80.0
)

type catalogEntry struct {
	def    models.SkillDefinition
	effect skillEffect
}

var skillCatalog = map[models.SkillID]catalogEntry{
	models.SkillFireball: {
		def: models.SkillDefinition{
			ID:            models.SkillFireball,
			Name:          "火球术",
			Description:   "对最近的敌人造成50点伤害，之后3秒每秒灼烧10点",
			Type:          models.ProjectileSkill,
			Cooldown:      5000 * time.Millisecond,
			AutoTriggered: true,
		},
		effect: castFireball,
	},
	models.SkillHealingAura: {
		def: models.SkillDefinition{
			ID:          models.SkillHealingAura,
			Name:        "治疗光环",
			Description: "5秒内每秒恢复20点生命",
			Type:        models.BuffSkill,
			Cooldown:    10000 * time.Millisecond,
		},
		effect: castHealingAura,
	},
	models.SkillChainLightning: {
		def: models.SkillDefinition{
			ID:            models.SkillChainLightning,
			Name:          "闪电链",
			Description:   "依次命中最近的3个敌人，伤害40/30/20",
			Type:          models.AOESkill,
			Cooldown:      8000 * time.Millisecond,
			AutoTriggered: true,
		},
		effect: castChainLightning,
	},
	models.SkillFrostShield: {
		def: models.SkillDefinition{
			ID:          models.SkillFrostShield,
			Name:        "冰霜护盾",
			Description: "吸收60点伤害，持续10秒，并减速周围敌人",
			Type:        models.BuffSkill,
			Cooldown:    15000 * time.Millisecond,
		},
		effect: castFrostShield,
	},
	models.SkillSummonGolem: {
		def: models.SkillDefinition{
			ID:            models.SkillSummonGolem,
			Name:          "召唤傀儡",
			Description:   "召唤一个持续20秒的傀儡",
			Type:          models.SummonSkill,
			Cooldown:      30000 * time.Millisecond,
			AutoTriggered: true,
		},
		effect: castSummonGolem,
	},
	models.SkillExplosiveArrow: {
		def: models.SkillDefinition{
			ID:            models.SkillExplosiveArrow,
			Name:          "爆裂箭",
			Description:   "下一次普攻额外造成40点伤害，并对周围敌人造成20点溅射",
			Type:          models.ProjectileSkill,
			Cooldown:      7000 * time.Millisecond,
			AutoTriggered: true,
		},
		effect: castExplosiveArrow,
	},
}

// LookupSkill 按ID查询技能定义
func LookupSkill(id models.SkillID) (models.SkillDefinition, bool) {
	entry, ok := skillCatalog[id]
	return entry.def, ok
}

// nearestEnemies 按距离升序返回最多 n 个敌人，距离相同时保持遍历顺序
func nearestEnemies(from models.Vector2D, enemies []*models.EnemyEntity, n int) []*models.EnemyEntity {
	sorted := make([]*models.EnemyEntity, len(enemies))
	copy(sorted, enemies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return from.DistanceTo(sorted[i].Position) < from.DistanceTo(sorted[j].Position)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// chainFalloffDamage 第 i 个目标的闪电链伤害
func chainFalloffDamage(i int) int {
	d := chainDamage - i*chainFalloff
	if d < 0 {
		return 0
	}
	return d
}

func castFireball(w World, caster *models.PlayerEntity, now time.Duration) {
	targets := nearestEnemies(caster.Position, w.AliveEnemies(), 1)
	if len(targets) == 0 {
		return
	}
	target := targets[0]
	if w.DamageEnemy(target, fireballImpact) {
		return
	}

	// 灼烧属于目标，目标销毁时自动取消
	for i := 1; i <= fireballBurnHits; i++ {
		w.Scheduler().ScheduleAt(time.Duration(i)*burnInterval, target.ID, func(time.Duration) {
			if target.IsAlive && !target.Removed {
				w.DamageEnemy(target, fireballBurn)
			}
		})
	}
}

func castHealingAura(w World, caster *models.PlayerEntity, now time.Duration) {
	for i := 1; i <= healTicks; i++ {
		w.Scheduler().ScheduleAt(time.Duration(i)*healInterval, caster.ID, func(time.Duration) {
			if !caster.IsAlive {
				return
			}
			caster.Health += healAmount
			if caster.Health > caster.MaxHealth {
				caster.Health = caster.MaxHealth
			}
		})
	}
}

func castChainLightning(w World, caster *models.PlayerEntity, now time.Duration) {
	for i, e := range nearestEnemies(caster.Position, w.AliveEnemies(), chainTargets) {
		w.DamageEnemy(e, chainFalloffDamage(i))
	}
}

func castFrostShield(w World, caster *models.PlayerEntity, now time.Duration) {
	caster.Modifiers = append(caster.Modifiers, &models.DamageModifier{
		ID:        uuid.New().String(),
		SourceID:  string(models.SkillFrostShield),
		Budget:    frostAbsorb,
		ExpiresAt: now + frostDuration,
	})

	for _, e := range w.AliveEnemies() {
		if caster.Position.DistanceTo(e.Position) >= frostRadius {
			continue
		}
		enemy := e
		original := enemy.Speed
		enemy.Speed *= frostSlow
		w.Scheduler().ScheduleAt(frostDuration, enemy.ID, func(time.Duration) {
			enemy.Speed = original
		})
	}
}

func castSummonGolem(w World, caster *models.PlayerEntity, now time.Duration) {
	pos := caster.Position.Add(models.Vector2D{X: golemOffset})
	if _, err := w.SpawnGolem(pos, golemHealth, golemAttack, golemTTL, caster.ID); err != nil {
		log.Printf("召唤傀儡失败: %v", err)
	}
}

func castExplosiveArrow(w World, caster *models.PlayerEntity, now time.Duration) {
	caster.PendingAttack = &models.AttackModifier{
		SourceID:     string(models.SkillExplosiveArrow),
		BonusDamage:  arrowBonus,
		SplashDamage: arrowSplash,
		SplashRadius: arrowSplashRadius,
	}
}
