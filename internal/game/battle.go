package game

import (
	"log"
	"time"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

// 傀儡攻击间隔
const golemStrikeInterval = time.Second

func overlaps(a models.Vector2D, ra float64, b models.Vector2D, rb float64) bool {
	return a.DistanceTo(b) < ra+rb
}

// resolveCombat 碰撞结算：玩家与敌人、玩家与经验球、子弹与敌人、傀儡与敌人
func (r *Room) resolveCombat() {
	r.resolvePlayerEnemy()
	r.resolvePickups()
	r.resolveBullets()
	r.resolveGolems()
}

func (r *Room) resolvePlayerEnemy() {
	p := r.player
	r.registry.ForEachAlive(models.EntityEnemy, func(e models.Entity) bool {
		if !p.IsAlive {
			return false
		}
		enemy := e.(*models.EnemyEntity)
		if !enemy.IsAlive || !overlaps(p.Position, PlayerRadius, enemy.Position, EnemyRadius) {
			return true
		}
		if enemy.HasContact && r.now-enemy.LastContact < r.contactCooldown {
			return true
		}
		enemy.LastContact = r.now
		enemy.HasContact = true

		r.applyPlayerDamage(enemy.AttackPower)

		// 击退方向背离玩家
		angle := models.AngleBetween(p.Position, enemy.Position)
		enemy.Velocity = models.FromAngle(angle, knockbackSpeed)
		enemy.KnockbackLeft = knockbackDuration
		return true
	})
}

func (r *Room) resolvePickups() {
	p := r.player
	if !p.IsAlive {
		return
	}
	r.registry.ForEachAlive(models.EntityExpOrb, func(e models.Entity) bool {
		orb := e.(*models.ExpOrbEntity)
		if overlaps(p.Position, PlayerRadius, orb.Position, OrbRadius) {
			r.collectOrb(orb)
		}
		return true
	})
}

// collectOrb 拾取经验球，同一个经验球只计一次
func (r *Room) collectOrb(orb *models.ExpOrbEntity) bool {
	if orb.Collected {
		return false
	}
	orb.Collected = true
	r.progress.Enqueue(orb.Value)
	_ = r.registry.Destroy(orb.ID)
	return true
}

func (r *Room) resolveBullets() {
	r.registry.ForEachAlive(models.EntityBullet, func(e models.Entity) bool {
		b := e.(*models.BulletEntity)
		if b.Resolved {
			return true
		}

		var target *models.EnemyEntity
		r.registry.ForEachAlive(models.EntityEnemy, func(o models.Entity) bool {
			enemy := o.(*models.EnemyEntity)
			if enemy.IsAlive && overlaps(b.Position, BulletRadius, enemy.Position, EnemyRadius) {
				target = enemy
				return false
			}
			return true
		})
		if target != nil {
			r.resolveHit(b, target)
		}
		return true
	})
}

// resolveHit 子弹命中，一发子弹只结算一次
func (r *Room) resolveHit(b *models.BulletEntity, target *models.EnemyEntity) {
	b.Resolved = true
	_ = r.registry.Destroy(b.ID)

	mod := b.Modifier
	b.Modifier = nil
	if mod == nil {
		r.DamageEnemy(target, b.Damage)
		return
	}

	center := target.Position
	r.DamageEnemy(target, b.Damage+mod.BonusDamage)
	for _, other := range r.registry.AliveEnemies() {
		if other == target {
			continue
		}
		if center.DistanceTo(other.Position) < mod.SplashRadius {
			r.DamageEnemy(other, mod.SplashDamage)
		}
	}
	r.Emit(models.Event{
		Type:     models.EventExplosion,
		EntityID: target.ID,
		Position: center,
		Value:    mod.SplashDamage,
		Radius:   mod.SplashRadius,
	})
}

func (r *Room) resolveGolems() {
	r.registry.ForEachAlive(models.EntityGolem, func(e models.Entity) bool {
		g := e.(*models.GolemEntity)
		if g.HasStruck && r.now-g.LastStrike < golemStrikeInterval {
			return true
		}
		struck := false
		for _, enemy := range r.registry.AliveEnemies() {
			if overlaps(g.Position, GolemRadius, enemy.Position, EnemyRadius) {
				r.DamageEnemy(enemy, g.AttackPower)
				struck = true
			}
		}
		if struck {
			g.LastStrike = r.now
			g.HasStruck = true
		}
		return true
	})
}

// DamageEnemy 对敌人造成伤害，生命值首次归零时死亡并掉落一个经验球
func (r *Room) DamageEnemy(e *models.EnemyEntity, amount int) bool {
	if !e.IsAlive || e.Removed || amount <= 0 {
		return false
	}
	e.Health -= amount
	r.Emit(models.Event{
		Type:     models.EventEnemyHit,
		EntityID: e.ID,
		Position: e.Position,
		Value:    amount,
	})
	if e.Health > 0 {
		return false
	}
	r.killEnemy(e)
	return true
}

func (r *Room) killEnemy(e *models.EnemyEntity) {
	e.Health = 0
	e.IsAlive = false
	e.Velocity = models.Vector2D{}

	if !e.ExpDropped {
		e.ExpDropped = true
		pos := r.registry.Arena().Clamp(e.Position)
		if _, err := r.registry.SpawnExpOrb(pos, RollOrbValue(r.rng)); err != nil {
			log.Printf("房间 %s 掉落经验球失败: %v", r.ID, err)
		}
	}
	r.player.Kills++

	r.Emit(models.Event{
		Type:     models.EventEnemyDeath,
		EntityID: e.ID,
		Position: e.Position,
	})
	_ = r.registry.Destroy(e.ID)
}

// applyPlayerDamage 伤害先经过护盾吸收，返回实际扣除的生命值
func (r *Room) applyPlayerDamage(amount int) int {
	p := r.player
	if !p.IsAlive || amount <= 0 {
		return 0
	}
	taken := mitigate(p, amount, r.now)
	if taken == 0 {
		return 0
	}

	p.Health -= taken
	if p.Health <= 0 {
		p.Health = 0
		p.IsAlive = false
		p.Velocity = models.Vector2D{}
		r.Emit(models.Event{
			Type:     models.EventPlayerDeath,
			EntityID: p.ID,
			Position: p.Position,
		})
	}
	return taken
}

// mitigate 从最近添加的修饰器开始依次吸收伤害，并清理过期或耗尽的修饰器
func mitigate(p *models.PlayerEntity, amount int, now time.Duration) int {
	for i := len(p.Modifiers) - 1; i >= 0 && amount > 0; i-- {
		m := p.Modifiers[i]
		if now >= m.ExpiresAt || m.Budget <= 0 {
			continue
		}
		absorb := m.Budget
		if absorb > amount {
			absorb = amount
		}
		m.Budget -= absorb
		amount -= absorb
	}

	kept := p.Modifiers[:0]
	for _, m := range p.Modifiers {
		if now < m.ExpiresAt && m.Budget > 0 {
			kept = append(kept, m)
		}
	}
	for i := len(kept); i < len(p.Modifiers); i++ {
		p.Modifiers[i] = nil
	}
	p.Modifiers = kept
	return amount
}

// activeShield 当前生效的吸收额度之和
func activeShield(p *models.PlayerEntity, now time.Duration) int {
	total := 0
	for _, m := range p.Modifiers {
		if now < m.ExpiresAt && m.Budget > 0 {
			total += m.Budget
		}
	}
	return total
}
